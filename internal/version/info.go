// SPDX-License-Identifier: Apache-2.0

// Package version reports the build identity of the kmodinfo binary.
package version

import (
	_ "embed"
	"runtime"
	"strings"
)

// Build modes reported in Info.BuildMode.
const (
	BuildRelease = "release"
	BuildDev     = "dev"
)

var (
	//go:embed VERSION
	number string
	//go:embed COMMIT
	commit string

	// set by release builds:
	// -ldflags="-X 'github.com/hashgraph/kmodinfo/internal/version.buildMode=release'"
	buildMode string
)

// Info describes the running binary.
type Info struct {
	Number    string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildMode string `json:"build" yaml:"build"`
	GoVersion string `json:"go" yaml:"go"`
	// Platform is GOOS/GOARCH.
	Platform string `json:"platform" yaml:"platform"`
}

// Number is the embedded release number.
func Number() string {
	return strings.TrimSpace(number)
}

// Commit is the embedded source revision, empty for builds outside a checkout.
func Commit() string {
	return strings.TrimSpace(commit)
}

func mode() string {
	if strings.TrimSpace(buildMode) == BuildRelease {
		return BuildRelease
	}
	return BuildDev
}

func Get() Info {
	return Info{
		Number:    Number(),
		Commit:    Commit(),
		BuildMode: mode(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}
