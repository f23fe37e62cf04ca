// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/internal/sysfs"
	"github.com/lorenzosaino/go-sysctl"
	"github.com/spf13/afero"
)

const osReleaseKey = "kernel.osrelease"

// StaticRelease always resolves to itself.
type StaticRelease string

func (r StaticRelease) Release() (string, error) {
	if r == "" {
		return "", NewReleaseError(errors.New("empty kernel release"))
	}
	return string(r), nil
}

type releaseResolver struct {
	procRoot string
}

// NewReleaseResolver resolves the running release from /proc/sys, falling back to uname(2).
func NewReleaseResolver() ReleaseResolver {
	return NewReleaseResolverAt(sysfs.DefaultProcRoot)
}

// NewReleaseResolverAt is NewReleaseResolver with procfs mounted at procRoot.
func NewReleaseResolverAt(procRoot string) ReleaseResolver {
	return &releaseResolver{procRoot: procRoot}
}

func (r *releaseResolver) Release() (string, error) {
	release, err := r.fromSysctl()
	if err == nil && release != "" {
		return release, nil
	}

	logx.As().Debug().Err(err).Str("key", osReleaseKey).Msg("Falling back to uname for the kernel release")

	release, unameErr := uname()
	if unameErr != nil {
		return "", NewReleaseError(errors.Join(err, unameErr))
	}

	return release, nil
}

// treeRelease reads kernel/osrelease from a procfs tree on any afero backend. It never
// consults the host, so a tree without the file fails to resolve.
type treeRelease struct {
	proc *sysfs.Tree
}

func (r treeRelease) Release() (string, error) {
	release, err := r.proc.ReadLine("sys", "kernel", "osrelease")
	if err != nil {
		return "", NewReleaseError(err)
	}
	if release == "" {
		return "", NewReleaseError(errors.New("empty kernel release"))
	}
	return release, nil
}

// releaseResolverFor resolves through sysctl and uname only when proc is the real procfs.
func releaseResolverFor(proc *sysfs.Tree) ReleaseResolver {
	if _, ok := proc.Fs().(*afero.OsFs); ok {
		return NewReleaseResolverAt(proc.Path())
	}
	return treeRelease{proc: proc}
}

func (r *releaseResolver) fromSysctl() (string, error) {
	client, err := sysctl.NewClient(filepath.Join(r.procRoot, "sys") + string(filepath.Separator))
	if err != nil {
		return "", err
	}

	release, err := client.Get(osReleaseKey)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(release), nil
}
