// SPDX-License-Identifier: Apache-2.0

package info

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/hashgraph/kmodinfo/pkg/kobj"
	"github.com/hashgraph/kmodinfo/pkg/modinfo"
	"github.com/spf13/cobra"
)

// Report is the metadata of one module file.
type Report struct {
	Name        string           `yaml:"name" json:"name"`
	Path        string           `yaml:"path" json:"path"`
	Release     string           `yaml:"release,omitempty" json:"release,omitempty"`
	Compression string           `yaml:"compression" json:"compression"`
	Signed      bool             `yaml:"signed" json:"signed"`
	Signature   *kobj.Signature  `yaml:"signature,omitempty" json:"signature,omitempty"`
	Info        *modinfo.ModInfo `yaml:"info" json:"info"`
}

func GetCmd() *cobra.Command {
	var (
		flagRelease string
		flagPath    bool
	)

	cmd := &cobra.Command{
		Use:   "info <name|path>",
		Short: "Show the metadata of a module file",
		Long:  "Locate a module file by name in the module tree of a kernel release, or open it by path, and show its module information and signature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locator := common.Locator()

			var file *kernel.ModuleFile
			var err error
			switch {
			case flagPath:
				file, err = locator.FromPath(args[0])
			case flagRelease != "":
				file, err = locator.FromNameWithRelease(args[0], flagRelease)
			default:
				file, err = locator.FromName(args[0])
			}
			if err != nil {
				return err
			}

			report, err := NewReport(file)
			if err != nil {
				return err
			}

			return common.Render(cmd, report, report.Table)
		},
	}

	common.FlagRelease.SetVar(cmd, &flagRelease, false)
	common.FlagPath.SetVar(cmd, &flagPath, false)

	return cmd
}

// NewReport parses file and collects its metadata.
func NewReport(file *kernel.ModuleFile) (*Report, error) {
	kind, err := file.Compression()
	if err != nil {
		return nil, err
	}

	mi, err := file.Info()
	if err != nil {
		return nil, err
	}

	sig, err := file.Signature()
	if err != nil {
		return nil, err
	}

	return &Report{
		Name:        file.Name(),
		Path:        file.Path(),
		Release:     file.Release(),
		Compression: kind.String(),
		Signed:      sig != nil,
		Signature:   sig,
		Info:        mi,
	}, nil
}

func (r *Report) Table() common.Table {
	rows := [][]string{
		{"name", r.Name},
		{"path", r.Path},
		{"release", common.OrDash(r.Release)},
		{"compression", r.Compression},
		{"license", common.Deref(r.Info.License)},
		{"author", common.Deref(r.Info.Author)},
		{"description", common.Deref(r.Info.Description)},
		{"version", common.Deref(r.Info.Version)},
		{"vermagic", common.Deref(r.Info.VersionMagic)},
		{"depends", common.OrDash(strings.Join(r.Info.Dependencies, ","))},
		{"aliases", fmt.Sprintf("%d", len(r.Info.Aliases))},
		{"signed", fmt.Sprintf("%t", r.Signed)},
	}

	if r.Signature != nil {
		rows = append(rows,
			[]string{"signer", common.OrDash(r.Signature.Signer)},
			[]string{"digest", common.OrDash(strings.Join(r.Signature.DigestAlgorithms, ","))},
		)
	}

	names := make([]string, 0, len(r.Info.Params))
	for name := range r.Info.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := r.Info.Params[name]
		rows = append(rows, []string{"parm " + name, fmt.Sprintf("%s: %s", p.Kind(), common.Deref(p.Description))})
	}

	return common.Table{Headers: []string{"field", "value"}, Rows: rows}
}
