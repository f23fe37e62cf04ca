// SPDX-License-Identifier: Apache-2.0

package releases

import (
	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/spf13/cobra"
)

// Release is one installed module tree.
type Release struct {
	Name    string `yaml:"name" json:"name"`
	Running bool   `yaml:"running" json:"running"`
}

// running resolves the release of the running kernel; replaced in tests.
var running = func() kernel.ReleaseResolver {
	return kernel.NewReleaseResolverAt(config.Get().Paths.ProcRoot)
}

func GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "releases",
		Short: "List the installed kernel releases",
		Long:  "List the kernel releases that have a module tree installed, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := common.Locator().Releases()
			if err != nil {
				return err
			}

			current, err := running().Release()
			if err != nil {
				logx.As().Debug().Err(err).Msg("Running kernel release is unknown")
			}

			releases := make([]Release, 0, len(names))
			for _, name := range names {
				releases = append(releases, Release{Name: name, Running: name == current})
			}

			return common.Render(cmd, releases, func() common.Table {
				rows := make([][]string, 0, len(releases))
				for _, r := range releases {
					mark := ""
					if r.Running {
						mark = "*"
					}
					rows = append(rows, []string{r.Name, mark})
				}
				return common.Table{Headers: []string{"release", "running"}, Rows: rows}
			})
		},
	}
}
