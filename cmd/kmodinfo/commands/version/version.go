// SPDX-License-Identifier: Apache-2.0

package version

import (
	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/internal/version"
	"github.com/spf13/cobra"
)

func GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Long:  "Show the current version of the application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintVersion(cmd)
		},
	}
}

// PrintVersion renders the build version in the format selected by --output.
func PrintVersion(cmd *cobra.Command) error {
	v := version.Get()
	return common.Render(cmd, v, func() common.Table {
		return common.Table{
			Headers: []string{"version", "commit", "build", "go", "platform"},
			Rows:    [][]string{{v.Number, v.Commit, v.BuildMode, v.GoVersion, v.Platform}},
		}
	})
}
