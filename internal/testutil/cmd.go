// SPDX-License-Identifier: Apache-2.0

package testutil

import "github.com/spf13/cobra"

// PrepareSubCmdForTest creates a root command with the given subcommand added.
// The root carries the persistent --output flag the real root registers.
// Use this from tests in other packages to avoid duplicating the helper.
func PrepareSubCmdForTest(sub *cobra.Command) *cobra.Command {
	root := &cobra.Command{Use: "root", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().StringP("output", "o", "yaml", "Output format")
	root.AddCommand(sub)
	return root
}
