// SPDX-License-Identifier: Apache-2.0

package list

import (
	"fmt"
	"strings"

	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/spf13/cobra"
)

func GetCmd() *cobra.Command {
	var flagBuiltin bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the modules of the running kernel",
		Long:  "List every module published under /sys/module, loadable and built-in, ordered by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			modules, err := common.Reader().List()
			if err != nil {
				return err
			}

			if !flagBuiltin {
				modules = loadable(modules)
			}

			return common.Render(cmd, modules, func() common.Table {
				return table(modules)
			})
		},
	}

	cmd.Flags().BoolVar(&flagBuiltin, "builtin", false, "Include modules compiled into the kernel")

	return cmd
}

func loadable(modules []*kernel.LoadedModule) []*kernel.LoadedModule {
	out := make([]*kernel.LoadedModule, 0, len(modules))
	for _, m := range modules {
		if !m.Builtin {
			out = append(out, m)
		}
	}
	return out
}

func table(modules []*kernel.LoadedModule) common.Table {
	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		size, refs := "-", "-"
		if m.CoreSize != nil {
			size = fmt.Sprintf("%d", *m.CoreSize)
		}
		if m.RefCount != nil {
			refs = fmt.Sprintf("%d", *m.RefCount)
		}
		rows = append(rows, []string{
			m.Name,
			m.Status.String(),
			size,
			refs,
			common.OrDash(strings.Join(m.Holders, ",")),
		})
	}

	return common.Table{Headers: []string{"module", "status", "size", "used", "by"}, Rows: rows}
}
