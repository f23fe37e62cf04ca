// SPDX-License-Identifier: Apache-2.0

package loaded

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/spf13/cobra"
)

// Report is the live state of one loaded module.
type Report struct {
	kernel.LoadedModule `yaml:",inline"`
	TaintReasons        []string `yaml:"taintReasons,omitempty" json:"taintReasons,omitempty"`
	File                string   `yaml:"file,omitempty" json:"file,omitempty"`
}

func GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "loaded <name>",
		Short: "Show a module loaded in the running kernel",
		Long:  "Show the state, reference count, holders and parameter values of a module as published under /sys/module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := common.Reader().Get(args[0])
			if err != nil {
				return err
			}

			report := NewReport(m)
			return common.Render(cmd, report, report.Table)
		},
	}
}

func NewReport(m *kernel.LoadedModule) *Report {
	r := &Report{LoadedModule: *m, TaintReasons: m.TaintReasons()}
	if m.File != nil {
		r.File = m.File.Path()
	}
	return r
}

func (r *Report) Table() common.Table {
	refs := "-"
	if r.RefCount != nil {
		refs = fmt.Sprintf("%d", *r.RefCount)
	}

	rows := [][]string{
		{"name", r.Name},
		{"path", r.Path},
		{"builtin", fmt.Sprintf("%t", r.Builtin)},
		{"status", r.Status.String()},
		{"refcnt", refs},
		{"holders", common.OrDash(strings.Join(r.Holders, ","))},
		{"taint", common.OrDash(strings.Join(r.TaintReasons, ", "))},
		{"version", common.Deref(r.Version)},
		{"srcversion", common.Deref(r.SourceChecksum)},
		{"file", common.OrDash(r.File)},
	}

	names := make([]string, 0, len(r.Params))
	for name := range r.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := r.Params[name]
		if value == nil {
			rows = append(rows, []string{"parm " + name, "<unreadable>"})
			continue
		}
		rows = append(rows, []string{"parm " + name, *value})
	}

	return common.Table{Headers: []string{"field", "value"}, Rows: rows}
}
