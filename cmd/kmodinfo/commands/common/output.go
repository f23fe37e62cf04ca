// SPDX-License-Identifier: Apache-2.0

package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Table is the tabular rendering of a command result.
type Table struct {
	// Title is printed above the table when set.
	Title   string
	Headers []string
	Rows    [][]string
}

func (t Table) String() string {
	out := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(BorderStyle).
		Headers(t.Headers...).
		Rows(t.Rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		}).
		String()

	if t.Title == "" {
		return out
	}
	return TitleStyle.Render(t.Title) + "\n" + out
}

// Format renders v as yaml or json, or as the table built by tabulate.
func Format(format string, v any, tabulate func() Table) (string, error) {
	switch strings.ToLower(format) {
	case FormatYAML:
		out, err := yaml.Marshal(v)
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "failed to marshal output to YAML")
		}
		return strings.TrimSuffix(string(out), "\n"), nil
	case FormatJSON:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", errorx.IllegalFormat.Wrap(err, "failed to marshal output to JSON")
		}
		return string(out), nil
	case FormatTable:
		if tabulate == nil {
			return "", errorx.IllegalArgument.New("table output is not supported by this command")
		}
		return tabulate().String(), nil
	default:
		return "", errorx.IllegalArgument.New("unsupported output format: %s", format)
	}
}

// Render writes v to the command output in the format selected by --output.
func Render(cmd *cobra.Command, v any, tabulate func() Table) error {
	format, err := FlagOutput.Value(cmd, nil)
	if err != nil {
		return err
	}

	out, err := Format(format, v, tabulate)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
	return err
}

// OrDash returns "-" for an empty cell.
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Deref returns the pointed string, or "-" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return "-"
	}
	return OrDash(*p)
}
