// SPDX-License-Identifier: Apache-2.0

package codecs

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/hashgraph/kmodinfo/cmd/kmodinfo/commands/common"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/spf13/cobra"
)

// Entry describes one registered codec.
type Entry struct {
	Name       string   `yaml:"name" json:"name"`
	Extensions []string `yaml:"extensions" json:"extensions"`
	Magic      string   `yaml:"magic" json:"magic"`
	Compress   bool     `yaml:"compress" json:"compress"`
}

// Entries describes every codec of r in kind order.
func Entries(r *codec.Registry) []Entry {
	kinds := r.Kinds()
	entries := make([]Entry, 0, len(kinds))
	for _, k := range kinds {
		c, _ := r.Lookup(k)
		_, compress := c.(codec.Compressor)
		entries = append(entries, Entry{
			Name:       k.String(),
			Extensions: c.Extensions(),
			Magic:      hex.EncodeToString(c.Magic()),
			Compress:   compress,
		})
	}
	return entries
}

func GetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codecs",
		Short: "List the supported module compression formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := common.Locator().Registry()
			entries := Entries(registry)

			return common.Render(cmd, entries, func() common.Table {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.Name, strings.Join(e.Extensions, ","), e.Magic, fmt.Sprintf("%t", e.Compress)})
				}
				limit := "unlimited"
				if registry.MaxSize() > 0 {
					limit = fmt.Sprintf("%d bytes", registry.MaxSize())
				}
				return common.Table{
					Title:   "decompressed size limit: " + limit,
					Headers: []string{"codec", "extensions", "magic", "compress"},
					Rows:    rows,
				}
			})
		},
	}
}
