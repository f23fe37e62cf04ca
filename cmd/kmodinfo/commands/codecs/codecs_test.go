// SPDX-License-Identifier: Apache-2.0

package codecs

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/internal/testutil"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := testutil.PrepareSubCmdForTest(GetCmd())
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs(append([]string{"codecs"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestEntries(t *testing.T) {
	entries := Entries(codec.Default())

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"none", "xz", "gzip", "zstd", "lz4"}, names)
	assert.Equal(t, Entry{Name: "gzip", Extensions: []string{"gz"}, Magic: "1f8b", Compress: true}, entries[2])
	assert.Equal(t, Entry{Name: "xz", Extensions: []string{"xz"}, Magic: "fd377a585a00", Compress: true}, entries[1])
	assert.Equal(t, "7f454c46", entries[0].Magic)
}

func TestCodecsCmd(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		out, err := run(t, "-o", "json")
		require.NoError(t, err)

		var got []Entry
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, Entries(codec.Default()), got)
	})

	t.Run("table shows the configured limit", func(t *testing.T) {
		cfg := config.Get()
		cfg.Decompress.MaxSize = 0
		require.NoError(t, config.Set(&cfg))
		t.Cleanup(config.Reset)

		out, err := run(t, "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "decompressed size limit: unlimited")
		assert.Contains(t, out, "zst,zstd")
	})
}
