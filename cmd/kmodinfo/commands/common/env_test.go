// SPDX-License-Identifier: Apache-2.0

package common

import (
	"testing"

	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/joomcode/errorx"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOverrideCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	var maxSize int64
	parent := &cobra.Command{Use: "parent"}
	child := &cobra.Command{Use: "child"}
	parent.AddCommand(child)
	FlagMaxSize.SetVarP(parent, &maxSize, false)
	require.NoError(t, child.ParseFlags(args))
	return child
}

func TestApplyOverrides(t *testing.T) {
	t.Cleanup(config.Reset)

	t.Run("unset flag keeps the configured limit", func(t *testing.T) {
		cfg := config.Get()
		cfg.Decompress.MaxSize = 1 << 20
		require.NoError(t, config.Set(&cfg))
		t.Cleanup(config.Reset)

		require.NoError(t, ApplyOverrides(newOverrideCmd(t)))
		assert.Equal(t, int64(1<<20), config.Get().Decompress.MaxSize)
		assert.Equal(t, int64(1<<20), Locator().Registry().MaxSize())
	})

	t.Run("flag replaces the configured limit", func(t *testing.T) {
		t.Cleanup(config.Reset)

		require.NoError(t, ApplyOverrides(newOverrideCmd(t, "--max-size=4096")))
		assert.Equal(t, int64(4096), config.Get().Decompress.MaxSize)
		assert.Equal(t, int64(4096), Locator().Registry().MaxSize())
	})

	t.Run("zero disables the limit", func(t *testing.T) {
		t.Cleanup(config.Reset)

		require.NoError(t, ApplyOverrides(newOverrideCmd(t, "--max-size=0")))
		assert.Equal(t, int64(0), config.Get().Decompress.MaxSize)
	})

	t.Run("negative limit is rejected", func(t *testing.T) {
		t.Cleanup(config.Reset)

		err := ApplyOverrides(newOverrideCmd(t, "--max-size=-1"))
		require.Error(t, err)
		assert.True(t, errorx.IsOfType(err, config.InvalidValueError))
		assert.Equal(t, codec.DefaultMaxDecompressedSize, config.Get().Decompress.MaxSize)
	})
}
