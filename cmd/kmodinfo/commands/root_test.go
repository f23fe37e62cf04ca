// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}

	for _, want := range []string{"info", "loaded", "list", "releases", "devices", "codecs", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_Flags(t *testing.T) {
	for _, name := range []string{"config", "output", "max-size", "version"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "yaml", rootCmd.PersistentFlags().Lookup("output").DefValue)
}

func TestExecute_RequiresContext(t *testing.T) {
	//nolint:staticcheck
	err := Execute(nil)
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))
}

func TestRootCmd_VersionFlag(t *testing.T) {
	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetArgs([]string{"--version", "-o", "json"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		flagVersion = false
		flagOutputFormat = "yaml"
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), `"version"`)
}

func TestRootCmd_MaxSizeOverride(t *testing.T) {
	run := func(t *testing.T, args ...string) (string, error) {
		out := &bytes.Buffer{}
		rootCmd.SetOut(out)
		rootCmd.SetArgs(args)
		t.Cleanup(func() {
			rootCmd.SetOut(nil)
			rootCmd.SetArgs(nil)
			flagOutputFormat = "yaml"
			f := rootCmd.PersistentFlags().Lookup("max-size")
			require.NoError(t, f.Value.Set(f.DefValue))
			f.Changed = false
			config.Reset()
		})
		err := rootCmd.Execute()
		return out.String(), err
	}

	t.Run("applied before the subcommand runs", func(t *testing.T) {
		out, err := run(t, "codecs", "--max-size", "4096", "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "decompressed size limit: 4096 bytes")
	})

	t.Run("negative value", func(t *testing.T) {
		_, err := run(t, "codecs", "--max-size=-1")
		require.Error(t, err)
		assert.True(t, errorx.IsOfType(err, config.InvalidValueError))
	})
}
