// SPDX-License-Identifier: Apache-2.0

package sysfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTree(t *testing.T, denied ...string) *Tree {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, testutil.WriteFiles(mem, map[string]string{
		"/sys/module/loop/initstate":           "live\n",
		"/sys/module/loop/refcnt":              "2\n",
		"/sys/module/loop/parameters/max_part": "0\n",
		"/sys/module/loop/parameters/max_loop": "  8  \n",
		"/sys/module/loop/parameters/hw_queue": "1\n",
		"/sys/module/kernel/parameters/panic":  "0\n",
		"/sys/module/garbage/refcnt":           "lots\n",
	}))
	require.NoError(t, mem.MkdirAll("/sys/module/loop/holders", 0o755))
	return New(testutil.NewDenyFs(mem, denied...), "/sys")
}

func TestTree_ReadString(t *testing.T) {
	tree := newTree(t)

	v, err := tree.ReadString("module", "loop", "initstate")
	require.NoError(t, err)
	assert.Equal(t, "live", v)

	v, err = tree.ReadString("module", "loop", "parameters", "max_loop")
	require.NoError(t, err)
	assert.Equal(t, "8", v)

	_, err = tree.ReadString("module", "loop", "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestTree_ReadLine(t *testing.T) {
	tree := newTree(t)

	v, err := tree.ReadLine("module", "loop", "parameters", "max_loop")
	require.NoError(t, err)
	assert.Equal(t, "  8  ", v)
}

func TestTree_PermissionDenied(t *testing.T) {
	tree := newTree(t, "/sys/module/loop/parameters/max_part")

	_, err := tree.ReadString("module", "loop", "parameters", "max_part")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrPermission))

	v, err := tree.ReadString("module", "loop", "parameters", "hw_queue")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestTree_ReadUint(t *testing.T) {
	tree := newTree(t)

	n, err := tree.ReadUint(32, "module", "loop", "refcnt")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	_, err = tree.ReadUint(32, "module", "garbage", "refcnt")
	assert.Error(t, err)
}

func TestTree_List(t *testing.T) {
	tree := newTree(t)

	names, err := tree.List("module", "loop", "parameters")
	require.NoError(t, err)
	assert.Equal(t, []string{"hw_queue", "max_loop", "max_part"}, names)

	dirs, err := tree.ListDirs("module")
	require.NoError(t, err)
	assert.Equal(t, []string{"garbage", "kernel", "loop"}, dirs)

	holders, err := tree.List("module", "loop", "holders")
	require.NoError(t, err)
	assert.Empty(t, holders)

	ok, err := tree.IsDir("module", "loop")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tree.IsDir("module", "absent")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTree_Readlink(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "module", "sd_mod"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "drivers", "sd"), 0o755))
	require.NoError(t, os.Symlink("../../module/sd_mod", filepath.Join(root, "drivers", "sd", "module")))

	tree := New(afero.NewOsFs(), root)
	target, err := tree.Readlink("drivers", "sd", "module")
	require.NoError(t, err)
	assert.Equal(t, "sd_mod", filepath.Base(target))

	_, err = New(afero.NewMemMapFs(), "/sys").Readlink("drivers", "sd", "module")
	assert.ErrorIs(t, err, ErrNotLink)
}
