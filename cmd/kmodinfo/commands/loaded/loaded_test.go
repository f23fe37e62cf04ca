// SPDX-License-Identifier: Apache-2.0

package loaded

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/internal/testutil"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/joomcode/errorx"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	sys := filepath.Join(dir, "sys")
	proc := filepath.Join(dir, "proc")

	fsys := afero.NewOsFs()
	require.NoError(t, testutil.WriteFiles(fsys, map[string]string{
		filepath.Join(sys, "module", "nbd", "initstate"):              "live\n",
		filepath.Join(sys, "module", "nbd", "refcnt"):                 "2\n",
		filepath.Join(sys, "module", "nbd", "coresize"):               "65536\n",
		filepath.Join(sys, "module", "nbd", "taint"):                  "OE\n",
		filepath.Join(sys, "module", "nbd", "srcversion"):             "ABCDEF0123\n",
		filepath.Join(sys, "module", "nbd", "parameters", "nbds_max"): "16\n",
		filepath.Join(sys, "module", "nbd", "holders", "drbd"):        "",
		filepath.Join(proc, "modules"):                                "nbd 65536 2 - Live 0x0000000000000000\n",
	}))

	cfg := config.Get()
	cfg.Paths.ModuleRoot = filepath.Join(dir, "lib", "modules")
	cfg.Paths.SysfsRoot = sys
	cfg.Paths.ProcRoot = proc
	require.NoError(t, config.Set(&cfg))
	t.Cleanup(config.Reset)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := testutil.PrepareSubCmdForTest(GetCmd())
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs(append([]string{"loaded"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestLoadedCmd(t *testing.T) {
	setup(t)

	out, err := run(t, "nbd", "-o", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "nbd", got["name"])
	assert.Equal(t, "live", got["status"])
	assert.Equal(t, false, got["builtin"])
	assert.EqualValues(t, 2, got["refCount"])
	assert.Equal(t, []any{"drbd"}, got["holders"])
	assert.Equal(t, map[string]any{"nbds_max": "16"}, got["params"])
	assert.Equal(t, []any{"out-of-tree module", "unsigned module"}, got["taintReasons"])
}

func TestLoadedCmd_Table(t *testing.T) {
	setup(t)

	out, err := run(t, "nbd", "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "ABCDEF0123")
	assert.Contains(t, out, "parm nbds_max")
	assert.Contains(t, out, "out-of-tree module, unsigned module")
}

func TestLoadedCmd_NotLoaded(t *testing.T) {
	setup(t)

	_, err := run(t, "kvm")
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, kernel.ModuleNotFoundError))
}
