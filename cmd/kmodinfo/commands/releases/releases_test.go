// SPDX-License-Identifier: Apache-2.0

package releases

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/internal/testutil"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/joomcode/errorx"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, current string, err error) {
	t.Helper()
	dir := t.TempDir()
	modules := filepath.Join(dir, "lib", "modules")

	require.NoError(t, testutil.WriteFiles(afero.NewOsFs(), map[string]string{
		filepath.Join(modules, "5.15.0-91-generic", "modules.dep"):  "",
		filepath.Join(modules, "6.1.0-13-amd64", "modules.dep"):     "",
		filepath.Join(modules, "5.15.0-100-generic", "modules.dep"): "",
		filepath.Join(modules, "README"):                            "not a release",
	}))

	cfg := config.Get()
	cfg.Paths.ModuleRoot = modules
	require.NoError(t, config.Set(&cfg))
	t.Cleanup(config.Reset)

	ctrl := gomock.NewController(t)
	resolver := kernel.NewMockReleaseResolver(ctrl)
	resolver.EXPECT().Release().Return(current, err)

	orig := running
	running = func() kernel.ReleaseResolver { return resolver }
	t.Cleanup(func() { running = orig })
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := testutil.PrepareSubCmdForTest(GetCmd())
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs(append([]string{"releases"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestReleasesCmd(t *testing.T) {
	setup(t, "5.15.0-100-generic", nil)

	out, err := run(t, "-o", "json")
	require.NoError(t, err)

	var got []Release
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []Release{
		{Name: "6.1.0-13-amd64"},
		{Name: "5.15.0-100-generic", Running: true},
		{Name: "5.15.0-91-generic"},
	}, got)
}

func TestReleasesCmd_UnknownRunningRelease(t *testing.T) {
	setup(t, "", errorx.IllegalState.New("no uname"))

	out, err := run(t, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "6.1.0-13-amd64")
	assert.NotContains(t, out, "*")
}
