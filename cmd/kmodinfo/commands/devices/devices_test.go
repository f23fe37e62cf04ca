// SPDX-License-Identifier: Apache-2.0

package devices

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/internal/testutil"
	"github.com/hashgraph/kmodinfo/pkg/device"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHost = device.HostInfo{
	Hostname:      "node1",
	OSVendor:      "debian",
	OSVersion:     "12",
	KernelRelease: "6.1.0-13-amd64",
	Architecture:  "x86_64",
}

type fakeLister struct {
	block []device.Device
}

func (f fakeLister) BlockDevices() ([]device.Device, error) {
	return f.block, nil
}

func (f fakeLister) ClassDevices(class string) ([]device.Device, error) {
	return nil, device.NewEnumerationError(os.ErrNotExist, class)
}

// netSysfs links eth0 to the e1000e driver and lo to nothing.
func netSysfs(t *testing.T) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "sys")

	for _, d := range []string{"module/e1000e", "bus/drivers/e1000e", "devices/pci0", "class/net/eth0", "class/net/lo"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	for link, target := range map[string]string{
		"bus/drivers/e1000e/module": "module/e1000e",
		"devices/pci0/driver":       "bus/drivers/e1000e",
		"class/net/eth0/device":     "devices/pci0",
	} {
		require.NoError(t, os.Symlink(filepath.Join(root, target), filepath.Join(root, link)))
	}

	cfg := config.Get()
	cfg.Paths.SysfsRoot = root
	require.NoError(t, config.Set(&cfg))
	t.Cleanup(config.Reset)
}

func stub(t *testing.T, lister device.Lister) {
	t.Helper()
	origHost, origDevices := host, devices
	host = func() device.HostInfo { return testHost }
	if lister != nil {
		devices = func() device.Lister { return lister }
	}
	t.Cleanup(func() {
		host, devices = origHost, origDevices
	})
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := testutil.PrepareSubCmdForTest(GetCmd())
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetArgs(append([]string{"devices"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestDevicesCmd_Class(t *testing.T) {
	netSysfs(t)
	stub(t, nil)

	out, err := run(t, "--class", "net", "-o", "json")
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, testHost, got.Host)
	assert.Equal(t, []device.Device{
		{Name: "eth0", Class: "net", Driver: "e1000e", Module: "e1000e"},
		{Name: "lo", Class: "net"},
	}, got.Devices)
}

func TestDevicesCmd_Block(t *testing.T) {
	stub(t, fakeLister{block: []device.Device{
		{Name: "nvme0n1", Class: device.ClassBlock, Driver: "nvme", Module: "nvme", Model: "Samsung SSD 980", SizeBytes: 1000204886016},
	}})

	out, err := run(t, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, testHost.String())
	assert.Contains(t, out, "Samsung SSD 980")
	assert.Contains(t, out, "1000204886016")
}

func TestDevicesCmd_EnumerationFails(t *testing.T) {
	stub(t, fakeLister{})

	_, err := run(t, "--class", "nosuch")
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, device.EnumerationError))
}
