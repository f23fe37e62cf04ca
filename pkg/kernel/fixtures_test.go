// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"debug/elf"
	"encoding/asn1"
	"encoding/binary"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/testutil"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testRelease = "6.1.0-13-amd64"

func moduleImage(name string, signed bool) []byte {
	img := testutil.BuildObject(elf.ELFCLASS64, binary.LittleEndian,
		testutil.Section{Name: ".text", Type: elf.SHT_PROGBITS, Data: []byte{0xc3}},
		testutil.ModInfoSection(
			"license=GPL",
			"description="+name+" driver",
			"parm=debug:enable debug output",
			"parmtype=debug:bool",
			"name="+name,
		),
	)
	if signed {
		sd := testutil.SignedData{Digests: []asn1.ObjectIdentifier{testutil.OIDSHA256}, Issuer: "test key", Serial: 7}
		img = testutil.AppendSignature(img, sd.Bytes())
	}
	return img
}

// writeModule stores img at path compressed with kind.
func writeModule(t *testing.T, fsys afero.Fs, path string, kind codec.Kind, img []byte) {
	t.Helper()

	c, ok := codec.Default().Lookup(kind)
	require.True(t, ok)
	compressor, ok := c.(codec.Compressor)
	require.True(t, ok, "codec %s cannot compress", kind)

	data, err := compressor.Compress(img)
	require.NoError(t, err)
	require.NoError(t, testutil.WriteFiles(fsys, map[string]string{path: string(data)}))
}

// moduleTree lays out a small /lib/modules tree for testRelease.
func moduleTree(t *testing.T) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	base := "/lib/modules/" + testRelease + "/kernel/"

	writeModule(t, fsys, base+"drivers/block/nbd.ko", codec.KindIdentity, moduleImage("nbd", false))
	writeModule(t, fsys, base+"drivers/net/ethernet/intel/e1000e/e1000e.ko.zst", codec.KindZstd, moduleImage("e1000e", true))
	writeModule(t, fsys, base+"sound/pci/hda/snd-hda-intel.ko.gz", codec.KindGzip, moduleImage("snd_hda_intel", false))
	writeModule(t, fsys, base+"fs/overlayfs/overlay.ko.lz4", codec.KindLZ4, moduleImage("overlay", true))
	writeModule(t, fsys, base+"net/wireguard/wireguard.ko.xz", codec.KindXZ, moduleImage("wireguard", true))

	require.NoError(t, testutil.WriteFiles(fsys, map[string]string{
		base + "drivers/misc/stale.ko.bak":  "backup",
		base + "drivers/misc/legacy.ko.bz2": "BZh91AY&SY",
		base + "drivers/misc/notes.txt":     "nbd.ko",
	}))

	builtin := "kernel/drivers/block/loop.ko\nkernel/fs/ext4/ext4.ko\n\n"
	require.NoError(t, afero.WriteFile(fsys, "/lib/modules/"+testRelease+"/"+BuiltinListFile, []byte(builtin), 0o644))

	return fsys
}

func newTestLocator(fsys afero.Fs, opts ...LocatorOption) *Locator {
	return NewLocator(append([]LocatorOption{
		WithFs(fsys),
		WithReleaseResolver(StaticRelease(testRelease)),
	}, opts...)...)
}
