// SPDX-License-Identifier: Apache-2.0

package kobj

import (
	"debug/elf"
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/testutil"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleRecords = []string{
	"license=GPL",
	"author=A",
	"description=D",
	"parm=x:desc",
	"parmtype=x:int",
}

func sampleObject(class elf.Class, order binary.ByteOrder) []byte {
	return testutil.BuildObject(class, order,
		testutil.Section{Name: ".text", Type: elf.SHT_PROGBITS, Data: []byte{0x90, 0x90, 0xc3}},
		testutil.ModInfoSection(sampleRecords...),
		testutil.Section{Name: ".bss", Type: elf.SHT_NOBITS, Data: make([]byte, 32)},
	)
}

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		class   elf.Class
		order   binary.ByteOrder
		machine elf.Machine
	}{
		{name: "64-bit little endian", class: elf.ELFCLASS64, order: binary.LittleEndian, machine: elf.EM_X86_64},
		{name: "64-bit big endian", class: elf.ELFCLASS64, order: binary.BigEndian, machine: elf.EM_S390},
		{name: "32-bit little endian", class: elf.ELFCLASS32, order: binary.LittleEndian, machine: elf.EM_386},
		{name: "32-bit big endian", class: elf.ELFCLASS32, order: binary.BigEndian, machine: elf.EM_MIPS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := sampleObject(tt.class, tt.order)

			obj, err := Read(img)
			require.NoError(t, err)
			assert.Equal(t, tt.class, obj.Class)
			assert.Equal(t, tt.machine, obj.Machine)
			assert.Equal(t, testutil.ModInfo(sampleRecords...), obj.ModInfo)
			assert.Equal(t, int64(len(img)), obj.End)
			assert.False(t, obj.Signed())
			assert.Nil(t, obj.Signature)
		})
	}
}

func TestRead_EmptyModInfo(t *testing.T) {
	img := testutil.BuildObject(elf.ELFCLASS64, binary.LittleEndian, testutil.ModInfoSection())

	obj, err := Read(img)
	require.NoError(t, err)
	assert.Empty(t, obj.ModInfo)
}

func TestRead_MissingSection(t *testing.T) {
	t.Run("no modinfo section", func(t *testing.T) {
		img := testutil.BuildObject(elf.ELFCLASS64, binary.LittleEndian,
			testutil.Section{Name: ".text", Type: elf.SHT_PROGBITS, Data: []byte{0xc3}})

		_, err := Read(img)
		require.Error(t, err)
		assert.True(t, errorx.IsOfType(err, MissingSectionError))
	})

	t.Run("modinfo without file data", func(t *testing.T) {
		img := testutil.BuildObject(elf.ELFCLASS64, binary.LittleEndian,
			testutil.Section{Name: ModInfoSection, Type: elf.SHT_NOBITS, Data: make([]byte, 16)})

		_, err := Read(img)
		require.Error(t, err)
		assert.True(t, errorx.IsOfType(err, MissingSectionError))
	})

	t.Run("no sections at all", func(t *testing.T) {
		img := sampleObject(elf.ELFCLASS64, binary.LittleEndian)
		// clear e_shoff and e_shnum
		binary.LittleEndian.PutUint64(img[40:], 0)
		binary.LittleEndian.PutUint16(img[60:], 0)
		binary.LittleEndian.PutUint16(img[62:], 0)

		_, err := Read(img)
		require.Error(t, err)
		assert.True(t, errorx.IsOfType(err, MissingSectionError))
	})
}

func TestRead_InvalidHeader(t *testing.T) {
	valid := sampleObject(elf.ELFCLASS64, binary.LittleEndian)

	patched := func(off int, b byte) []byte {
		img := append([]byte(nil), valid...)
		img[off] = b
		return img
	}

	tests := []struct {
		name string
		img  []byte
	}{
		{name: "nil", img: nil},
		{name: "bad magic", img: patched(1, 'X')},
		{name: "unknown class", img: patched(elf.EI_CLASS, 7)},
		{name: "unknown data encoding", img: patched(elf.EI_DATA, 0)},
		{name: "unknown version", img: patched(elf.EI_VERSION, 2)},
		{name: "truncated section table", img: valid[:len(valid)-10]},
		{name: "gzip stream", img: []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := Read(tt.img)
			require.Error(t, err)
			assert.Nil(t, obj)
			assert.True(t, errorx.IsOfType(err, InvalidObjectFormatError), "got %v", err)
		})
	}
}

func TestRead_SectionOutsideImage(t *testing.T) {
	img := sampleObject(elf.ELFCLASS64, binary.LittleEndian)

	// section headers start at e_shoff; entry 2 is .modinfo, sh_offset is at +24
	shoff := int(binary.LittleEndian.Uint64(img[40:]))
	binary.LittleEndian.PutUint64(img[shoff+2*64+24:], uint64(len(img)+100))

	_, err := Read(img)
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, InvalidObjectFormatError))
}

func TestRead_ShortInputNeverPanics(t *testing.T) {
	for _, class := range []elf.Class{elf.ELFCLASS32, elf.ELFCLASS64} {
		img := sampleObject(class, binary.LittleEndian)
		minimum := header64Size
		if class == elf.ELFCLASS32 {
			minimum = header32Size
		}

		for n := 0; n < minimum; n++ {
			require.NotPanics(t, func() {
				_, err := Read(img[:n])
				require.Error(t, err)
				assert.True(t, errorx.IsOfType(err, InvalidObjectFormatError), "length %d: %v", n, err)
			})
		}
	}
}

func TestRead_GarbageNeverPanics(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	valid := sampleObject(elf.ELFCLASS64, binary.LittleEndian)

	for i := 0; i < 500; i++ {
		img := make([]byte, rnd.Intn(512))
		_, _ = rnd.Read(img)
		if i%2 == 0 && len(img) >= elf.EI_NIDENT {
			// keep a plausible identification so the deeper checks run
			copy(img, valid[:elf.EI_NIDENT])
		}

		require.NotPanics(t, func() {
			obj, err := Read(img)
			if err != nil {
				assert.Nil(t, obj)
				assert.True(t,
					errorx.IsOfType(err, InvalidObjectFormatError) || errorx.IsOfType(err, MissingSectionError),
					"unexpected error type: %v", err)
			}
		})
	}

	// flip single bytes across a valid image
	for i := 0; i < len(valid); i++ {
		img := append([]byte(nil), valid...)
		img[i] ^= 0xff
		require.NotPanics(t, func() {
			_, _ = Read(img)
		})
	}
}
