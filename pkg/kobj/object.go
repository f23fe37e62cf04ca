// SPDX-License-Identifier: Apache-2.0

// Package kobj inspects kernel module object files.
//
// It is not a loader. It checks the ELF identification and header, bounds-checks the section
// and program header tables against the image, recovers the .modinfo section and reports any
// signature appended after the object's nominal end. Every failure is a typed error; malformed
// input never panics out of Read.
package kobj

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// ModInfoSection is the section holding the NUL separated key=value module information.
const ModInfoSection = ".modinfo"

const (
	header32Size = 52
	header64Size = 64
)

// Object is what Read recovers from a module image.
type Object struct {
	Class   elf.Class
	Data    elf.Data
	Machine elf.Machine
	// ModInfo is a copy of the raw .modinfo section.
	ModInfo []byte
	// End is the offset just past the last byte covered by a header, table or section.
	End int64
	// Signature is nil for unsigned modules.
	Signature *Signature
}

// Signed reports whether a module signature trailer was found.
func (o *Object) Signed() bool {
	return o.Signature != nil
}

type header struct {
	class     elf.Class
	data      elf.Data
	order     binary.ByteOrder
	machine   elf.Machine
	phoff     uint64
	phentsize uint16
	phnum     uint16
	shoff     uint64
	shentsize uint16
	shnum     uint16
}

// readHeader validates the identification bytes and the file header and checks that the
// header tables it points to lie inside img.
func readHeader(img []byte) (*header, error) {
	if len(img) < elf.EI_NIDENT {
		return nil, NewInvalidObjectFormatError(nil, "truncated identification")
	}
	if !bytes.HasPrefix(img, []byte(elf.ELFMAG)) {
		return nil, NewInvalidObjectFormatError(nil, "bad magic number")
	}

	h := &header{
		class: elf.Class(img[elf.EI_CLASS]),
		data:  elf.Data(img[elf.EI_DATA]),
	}

	switch h.data {
	case elf.ELFDATA2LSB:
		h.order = binary.LittleEndian
	case elf.ELFDATA2MSB:
		h.order = binary.BigEndian
	default:
		return nil, NewInvalidObjectFormatError(nil, fmt.Sprintf("unknown data encoding %d", img[elf.EI_DATA]))
	}

	if elf.Version(img[elf.EI_VERSION]) != elf.EV_CURRENT {
		return nil, NewInvalidObjectFormatError(nil, fmt.Sprintf("unknown version %d", img[elf.EI_VERSION]))
	}

	switch h.class {
	case elf.ELFCLASS32:
		if len(img) < header32Size {
			return nil, NewInvalidObjectFormatError(nil, "truncated file header")
		}
		h.machine = elf.Machine(h.order.Uint16(img[18:]))
		h.phoff = uint64(h.order.Uint32(img[28:]))
		h.shoff = uint64(h.order.Uint32(img[32:]))
		h.phentsize = h.order.Uint16(img[42:])
		h.phnum = h.order.Uint16(img[44:])
		h.shentsize = h.order.Uint16(img[46:])
		h.shnum = h.order.Uint16(img[48:])
	case elf.ELFCLASS64:
		if len(img) < header64Size {
			return nil, NewInvalidObjectFormatError(nil, "truncated file header")
		}
		h.machine = elf.Machine(h.order.Uint16(img[18:]))
		h.phoff = h.order.Uint64(img[32:])
		h.shoff = h.order.Uint64(img[40:])
		h.phentsize = h.order.Uint16(img[54:])
		h.phnum = h.order.Uint16(img[56:])
		h.shentsize = h.order.Uint16(img[58:])
		h.shnum = h.order.Uint16(img[60:])
	default:
		return nil, NewInvalidObjectFormatError(nil, fmt.Sprintf("unknown class %d", img[elf.EI_CLASS]))
	}

	size := uint64(len(img))
	// shnum zero with a table offset means extended numbering: entry zero must still be present
	shnum := h.shnum
	if shnum == 0 && h.shoff != 0 {
		shnum = 1
	}
	if !tableFits(size, h.shoff, h.shentsize, shnum) {
		return nil, NewInvalidObjectFormatError(nil, "section header table extends past end of file")
	}
	if !tableFits(size, h.phoff, h.phentsize, h.phnum) {
		return nil, NewInvalidObjectFormatError(nil, "program header table extends past end of file")
	}

	return h, nil
}

func tableFits(size uint64, off uint64, entsize uint16, num uint16) bool {
	if num == 0 {
		return true
	}
	return off <= size && uint64(entsize)*uint64(num) <= size-off
}

func regionFits(size uint64, off uint64, length uint64) bool {
	return off <= size && length <= size-off
}

// Read parses img, a fully decompressed module object.
func Read(img []byte) (obj *Object, err error) {
	h, err := readHeader(img)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			obj = nil
			err = NewInvalidObjectFormatError(fmt.Errorf("%v", r), "malformed section data")
		}
	}()

	f, err := elf.NewFile(bytes.NewReader(img))
	if err != nil {
		return nil, NewInvalidObjectFormatError(err, "unreadable section table")
	}
	defer f.Close()

	end, err := nominalEnd(f, h, uint64(len(img)))
	if err != nil {
		return nil, err
	}

	sec := f.Section(ModInfoSection)
	if sec == nil || sec.Type == elf.SHT_NOBITS {
		return nil, NewMissingSectionError(ModInfoSection)
	}

	data, err := sec.Data()
	if err != nil {
		return nil, NewInvalidObjectFormatError(err, "unreadable "+ModInfoSection+" section")
	}

	sig, err := DetectSignature(img)
	if err != nil {
		return nil, err
	}
	if sig != nil && sig.Offset < end {
		return nil, NewInvalidObjectFormatError(nil, "signature overlaps object data")
	}

	return &Object{
		Class:     h.class,
		Data:      h.data,
		Machine:   h.machine,
		ModInfo:   data,
		End:       end,
		Signature: sig,
	}, nil
}

// nominalEnd returns the end of the object proper and rejects sections that lie outside the image.
func nominalEnd(f *elf.File, h *header, size uint64) (int64, error) {
	var end uint64

	if len(f.Sections) > 0 {
		tableEnd := h.shoff + uint64(len(f.Sections))*uint64(h.shentsize)
		if !regionFits(size, h.shoff, tableEnd-h.shoff) {
			return 0, NewInvalidObjectFormatError(nil, "section header table extends past end of file")
		}
		end = tableEnd
	}

	if h.phnum > 0 {
		if tableEnd := h.phoff + uint64(h.phnum)*uint64(h.phentsize); tableEnd > end {
			end = tableEnd
		}
	}

	for _, s := range f.Sections {
		if s.Type == elf.SHT_NULL || s.Type == elf.SHT_NOBITS {
			continue
		}
		if !regionFits(size, s.Offset, s.FileSize) {
			return 0, NewInvalidObjectFormatError(nil, fmt.Sprintf("section '%s' extends past end of file", s.Name))
		}
		if e := s.Offset + s.FileSize; e > end {
			end = e
		}
	}

	for i, p := range f.Progs {
		if !regionFits(size, p.Off, p.Filesz) {
			return 0, NewInvalidObjectFormatError(nil, fmt.Sprintf("segment %d extends past end of file", i))
		}
		if e := p.Off + p.Filesz; e > end {
			end = e
		}
	}

	return int64(end), nil
}
