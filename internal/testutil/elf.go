// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"strings"
)

// Section describes one section of a synthetic module object.
type Section struct {
	Name string
	Type elf.SectionType
	Data []byte
}

// ModInfoSection returns a .modinfo section holding the given key=value records.
func ModInfoSection(records ...string) Section {
	return Section{Name: ".modinfo", Type: elf.SHT_PROGBITS, Data: ModInfo(records...)}
}

// ModInfo encodes records the way the kernel build lays out .modinfo: each record NUL terminated.
func ModInfo(records ...string) []byte {
	if len(records) == 0 {
		return nil
	}
	return []byte(strings.Join(records, "\x00") + "\x00")
}

// BuildObject assembles a relocatable ELF image of the given class and byte order.
// Section data follows the file header, the section name table comes last and the section
// header table sits at the end of the image, 8-byte aligned.
func BuildObject(class elf.Class, order binary.ByteOrder, sections ...Section) []byte {
	all := make([]Section, 0, len(sections)+1)
	all = append(all, sections...)

	names := []byte{0}
	nameOffsets := make([]uint32, 0, len(all)+1)
	for _, s := range all {
		nameOffsets = append(nameOffsets, uint32(len(names)))
		names = append(names, s.Name...)
		names = append(names, 0)
	}
	nameOffsets = append(nameOffsets, uint32(len(names)))
	names = append(names, ".shstrtab\x00"...)
	all = append(all, Section{Name: ".shstrtab", Type: elf.SHT_STRTAB, Data: names})

	headerSize, entrySize := 64, 64
	if class == elf.ELFCLASS32 {
		headerSize, entrySize = 52, 40
	}

	var body bytes.Buffer
	offsets := make([]int, len(all))
	pos := headerSize
	for i, s := range all {
		offsets[i] = pos
		if s.Type == elf.SHT_NOBITS {
			continue
		}
		body.Write(s.Data)
		pos += len(s.Data)
	}
	for pos%8 != 0 {
		body.WriteByte(0)
		pos++
	}
	shoff := pos
	shnum := len(all) + 1
	shstrndx := len(all)

	data := elf.ELFDATA2LSB
	if order == binary.BigEndian {
		data = elf.ELFDATA2MSB
	}

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(class)
	ident[elf.EI_DATA] = byte(data)
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	var out bytes.Buffer
	if class == elf.ELFCLASS32 {
		_ = binary.Write(&out, order, elf.Header32{
			Ident:     ident,
			Type:      uint16(elf.ET_REL),
			Machine:   uint16(machineFor(class, order)),
			Version:   uint32(elf.EV_CURRENT),
			Shoff:     uint32(shoff),
			Ehsize:    uint16(headerSize),
			Shentsize: uint16(entrySize),
			Shnum:     uint16(shnum),
			Shstrndx:  uint16(shstrndx),
		})
		out.Write(body.Bytes())
		_ = binary.Write(&out, order, elf.Section32{})
		for i, s := range all {
			_ = binary.Write(&out, order, elf.Section32{
				Name:      nameOffsets[i],
				Type:      uint32(s.Type),
				Off:       uint32(offsets[i]),
				Size:      uint32(len(s.Data)),
				Addralign: 1,
			})
		}
		return out.Bytes()
	}

	_ = binary.Write(&out, order, elf.Header64{
		Ident:     ident,
		Type:      uint16(elf.ET_REL),
		Machine:   uint16(machineFor(class, order)),
		Version:   uint32(elf.EV_CURRENT),
		Shoff:     uint64(shoff),
		Ehsize:    uint16(headerSize),
		Shentsize: uint16(entrySize),
		Shnum:     uint16(shnum),
		Shstrndx:  uint16(shstrndx),
	})
	out.Write(body.Bytes())
	_ = binary.Write(&out, order, elf.Section64{})
	for i, s := range all {
		_ = binary.Write(&out, order, elf.Section64{
			Name:      nameOffsets[i],
			Type:      uint32(s.Type),
			Off:       uint64(offsets[i]),
			Size:      uint64(len(s.Data)),
			Addralign: 1,
		})
	}
	return out.Bytes()
}

func machineFor(class elf.Class, order binary.ByteOrder) elf.Machine {
	switch {
	case class == elf.ELFCLASS64 && order == binary.BigEndian:
		return elf.EM_S390
	case class == elf.ELFCLASS64:
		return elf.EM_X86_64
	case order == binary.BigEndian:
		return elf.EM_MIPS
	default:
		return elf.EM_386
	}
}
