// SPDX-License-Identifier: Apache-2.0

// Package modinfo parses the .modinfo section of a kernel module.
//
// The section is a run of NUL terminated key=value records emitted by the MODULE_INFO family
// of macros. Keys repeat (author, alias, parm, ...) and parameter descriptions and types are
// correlated by parameter name, not by position.
package modinfo

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// ParamKind is the kernel parameter type named by a parmtype record.
type ParamKind string

const (
	ParamByte      ParamKind = "byte"
	ParamHexInt    ParamKind = "hexint"
	ParamShort     ParamKind = "short"
	ParamUShort    ParamKind = "ushort"
	ParamInt       ParamKind = "int"
	ParamUInt      ParamKind = "uint"
	ParamLong      ParamKind = "long"
	ParamULong     ParamKind = "ulong"
	ParamULongLong ParamKind = "ullong"
	ParamCharP     ParamKind = "charp"
	ParamBool      ParamKind = "bool"
	ParamInvBool   ParamKind = "invbool"
	ParamString    ParamKind = "string"
	// ParamUnknown means no parmtype record was present.
	ParamUnknown ParamKind = "unknown"
	// ParamCustom is a type defined by the module itself, e.g. "array of int".
	ParamCustom ParamKind = "custom"
)

var standardKinds = map[string]ParamKind{
	"byte":    ParamByte,
	"hexint":  ParamHexInt,
	"short":   ParamShort,
	"ushort":  ParamUShort,
	"int":     ParamInt,
	"uint":    ParamUInt,
	"long":    ParamLong,
	"ulong":   ParamULong,
	"ullong":  ParamULongLong,
	"charp":   ParamCharP,
	"bool":    ParamBool,
	"invbool": ParamInvBool,
	"string":  ParamString,
}

// ModParam is one declared module parameter.
type ModParam struct {
	// Type is the raw parmtype tag, nil when the module declared none.
	Type *string `yaml:"type,omitempty" json:"type,omitempty"`
	// Description is nil when the build stripped parameter docs.
	Description *string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Kind classifies the parameter type tag.
func (p ModParam) Kind() ParamKind {
	if p.Type == nil {
		return ParamUnknown
	}
	if k, ok := standardKinds[*p.Type]; ok {
		return k
	}
	return ParamCustom
}

// ModInfo is the parsed module information. Absent single-valued keys are nil.
type ModInfo struct {
	License     *string `yaml:"license,omitempty" json:"license,omitempty"`
	Author      *string `yaml:"author,omitempty" json:"author,omitempty"`
	Description *string `yaml:"description,omitempty" json:"description,omitempty"`
	Version     *string `yaml:"version,omitempty" json:"version,omitempty"`

	Authors          []string `yaml:"authors,omitempty" json:"authors,omitempty"`
	VersionMagic     *string  `yaml:"vermagic,omitempty" json:"vermagic,omitempty"`
	Name             *string  `yaml:"name,omitempty" json:"name,omitempty"`
	SourceChecksum   *string  `yaml:"srcversion,omitempty" json:"srcversion,omitempty"`
	Aliases          []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	SoftDependencies []string `yaml:"softdeps,omitempty" json:"softdeps,omitempty"`
	Dependencies     []string `yaml:"depends,omitempty" json:"depends,omitempty"`
	Firmware         []string `yaml:"firmware,omitempty" json:"firmware,omitempty"`
	ImportNamespaces []string `yaml:"importNamespaces,omitempty" json:"importNamespaces,omitempty"`
	InTree           bool     `yaml:"intree" json:"intree"`
	Retpoline        bool     `yaml:"retpoline" json:"retpoline"`
	Staging          bool     `yaml:"staging" json:"staging"`

	Params map[string]ModParam `yaml:"params" json:"params"`
}

// Parse decodes a .modinfo section. A section with no records yields an empty ModInfo.
// A record that is not NUL terminated, not valid UTF-8 or has no '=' makes the whole parse fail.
// Unknown keys, and parm or parmtype values without a ':' separator, are ignored.
func Parse(section []byte) (*ModInfo, error) {
	info := &ModInfo{Params: map[string]ModParam{}}
	descriptions := map[string][]string{}

	records := bytes.Split(section, []byte{0})
	last := len(records) - 1
	for i, rec := range records {
		if len(rec) == 0 {
			// padding between records, or the empty tail after the final NUL
			continue
		}
		if i == last {
			return nil, NewMalformedModuleInfoError(i, "record is not NUL terminated")
		}
		if !utf8.Valid(rec) {
			return nil, NewMalformedModuleInfoError(i, "record is not valid UTF-8")
		}

		key, value, ok := strings.Cut(string(rec), "=")
		if !ok {
			return nil, NewMalformedModuleInfoError(i, "record has no '='")
		}
		if key == "" {
			return nil, NewMalformedModuleInfoError(i, "record has an empty key")
		}

		info.apply(key, value, descriptions)
	}

	for name, lines := range descriptions {
		p := info.Params[name]
		p.Description = ptr(strings.Join(lines, "\n"))
		info.Params[name] = p
	}

	return info, nil
}

func (m *ModInfo) apply(key string, value string, descriptions map[string][]string) {
	switch key {
	case "license":
		setOnce(&m.License, value)
	case "author":
		setOnce(&m.Author, value)
		m.Authors = appendNonEmpty(m.Authors, value)
	case "description":
		setOnce(&m.Description, value)
	case "version":
		setOnce(&m.Version, value)
	case "vermagic":
		setOnce(&m.VersionMagic, value)
	case "name":
		setOnce(&m.Name, value)
	case "srcversion":
		setOnce(&m.SourceChecksum, value)
	case "alias":
		m.Aliases = appendNonEmpty(m.Aliases, value)
	case "softdep":
		m.SoftDependencies = appendNonEmpty(m.SoftDependencies, value)
	case "firmware":
		m.Firmware = appendNonEmpty(m.Firmware, value)
	case "import_ns":
		m.ImportNamespaces = appendNonEmpty(m.ImportNamespaces, value)
	case "depends":
		for _, dep := range strings.Split(value, ",") {
			m.Dependencies = appendNonEmpty(m.Dependencies, strings.TrimSpace(dep))
		}
	case "intree":
		m.InTree = yes(value)
	case "retpoline":
		m.Retpoline = yes(value)
	case "staging":
		m.Staging = yes(value)
	case "parmtype":
		name, typ, ok := strings.Cut(value, ":")
		if !ok || name == "" {
			return
		}
		p := m.Params[name]
		if p.Type == nil {
			p.Type = ptr(typ)
		}
		m.Params[name] = p
	case "parm":
		name, desc, ok := strings.Cut(value, ":")
		if !ok || name == "" {
			return
		}
		if _, exists := m.Params[name]; !exists {
			m.Params[name] = ModParam{}
		}
		descriptions[name] = append(descriptions[name], desc)
	}
}

func ptr(s string) *string {
	return &s
}

// setOnce keeps the first non-empty value of a single-valued key.
func setOnce(field **string, value string) {
	if *field == nil && value != "" {
		*field = ptr(value)
	}
}

func appendNonEmpty(list []string, value string) []string {
	if value == "" {
		return list
	}
	return append(list, value)
}

func yes(value string) bool {
	return value == "Y" || value == "y"
}
