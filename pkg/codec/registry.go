// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultMaxDecompressedSize caps the output of a single decompression.
const DefaultMaxDecompressedSize int64 = 1 << 30

// unsupportedFormat is a compression format we can recognize but not decode.
type unsupportedFormat struct {
	name      string
	extension string
	magic     []byte
}

var unsupportedFormats = []unsupportedFormat{
	{name: "bzip2", extension: "bz2", magic: []byte{'B', 'Z', 'h'}},
	{name: "lzma", extension: "lzma", magic: []byte{0x5d, 0x00, 0x00}},
	{name: "lzo", extension: "lzo", magic: []byte{0x89, 'L', 'Z', 'O'}},
}

// Registry is the set of codecs available at runtime.
type Registry struct {
	codecs  map[Kind]Codec
	maxSize int64
}

// New builds a registry from codecs. Later codecs replace earlier ones of the same Kind.
// A maxSize of zero or less disables the output cap.
func New(maxSize int64, codecs ...Codec) *Registry {
	r := &Registry{
		codecs:  make(map[Kind]Codec, len(codecs)),
		maxSize: maxSize,
	}
	for _, c := range codecs {
		r.codecs[c.Kind()] = c
	}
	return r
}

// Default returns a registry with every built-in codec.
func Default() *Registry {
	return New(DefaultMaxDecompressedSize, Identity(), XZ(), Gzip(), Zstd(), LZ4())
}

// WithMaxSize returns a copy of r with a different output cap.
func (r *Registry) WithMaxSize(maxSize int64) *Registry {
	codecs := make([]Codec, 0, len(r.codecs))
	for _, k := range r.Kinds() {
		codecs = append(codecs, r.codecs[k])
	}
	return New(maxSize, codecs...)
}

// MaxSize returns the output cap in bytes.
func (r *Registry) MaxSize() int64 {
	return r.maxSize
}

// Kinds returns the registered codec kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.codecs))
	for k := range r.codecs {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Lookup returns the codec registered for kind.
func (r *Registry) Lookup(kind Kind) (Codec, bool) {
	c, ok := r.codecs[kind]
	return c, ok
}

// Extensions returns every extension the registry can decode, without leading dots.
func (r *Registry) Extensions() []string {
	var exts []string
	for _, k := range r.Kinds() {
		exts = append(exts, r.codecs[k].Extensions()...)
	}
	return exts
}

// ForExtension returns the codec handling ext. ext may carry a leading dot.
func (r *Registry) ForExtension(ext string) (Codec, bool) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, k := range r.Kinds() {
		c := r.codecs[k]
		for _, e := range c.Extensions() {
			if e == ext {
				return c, true
			}
		}
	}
	return nil, false
}

// Sniff returns the codec whose magic prefixes raw.
func (r *Registry) Sniff(raw []byte) (Codec, bool) {
	for _, k := range r.Kinds() {
		c := r.codecs[k]
		if m := c.Magic(); len(m) > 0 && bytes.HasPrefix(raw, m) {
			return c, true
		}
	}
	return nil, false
}

// Select picks the codec for the file called name holding raw.
// Leading magic wins over the extension so renamed files still decode.
func (r *Registry) Select(name string, raw []byte) (Codec, error) {
	if c, ok := r.Sniff(raw); ok {
		return c, nil
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	for _, f := range unsupportedFormats {
		if bytes.HasPrefix(raw, f.magic) || (ext != "" && ext == f.extension) {
			return nil, NewUnsupportedFormatError(name, f.name)
		}
	}

	if c, ok := r.ForExtension(ext); ok {
		return c, nil
	}

	return nil, NewUnsupportedCompressionError(name)
}

// Decompress returns the decoded contents of the file called name. name may be empty, in which
// case only the leading magic is used.
func (r *Registry) Decompress(name string, raw []byte) ([]byte, error) {
	c, err := r.Select(name, raw)
	if err != nil {
		return nil, err
	}

	out, err := c.Decompress(raw, r.maxSize)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			return nil, NewSizeLimitError(name, c.Kind(), r.maxSize)
		}
		return nil, NewDecompressionFailedError(err, name, c.Kind())
	}

	return out, nil
}
