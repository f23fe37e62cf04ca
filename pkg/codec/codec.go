// SPDX-License-Identifier: Apache-2.0

// Package codec selects and runs the decompression transform for kernel module files.
//
// Kernel build systems may ship modules uncompressed (.ko) or compressed with xz, gzip, zstd
// (and lz4 in some initramfs trees). Each format is a Codec strategy keyed by a Kind tag; a
// Registry holds the set available at runtime so callers and tests can discover it.
package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	xzenc "github.com/ulikunitz/xz"
	"github.com/xi2/xz"
)

// Kind identifies a compression format.
type Kind uint8

const (
	KindIdentity Kind = iota
	KindXZ
	KindGzip
	KindZstd
	KindLZ4
)

// String returns the human-readable name of a codec kind.
func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "none"
	case KindXZ:
		return "xz"
	case KindGzip:
		return "gzip"
	case KindZstd:
		return "zstd"
	case KindLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Codec decodes one compression format.
type Codec interface {
	Kind() Kind
	// Extensions lists file extensions without the leading dot, e.g. "zst".
	Extensions() []string
	// Magic is the leading byte signature of an encoded stream.
	Magic() []byte
	// Decompress decodes raw and fails once the output grows past limit bytes.
	Decompress(raw []byte, limit int64) ([]byte, error)
}

// Compressor is implemented by codecs that can also encode.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

var (
	elfMagic  = []byte{0x7f, 'E', 'L', 'F'}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// errTooLarge is returned by readLimited when the decoded stream exceeds its limit.
var errTooLarge = fmt.Errorf("decompressed data exceeds size limit")

// readLimited reads r until EOF, failing with errTooLarge past limit bytes.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}

	if int64(len(data)) > limit {
		return nil, errTooLarge
	}

	return data, nil
}

type identityCodec struct{}

// Identity returns the pass-through codec for uncompressed objects.
func Identity() Codec { return identityCodec{} }

func (identityCodec) Kind() Kind           { return KindIdentity }
func (identityCodec) Extensions() []string { return []string{"ko"} }
func (identityCodec) Magic() []byte        { return elfMagic }

func (identityCodec) Decompress(raw []byte, limit int64) ([]byte, error) {
	if limit > 0 && int64(len(raw)) > limit {
		return nil, errTooLarge
	}
	return raw, nil
}

func (identityCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

type xzCodec struct{}

// xzDictCap matches the kernel's "xz --check=crc32 --lzma2=dict=1MiB" module compression.
const xzDictCap = 1 << 20

// XZ returns the xz (LZMA2) codec.
func XZ() Codec { return xzCodec{} }

func (xzCodec) Kind() Kind           { return KindXZ }
func (xzCodec) Extensions() []string { return []string{"xz"} }
func (xzCodec) Magic() []byte        { return xzMagic }

func (xzCodec) Decompress(raw []byte, limit int64) ([]byte, error) {
	// zero selects xz.DefaultDictMax
	r, err := xz.NewReader(bytes.NewReader(raw), 0)
	if err != nil {
		return nil, err
	}
	return readLimited(r, limit)
}

func (xzCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xzenc.WriterConfig{DictCap: xzDictCap, CheckSum: xzenc.CRC32}.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type gzipCodec struct{}

// Gzip returns the DEFLATE/gzip codec.
func Gzip() Codec { return gzipCodec{} }

func (gzipCodec) Kind() Kind           { return KindGzip }
func (gzipCodec) Extensions() []string { return []string{"gz"} }
func (gzipCodec) Magic() []byte        { return gzipMagic }

func (gzipCodec) Decompress(raw []byte, limit int64) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return readLimited(r, limit)
}

func (gzipCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type zstdCodec struct{}

// Zstd returns the zstd codec.
func Zstd() Codec { return zstdCodec{} }

func (zstdCodec) Kind() Kind           { return KindZstd }
func (zstdCodec) Extensions() []string { return []string{"zst", "zstd"} }
func (zstdCodec) Magic() []byte        { return zstdMagic }

func (zstdCodec) Decompress(raw []byte, limit int64) ([]byte, error) {
	opts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
	if limit > 0 {
		opts = append(opts, zstd.WithDecoderMaxMemory(uint64(limit)))
	}

	d, err := zstd.NewReader(bytes.NewReader(raw), opts...)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	return readLimited(d, limit)
}

func (zstdCodec) Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()

	return enc.EncodeAll(data, nil), nil
}

type lz4Codec struct{}

// LZ4 returns the lz4 frame codec.
func LZ4() Codec { return lz4Codec{} }

func (lz4Codec) Kind() Kind           { return KindLZ4 }
func (lz4Codec) Extensions() []string { return []string{"lz4"} }
func (lz4Codec) Magic() []byte        { return lz4Magic }

func (lz4Codec) Decompress(raw []byte, limit int64) ([]byte, error) {
	return readLimited(lz4.NewReader(bytes.NewReader(raw)), limit)
}

func (lz4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
