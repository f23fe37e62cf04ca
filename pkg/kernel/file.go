// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"sync"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/hashgraph/kmodinfo/pkg/kobj"
	"github.com/hashgraph/kmodinfo/pkg/modinfo"
	"github.com/spf13/afero"
)

// ModuleFile is one module object on disk, compressed or not.
//
// Nothing is read until Info, Signature or Compression is called. The first successful parse is
// kept; a failed parse is retried on the next call.
type ModuleFile struct {
	name     string
	path     string
	release  string
	fs       afero.Fs
	registry *codec.Registry

	mu     sync.Mutex
	parsed *parsedFile
}

type parsedFile struct {
	compression codec.Kind
	info        *modinfo.ModInfo
	signature   *kobj.Signature
}

func newModuleFile(fsys afero.Fs, registry *codec.Registry, name string, path string, release string) *ModuleFile {
	return &ModuleFile{
		name:     name,
		path:     path,
		release:  release,
		fs:       fsys,
		registry: registry,
	}
}

// Name is the module name the file was located by.
func (f *ModuleFile) Name() string {
	return f.name
}

func (f *ModuleFile) Path() string {
	return f.path
}

// Release is the kernel release directory the file belongs to. It is empty for files opened
// by path.
func (f *ModuleFile) Release() string {
	return f.release
}

// Compression reports the codec the file is stored with.
func (f *ModuleFile) Compression() (codec.Kind, error) {
	p, err := f.load()
	if err != nil {
		return 0, err
	}
	return p.compression, nil
}

// Info returns the parsed module information.
func (f *ModuleFile) Info() (*modinfo.ModInfo, error) {
	p, err := f.load()
	if err != nil {
		return nil, err
	}
	return p.info, nil
}

// Signature returns the appended module signature, or nil when the module is unsigned.
func (f *ModuleFile) Signature() (*kobj.Signature, error) {
	p, err := f.load()
	if err != nil {
		return nil, err
	}
	return p.signature, nil
}

// Signed reports whether the module carries an appended signature.
func (f *ModuleFile) Signed() (bool, error) {
	sig, err := f.Signature()
	if err != nil {
		return false, err
	}
	return sig != nil, nil
}

func (f *ModuleFile) load() (*parsedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.parsed != nil {
		return f.parsed, nil
	}

	raw, err := afero.ReadFile(f.fs, f.path)
	if err != nil {
		return nil, newFileError(err, f.path).WithProperty(moduleProperty, f.name)
	}

	c, err := f.registry.Select(f.path, raw)
	if err != nil {
		return nil, err
	}

	img, err := f.registry.Decompress(f.path, raw)
	if err != nil {
		return nil, err
	}

	obj, err := kobj.Read(img)
	if err != nil {
		return nil, err
	}

	info, err := modinfo.Parse(obj.ModInfo)
	if err != nil {
		return nil, err
	}

	logx.As().Debug().
		Str("module", f.name).
		Str("path", f.path).
		Str("compression", c.Kind().String()).
		Bool("signed", obj.Signed()).
		Msg("Parsed kernel module file")

	f.parsed = &parsedFile{
		compression: c.Kind(),
		info:        info,
		signature:   obj.Signature,
	}

	return f.parsed, nil
}
