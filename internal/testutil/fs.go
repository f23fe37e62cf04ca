// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DenyFs wraps an afero.Fs and fails opens of selected paths with a permission error,
// the way root-only sysfs attributes behave for unprivileged readers.
type DenyFs struct {
	afero.Fs
	denied map[string]struct{}
}

// NewDenyFs returns fsys with every path in denied unreadable.
func NewDenyFs(fsys afero.Fs, denied ...string) *DenyFs {
	d := &DenyFs{Fs: fsys, denied: map[string]struct{}{}}
	for _, p := range denied {
		d.denied[filepath.Clean(p)] = struct{}{}
	}
	return d
}

func (d *DenyFs) Open(name string) (afero.File, error) {
	if err := d.check("open", name); err != nil {
		return nil, err
	}
	return d.Fs.Open(name)
}

func (d *DenyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := d.check("open", name); err != nil {
		return nil, err
	}
	return d.Fs.OpenFile(name, flag, perm)
}

func (d *DenyFs) check(op string, name string) error {
	if _, ok := d.denied[filepath.Clean(name)]; ok {
		return &os.PathError{Op: op, Path: name, Err: os.ErrPermission}
	}
	return nil
}

// WriteFiles creates each path with its content on fsys, creating parent directories.
func WriteFiles(fsys afero.Fs, files map[string]string) error {
	for p, content := range files {
		if err := fsys.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return err
		}
		if err := afero.WriteFile(fsys, p, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}
