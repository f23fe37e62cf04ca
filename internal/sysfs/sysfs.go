// SPDX-License-Identifier: Apache-2.0

// Package sysfs reads attribute trees exposed by the kernel, such as /sys and /proc.
//
// Errors are returned as produced by the underlying afero.Fs so callers can tell a missing
// attribute (fs.ErrNotExist) from an unreadable one (fs.ErrPermission).
package sysfs

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const (
	DefaultSysRoot  = "/sys"
	DefaultProcRoot = "/proc"
)

// ErrNotLink is returned by Readlink when the filesystem cannot resolve symbolic links.
var ErrNotLink = errors.New("filesystem does not support symbolic links")

// Tree is a read-only view of a kernel attribute tree rooted at a directory.
type Tree struct {
	fs   afero.Fs
	root string
}

// New returns a Tree over root on fsys. A nil fsys means the host filesystem.
func New(fsys afero.Fs, root string) *Tree {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Tree{fs: fsys, root: root}
}

// Fs returns the underlying filesystem.
func (t *Tree) Fs() afero.Fs {
	return t.fs
}

// Path joins elem onto the tree root.
func (t *Tree) Path(elem ...string) string {
	return filepath.Join(append([]string{t.root}, elem...)...)
}

// IsDir reports whether elem names a directory. A missing entry is not an error.
func (t *Tree) IsDir(elem ...string) (bool, error) {
	info, err := t.fs.Stat(t.Path(elem...))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// ReadString returns the attribute text with surrounding whitespace trimmed.
func (t *Tree) ReadString(elem ...string) (string, error) {
	data, err := afero.ReadFile(t.fs, t.Path(elem...))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// ReadLine returns the attribute text with only the trailing newline removed.
func (t *Tree) ReadLine(elem ...string) (string, error) {
	data, err := afero.ReadFile(t.fs, t.Path(elem...))
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// ReadUint parses the attribute as an unsigned decimal of the given bit size.
func (t *Tree) ReadUint(bitSize int, elem ...string) (uint64, error) {
	s, err := t.ReadString(elem...)
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(s, 10, bitSize)
}

// List returns the names of the entries in a directory, sorted by name.
func (t *Tree) List(elem ...string) ([]string, error) {
	entries, err := afero.ReadDir(t.fs, t.Path(elem...))
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// ListDirs is List restricted to entries that are directories or links to directories.
func (t *Tree) ListDirs(elem ...string) ([]string, error) {
	names, err := t.List(elem...)
	if err != nil {
		return nil, err
	}

	dirs := names[:0]
	for _, name := range names {
		ok, err := t.IsDir(append(append([]string{}, elem...), name)...)
		if err != nil || !ok {
			// entries can vanish while the directory is scanned
			continue
		}
		dirs = append(dirs, name)
	}
	return dirs, nil
}

// Readlink returns the target of a symbolic link.
func (t *Tree) Readlink(elem ...string) (string, error) {
	lr, ok := t.fs.(afero.LinkReader)
	if !ok {
		return "", ErrNotLink
	}
	return lr.ReadlinkIfPossible(t.Path(elem...))
}
