// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/spf13/afero"
)

const (
	DefaultModuleRoot = "/lib/modules"
	// BuiltinListFile lists, one path per line, the modules compiled into a release.
	BuiltinListFile = "modules.builtin"

	objectExtension = ".ko"
)

var errFound = errors.New("module found")

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithFs sets the filesystem the module tree is read from.
func WithFs(fsys afero.Fs) LocatorOption {
	return func(l *Locator) {
		if fsys != nil {
			l.fs = fsys
		}
	}
}

// WithModuleRoot sets the directory holding one subdirectory per kernel release.
func WithModuleRoot(root string) LocatorOption {
	return func(l *Locator) {
		if root != "" {
			l.root = root
		}
	}
}

// WithRegistry sets the codecs used to recognise and decode compressed modules.
func WithRegistry(registry *codec.Registry) LocatorOption {
	return func(l *Locator) {
		if registry != nil {
			l.registry = registry
		}
	}
}

// WithReleaseResolver sets how FromName determines the running release.
func WithReleaseResolver(resolver ReleaseResolver) LocatorOption {
	return func(l *Locator) {
		if resolver != nil {
			l.releases = resolver
		}
	}
}

// Locator finds module files in a release keyed module tree such as /lib/modules.
type Locator struct {
	fs       afero.Fs
	root     string
	registry *codec.Registry
	releases ReleaseResolver
}

func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		fs:       afero.NewOsFs(),
		root:     DefaultModuleRoot,
		registry: codec.Default(),
		releases: NewReleaseResolver(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Locator) Root() string {
	return l.root
}

func (l *Locator) Registry() *codec.Registry {
	return l.registry
}

// FromName locates name in the tree of the running kernel release.
func (l *Locator) FromName(name string) (*ModuleFile, error) {
	release, err := l.releases.Release()
	if err != nil {
		return nil, err
	}
	return l.FromNameWithRelease(name, release)
}

// FromNameWithRelease locates name under <root>/<release>. Entries are visited in lexical order
// and the first file named <name>.ko or <name>.ko.<ext>, for a registered compression extension,
// wins. '-' and '_' are interchangeable in module names.
//
// A name with no file that is listed in modules.builtin yields a BuiltinModuleError, anything
// else a ModuleNotFoundError. Unreadable subdirectories are skipped.
func (l *Locator) FromNameWithRelease(name string, release string) (*ModuleFile, error) {
	if name == "" || strings.ContainsRune(name, '/') || release == "" || strings.ContainsRune(release, '/') {
		return nil, NewModuleNotFoundError(name, release)
	}

	dir := filepath.Join(l.root, release)
	info, err := l.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, NewModuleNotFoundError(name, release).WithProperty(pathProperty, dir)
		}
		return nil, newFileError(err, dir).WithProperty(releaseProperty, release)
	}
	if !info.IsDir() {
		return nil, NewModuleNotFoundError(name, release).WithProperty(pathProperty, dir)
	}

	want := NormalizeName(name)
	var found string

	err = afero.Walk(l.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			logx.As().Debug().Err(err).Str("path", path).Msg("Skipping unreadable entry in module tree")
			return nil
		}
		if info.IsDir() {
			return nil
		}

		stem, ok := l.moduleStem(info.Name())
		if !ok || NormalizeName(stem) != want {
			return nil
		}

		found = path
		return errFound
	})

	if err != nil && !errors.Is(err, errFound) {
		return nil, newFileError(err, dir).WithProperty(releaseProperty, release)
	}

	if found != "" {
		logx.As().Debug().Str("module", name).Str("path", found).Msg("Located kernel module file")
		return newModuleFile(l.fs, l.registry, name, found, release), nil
	}

	if l.isBuiltin(dir, want) {
		return nil, NewBuiltinModuleError(name, release)
	}

	return nil, NewModuleNotFoundError(name, release)
}

// FromPath opens the module file at path without searching.
func (l *Locator) FromPath(path string) (*ModuleFile, error) {
	info, err := l.fs.Stat(path)
	if err != nil {
		return nil, newFileError(err, path)
	}
	if info.IsDir() {
		return nil, NewIOError(nil, path)
	}

	name, ok := l.moduleStem(filepath.Base(path))
	if !ok {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return newModuleFile(l.fs, l.registry, name, path, ""), nil
}

// Releases returns the installed release directories, newest first.
func (l *Locator) Releases() ([]string, error) {
	entries, err := afero.ReadDir(l.fs, l.root)
	if err != nil {
		return nil, newFileError(err, l.root)
	}

	var releases []string
	for _, e := range entries {
		if !e.IsDir() {
			// a release may be a link to a directory elsewhere
			info, err := l.fs.Stat(filepath.Join(l.root, e.Name()))
			if err != nil || !info.IsDir() {
				continue
			}
		}
		releases = append(releases, e.Name())
	}

	SortReleases(releases)

	return releases, nil
}

// moduleStem returns the module name encoded in a file name such as e1000e.ko.zst.
func (l *Locator) moduleStem(base string) (string, bool) {
	if stem, ok := strings.CutSuffix(base, objectExtension); ok {
		return stem, stem != ""
	}

	i := strings.LastIndex(base, objectExtension+".")
	if i <= 0 {
		return "", false
	}

	ext := base[i+len(objectExtension)+1:]
	c, ok := l.registry.ForExtension(ext)
	if !ok || c.Kind() == codec.KindIdentity {
		return "", false
	}

	return base[:i], true
}

func (l *Locator) isBuiltin(dir string, want string) bool {
	path := filepath.Join(dir, BuiltinListFile)
	f, err := l.fs.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logx.As().Debug().Err(err).Str("path", path).Msg("Failed to open built-in module list")
		}
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if stem, ok := l.moduleStem(filepath.Base(line)); ok && NormalizeName(stem) == want {
			return true
		}
	}

	if err := scanner.Err(); err != nil {
		logx.As().Debug().Err(err).Str("path", path).Msg("Failed to read built-in module list")
	}

	return false
}

// NormalizeName maps a module name to the form the kernel uses, with '-' replaced by '_'.
func NormalizeName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

var leadingVersion = regexp.MustCompile(`^v?\d+(\.\d+){0,2}`)

// releaseVersion splits a release directory name such as 6.1.0-13-amd64 or
// 4.18.0-513.el8.x86_64 into its version and distribution suffix. The version is nil for names
// that do not start with one.
func releaseVersion(release string) (*semver.Version, string) {
	prefix := leadingVersion.FindString(release)
	if prefix == "" {
		return nil, ""
	}

	v, err := semver.NewVersion(prefix)
	if err != nil {
		return nil, ""
	}
	return v, strings.TrimLeft(release[len(prefix):], "-._+")
}

// compareSuffix orders distribution suffixes field by field, numerically where both fields are
// numbers. No suffix is newer than any suffix, as a final release is newer than its candidates.
func compareSuffix(a string, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}

	split := func(r rune) bool { return r == '-' || r == '.' || r == '_' || r == '+' }
	fa, fb := strings.FieldsFunc(a, split), strings.FieldsFunc(b, split)

	for i := 0; i < len(fa) && i < len(fb); i++ {
		na, errA := strconv.ParseUint(fa[i], 10, 64)
		nb, errB := strconv.ParseUint(fb[i], 10, 64)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na > nb {
					return 1
				}
				return -1
			}
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			if c := strings.Compare(fa[i], fb[i]); c != 0 {
				return c
			}
		}
	}

	switch {
	case len(fa) > len(fb):
		return 1
	case len(fa) < len(fb):
		return -1
	}
	return strings.Compare(a, b)
}

type releaseKey struct {
	version *semver.Version
	suffix  string
}

// SortReleases orders releases newest first. Names that do not start with a version sort after
// all versioned names, in descending lexical order.
func SortReleases(releases []string) {
	keys := make(map[string]releaseKey, len(releases))
	for _, r := range releases {
		v, suffix := releaseVersion(r)
		keys[r] = releaseKey{version: v, suffix: suffix}
	}

	sort.SliceStable(releases, func(i, j int) bool {
		ki, kj := keys[releases[i]], keys[releases[j]]
		switch {
		case ki.version != nil && kj.version != nil:
			if c := ki.version.Compare(kj.version); c != 0 {
				return c > 0
			}
			if c := compareSuffix(ki.suffix, kj.suffix); c != 0 {
				return c > 0
			}
		case ki.version != nil:
			return true
		case kj.version != nil:
			return false
		}
		return releases[i] > releases[j]
	})
}
