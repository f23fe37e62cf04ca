// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"bufio"
	"errors"
	"io/fs"
	"sort"
	"strings"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/internal/sysfs"
	"github.com/joomcode/errorx"
)

// Status is the lifecycle state the kernel reports in /sys/module/<name>/initstate.
type Status int

const (
	StatusUnknown Status = iota
	StatusLive
	StatusComing
	StatusGoing
)

// ParseStatus maps an initstate token to a Status. Unrecognised tokens are StatusUnknown.
func ParseStatus(token string) Status {
	switch strings.TrimSpace(token) {
	case "live":
		return StatusLive
	case "coming":
		return StatusComing
	case "going":
		return StatusGoing
	default:
		return StatusUnknown
	}
}

func (s Status) String() string {
	switch s {
	case StatusLive:
		return "live"
	case StatusComing:
		return "coming"
	case StatusGoing:
		return "going"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var taintReasons = map[rune]string{
	'P': "proprietary module",
	'O': "out-of-tree module",
	'F': "force loaded",
	'C': "staging driver",
	'E': "unsigned module",
	'K': "live patched",
	'X': "auxiliary module",
	'T': "built with struct randomization",
	'N': "test module",
}

// LoadedModule is a snapshot of one module as published by the running kernel.
// Fields the kernel did not expose, or that could not be read, are nil.
type LoadedModule struct {
	Name string `yaml:"name" json:"name"`
	Path string `yaml:"path" json:"path"`
	// Builtin is set for modules compiled into the kernel, which have no coresize attribute.
	Builtin    bool     `yaml:"builtin" json:"builtin"`
	Status     Status   `yaml:"status" json:"status"`
	StatusText string   `yaml:"statusText,omitempty" json:"statusText,omitempty"`
	RefCount   *uint32  `yaml:"refCount,omitempty" json:"refCount,omitempty"`
	Holders    []string `yaml:"holders" json:"holders"`
	// Params maps every exposed parameter to its value, nil when the value was unreadable.
	Params         map[string]*string `yaml:"params" json:"params"`
	Taint          *string            `yaml:"taint,omitempty" json:"taint,omitempty"`
	CoreSize       *uint64            `yaml:"coreSize,omitempty" json:"coreSize,omitempty"`
	InitSize       *uint64            `yaml:"initSize,omitempty" json:"initSize,omitempty"`
	Version        *string            `yaml:"version,omitempty" json:"version,omitempty"`
	SourceChecksum *string            `yaml:"srcversion,omitempty" json:"srcversion,omitempty"`
	File           *ModuleFile        `yaml:"-" json:"-"`
}

// TaintReasons describes each taint flag of the module.
func (m *LoadedModule) TaintReasons() []string {
	if m.Taint == nil {
		return nil
	}

	var reasons []string
	for _, flag := range *m.Taint {
		if reason, ok := taintReasons[flag]; ok {
			reasons = append(reasons, reason)
		} else {
			reasons = append(reasons, "unknown taint '"+string(flag)+"'")
		}
	}
	return reasons
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithSysfs sets the tree holding the module/ directory, normally /sys.
func WithSysfs(tree *sysfs.Tree) ReaderOption {
	return func(r *Reader) {
		if tree != nil {
			r.sys = tree
		}
	}
}

// WithProcfs sets the tree holding the modules file, normally /proc.
func WithProcfs(tree *sysfs.Tree) ReaderOption {
	return func(r *Reader) {
		if tree != nil {
			r.proc = tree
		}
	}
}

// WithFileResolver sets how loaded modules are linked to their module files.
func WithFileResolver(files FileResolver) ReaderOption {
	return func(r *Reader) {
		if files != nil {
			r.files = files
		}
	}
}

// Reader builds LoadedModule values from the live kernel module tree.
// Every call reads the tree afresh; nothing is cached.
type Reader struct {
	sys   *sysfs.Tree
	proc  *sysfs.Tree
	files FileResolver
}

// NewReader returns a Reader over /sys and /proc unless overridden. Without WithFileResolver,
// module files are looked up under /lib/modules on the sysfs tree's filesystem, for the release
// named by sys/kernel/osrelease in the procfs tree. On the real filesystem that release comes
// from sysctl, falling back to uname(2).
func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{}

	for _, opt := range opts {
		opt(r)
	}

	if r.sys == nil {
		r.sys = sysfs.New(nil, sysfs.DefaultSysRoot)
	}
	if r.proc == nil {
		r.proc = sysfs.New(r.sys.Fs(), sysfs.DefaultProcRoot)
	}
	if r.files == nil {
		r.files = NewLocator(WithFs(r.sys.Fs()), WithReleaseResolver(releaseResolverFor(r.proc)))
	}

	return r
}

// Get reads the loaded module called name. Only a missing module directory fails the call;
// every other attribute degrades to nil on its own.
func (r *Reader) Get(name string) (*LoadedModule, error) {
	return r.read(name, true)
}

// List reads every module in the live tree, built-in modules included, ordered by name.
// Modules that disappear during the scan are skipped. Module files are not resolved.
func (r *Reader) List() ([]*LoadedModule, error) {
	names, err := r.sys.ListDirs("module")
	if err != nil {
		return nil, newFileError(err, r.sys.Path("module"))
	}

	modules := make([]*LoadedModule, 0, len(names))
	for _, name := range names {
		m, err := r.read(name, false)
		if err != nil {
			if errorx.IsOfType(err, ModuleNotFoundError) {
				continue
			}
			return nil, err
		}
		modules = append(modules, m)
	}

	return modules, nil
}

func (r *Reader) read(name string, resolveFile bool) (*LoadedModule, error) {
	norm := NormalizeName(name)
	path := r.sys.Path("module", norm)

	if norm == "" || strings.ContainsRune(norm, '/') || norm == "." || norm == ".." {
		return nil, NewLoadedModuleNotFoundError(name, path)
	}

	ok, err := r.sys.IsDir("module", norm)
	if err != nil {
		return nil, newFileError(err, path).WithProperty(moduleProperty, name)
	}
	if !ok {
		return nil, NewLoadedModuleNotFoundError(name, path)
	}

	m := &LoadedModule{
		Name:   norm,
		Path:   path,
		Params: map[string]*string{},
	}

	if token, err := r.sys.ReadString("module", norm, "initstate"); err == nil {
		m.Status = ParseStatus(token)
		m.StatusText = token
	} else {
		r.degraded(norm, "initstate", err)
	}

	if n, err := r.sys.ReadUint(32, "module", norm, "refcnt"); err == nil {
		v := uint32(n)
		m.RefCount = &v
	} else {
		r.degraded(norm, "refcnt", err)
	}

	if n, err := r.sys.ReadUint(64, "module", norm, "coresize"); err == nil {
		m.CoreSize = &n
	} else {
		m.Builtin = errors.Is(err, fs.ErrNotExist)
		if !m.Builtin {
			r.degraded(norm, "coresize", err)
		}
	}

	if n, err := r.sys.ReadUint(64, "module", norm, "initsize"); err == nil {
		m.InitSize = &n
	}

	m.Taint = r.optionalString(norm, "taint")
	m.Version = r.optionalString(norm, "version")
	m.SourceChecksum = r.optionalString(norm, "srcversion")
	m.Holders = r.holders(norm)
	r.readParams(m)

	if resolveFile {
		m.File = r.resolveFile(norm)
	}

	return m, nil
}

func (r *Reader) optionalString(name string, attr string) *string {
	v, err := r.sys.ReadString("module", name, attr)
	if err != nil {
		r.degraded(name, attr, err)
		return nil
	}
	return &v
}

func (r *Reader) holders(name string) []string {
	holders, err := r.sys.List("module", name, "holders")
	if err == nil {
		return holders
	}

	r.degraded(name, "holders", err)

	holders, err = r.procHolders(name)
	if err != nil {
		r.degraded(name, "holders", err)
		return []string{}
	}
	return holders
}

// procHolders reads the dependents column of /proc/modules:
//
//	name size refcount holder1,holder2, state address
func (r *Reader) procHolders(name string) ([]string, error) {
	f, err := r.proc.Fs().Open(r.proc.Path("modules"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	holders := []string{}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] != name {
			continue
		}

		for _, h := range strings.Split(fields[3], ",") {
			if h != "" && h != "-" {
				holders = append(holders, h)
			}
		}
		break
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return holders, nil
}

func (r *Reader) readParams(m *LoadedModule) {
	names, err := r.sys.List("module", m.Name, "parameters")
	if err != nil {
		r.degraded(m.Name, "parameters", err)
		return
	}

	sort.Strings(names)
	for _, param := range names {
		v, err := r.sys.ReadLine("module", m.Name, "parameters", param)
		if err != nil {
			r.degraded(m.Name, "parameters/"+param, err)
			m.Params[param] = nil
			continue
		}
		m.Params[param] = &v
	}
}

func (r *Reader) resolveFile(name string) *ModuleFile {
	file, err := r.files.FromName(name)
	if err != nil {
		logx.As().Debug().Err(err).Str("module", name).Msg("Loaded module has no resolvable module file")
		return nil
	}
	return file
}

func (r *Reader) degraded(name string, attr string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	logx.As().Debug().Err(err).Str("module", name).Str("attribute", attr).Msg("Skipping unreadable module attribute")
}
