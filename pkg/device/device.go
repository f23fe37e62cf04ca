// SPDX-License-Identifier: Apache-2.0

// Package device enumerates system devices and links each one to the kernel module that drives it.
package device

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/internal/sysfs"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/jaypipes/ghw"
)

const ClassBlock = "block"

var once sync.Once

func suppressGHWWarnings() {
	once.Do(func() {
		os.Setenv("GHW_DISABLE_WARNINGS", "1")
	})
}

// Device is one device node and the driver bound to it.
type Device struct {
	Name  string `yaml:"name" json:"name"`
	Class string `yaml:"class" json:"class"`
	// Driver is empty for virtual devices with no bound driver.
	Driver string `yaml:"driver,omitempty" json:"driver,omitempty"`
	// Module is empty when the driver is built into the kernel.
	Module    string `yaml:"module,omitempty" json:"module,omitempty"`
	Vendor    string `yaml:"vendor,omitempty" json:"vendor,omitempty"`
	Model     string `yaml:"model,omitempty" json:"model,omitempty"`
	DriveType string `yaml:"driveType,omitempty" json:"driveType,omitempty"`
	SizeBytes uint64 `yaml:"sizeBytes,omitempty" json:"sizeBytes,omitempty"`
	Removable bool   `yaml:"removable,omitempty" json:"removable,omitempty"`
}

// Loaded reads the live state of the module driving d.
func (d Device) Loaded(r kernel.ModuleReader) (*kernel.LoadedModule, error) {
	if d.Module == "" {
		return nil, NewNoModuleError(d.Name)
	}
	return r.Get(d.Module)
}

// Lister enumerates devices.
type Lister interface {
	// BlockDevices lists disks with their drive metadata.
	BlockDevices() ([]Device, error)
	// ClassDevices lists every device registered under /sys/class/<class>.
	ClassDevices(class string) ([]Device, error)
}

// diskSource lists the disks described by the sysfs tree rooted at sysRoot.
type diskSource func(sysRoot string) ([]*ghw.Disk, error)

// ghwDisks reads the real filesystem; a sysfs tree on another afero backend is not visible to ghw.
func ghwDisks(sysRoot string) ([]*ghw.Disk, error) {
	suppressGHWWarnings()

	block, err := ghw.Block(ghw.WithPathOverrides(map[string]string{"/sys": sysRoot}))
	if err != nil {
		return nil, err
	}
	return block.Disks, nil
}

// Option configures the Lister returned by NewLister.
type Option func(*lister)

// WithSysfs sets the tree disks are listed from and driver links are resolved in, normally /sys.
func WithSysfs(tree *sysfs.Tree) Option {
	return func(l *lister) {
		if tree != nil {
			l.sys = tree
		}
	}
}

func withDisks(disks diskSource) Option {
	return func(l *lister) {
		l.disks = disks
	}
}

type lister struct {
	sys   *sysfs.Tree
	disks diskSource
}

func NewLister(opts ...Option) Lister {
	l := &lister{
		sys:   sysfs.New(nil, sysfs.DefaultSysRoot),
		disks: ghwDisks,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *lister) BlockDevices() ([]Device, error) {
	disks, err := l.disks(l.sys.Path())
	if err != nil {
		return nil, NewEnumerationError(err, ClassBlock)
	}

	devices := make([]Device, 0, len(disks))
	for _, disk := range disks {
		d := Device{
			Name:      disk.Name,
			Class:     ClassBlock,
			Vendor:    disk.Vendor,
			Model:     disk.Model,
			DriveType: disk.DriveType.String(),
			SizeBytes: disk.SizeBytes,
			Removable: disk.IsRemovable,
		}
		d.Driver, d.Module = l.driverOf(ClassBlock, disk.Name)
		devices = append(devices, d)
	}

	return devices, nil
}

func (l *lister) ClassDevices(class string) ([]Device, error) {
	names, err := l.sys.List("class", class)
	if err != nil {
		return nil, NewEnumerationError(err, class)
	}

	devices := make([]Device, 0, len(names))
	for _, name := range names {
		d := Device{Name: name, Class: class}
		d.Driver, d.Module = l.driverOf(class, name)
		devices = append(devices, d)
	}

	return devices, nil
}

// driverOf follows /sys/class/<class>/<name>/device/driver, and the parent device for
// devices such as NVMe namespaces whose driver is bound one level up.
func (l *lister) driverOf(class string, name string) (string, string) {
	for _, parent := range [][]string{{"device"}, {"device", "device"}} {
		elem := append([]string{"class", class, name}, parent...)

		driver, err := l.sys.Readlink(append(elem, "driver")...)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logx.As().Debug().Err(err).Str("device", name).Msg("Failed to resolve device driver")
			}
			continue
		}

		module, err := l.sys.Readlink(append(elem, "driver", "module")...)
		if err != nil {
			return filepath.Base(driver), ""
		}
		return filepath.Base(driver), filepath.Base(module)
	}

	return "", ""
}
