// SPDX-License-Identifier: Apache-2.0

package common

import (
	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/internal/sysfs"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/hashgraph/kmodinfo/pkg/device"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// ApplyOverrides copies explicitly set command-line flags over the loaded configuration.
func ApplyOverrides(cmd *cobra.Command) error {
	if f := cmd.Flags().Lookup(FlagMaxSize.Name); f == nil || !f.Changed {
		return nil
	}

	maxSize, err := FlagMaxSize.Value(cmd, nil)
	if err != nil {
		return err
	}

	cfg := config.Get()
	cfg.Decompress.MaxSize = maxSize
	return config.Set(&cfg)
}

// Locator builds a module locator over the configured module root and decompression limit.
func Locator() *kernel.Locator {
	cfg := config.Get()
	return kernel.NewLocator(
		kernel.WithFs(afero.NewOsFs()),
		kernel.WithModuleRoot(cfg.Paths.ModuleRoot),
		kernel.WithRegistry(codec.Default().WithMaxSize(cfg.Decompress.MaxSize)),
		kernel.WithReleaseResolver(kernel.NewReleaseResolverAt(cfg.Paths.ProcRoot)),
	)
}

// Reader builds a live module reader over the configured sysfs and procfs roots.
func Reader() *kernel.Reader {
	cfg := config.Get()
	fsys := afero.NewOsFs()
	return kernel.NewReader(
		kernel.WithSysfs(sysfs.New(fsys, cfg.Paths.SysfsRoot)),
		kernel.WithProcfs(sysfs.New(fsys, cfg.Paths.ProcRoot)),
		kernel.WithFileResolver(Locator()),
	)
}

// Devices builds a device lister over the configured sysfs root.
func Devices() device.Lister {
	cfg := config.Get()
	return device.NewLister(device.WithSysfs(sysfs.New(afero.NewOsFs(), cfg.Paths.SysfsRoot)))
}
