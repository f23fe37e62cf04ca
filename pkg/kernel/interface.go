// SPDX-License-Identifier: Apache-2.0

package kernel

// FileResolver resolves a module name to its on-disk module file.
// Locator is the production implementation; Reader depends only on this interface.
type FileResolver interface {
	FromName(name string) (*ModuleFile, error)
}

// ReleaseResolver reports the kernel release used when no release is given explicitly.
type ReleaseResolver interface {
	Release() (string, error)
}

// ModuleReader reads the live state of loaded modules.
type ModuleReader interface {
	Get(name string) (*LoadedModule, error)
	List() ([]*LoadedModule, error)
}
