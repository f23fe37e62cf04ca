// SPDX-License-Identifier: Apache-2.0

package kernel

import (
	"errors"
	"io/fs"

	"github.com/joomcode/errorx"
)

var (
	ErrorsNamespace       = errorx.NewNamespace("kernel")
	ModuleNotFoundError   = ErrorsNamespace.NewType("module_not_found", errorx.NotFound())
	BuiltinModuleError    = ErrorsNamespace.NewType("builtin_module", errorx.NotFound())
	PermissionDeniedError = ErrorsNamespace.NewType("permission_denied")
	IOError               = ErrorsNamespace.NewType("io_error")

	moduleProperty  = errorx.RegisterPrintableProperty("module")
	pathProperty    = errorx.RegisterPrintableProperty("path")
	releaseProperty = errorx.RegisterPrintableProperty("release")
)

const (
	moduleNotFoundErrorMsg   = "kernel module '%s' not found for release '%s'"
	loadedNotFoundErrorMsg   = "kernel module '%s' is not loaded"
	builtinModuleErrorMsg    = "kernel module '%s' is built into release '%s' and has no module file"
	permissionDeniedErrorMsg = "permission denied reading '%s'"
	ioErrorMsg               = "failed to read '%s'"
	releaseErrorMsg          = "failed to determine the running kernel release"
)

func NewModuleNotFoundError(name string, release string) *errorx.Error {
	return ModuleNotFoundError.New(moduleNotFoundErrorMsg, name, release).
		WithProperty(moduleProperty, name).
		WithProperty(releaseProperty, release)
}

// NewLoadedModuleNotFoundError reports a module that has no directory in the live module tree.
func NewLoadedModuleNotFoundError(name string, path string) *errorx.Error {
	return ModuleNotFoundError.New(loadedNotFoundErrorMsg, name).
		WithProperty(moduleProperty, name).
		WithProperty(pathProperty, path)
}

func NewBuiltinModuleError(name string, release string) *errorx.Error {
	return BuiltinModuleError.New(builtinModuleErrorMsg, name, release).
		WithProperty(moduleProperty, name).
		WithProperty(releaseProperty, release)
}

func NewPermissionDeniedError(cause error, path string) *errorx.Error {
	return PermissionDeniedError.New(permissionDeniedErrorMsg, path).
		WithProperty(pathProperty, path).
		WithUnderlyingErrors(cause)
}

func NewIOError(cause error, path string) *errorx.Error {
	err := IOError.New(ioErrorMsg, path).
		WithProperty(pathProperty, path)

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}

func NewReleaseError(cause error) *errorx.Error {
	return IOError.New(releaseErrorMsg).WithUnderlyingErrors(cause)
}

// newFileError classifies a filesystem error into PermissionDenied or IOError.
func newFileError(cause error, path string) *errorx.Error {
	if errors.Is(cause, fs.ErrPermission) {
		return NewPermissionDeniedError(cause, path)
	}
	return NewIOError(cause, path)
}
