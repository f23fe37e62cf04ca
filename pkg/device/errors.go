// SPDX-License-Identifier: Apache-2.0

package device

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace  = errorx.NewNamespace("device")
	EnumerationError = ErrorsNamespace.NewType("enumeration_failed")
	NoModuleError    = ErrorsNamespace.NewType("no_module", errorx.NotFound())

	classProperty  = errorx.RegisterPrintableProperty("class")
	deviceProperty = errorx.RegisterPrintableProperty("device")
)

const (
	enumerationErrorMsg = "failed to enumerate '%s' devices"
	noModuleErrorMsg    = "device '%s' is not driven by a loadable module"
)

func NewEnumerationError(cause error, class string) *errorx.Error {
	return EnumerationError.New(enumerationErrorMsg, class).
		WithProperty(classProperty, class).
		WithUnderlyingErrors(cause)
}

func NewNoModuleError(device string) *errorx.Error {
	return NoModuleError.New(noModuleErrorMsg, device).
		WithProperty(deviceProperty, device)
}
