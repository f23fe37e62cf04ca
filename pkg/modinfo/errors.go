// SPDX-License-Identifier: Apache-2.0

package modinfo

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace          = errorx.NewNamespace("modinfo")
	MalformedModuleInfoError = ErrorsNamespace.NewType("malformed_module_info")

	recordProperty = errorx.RegisterPrintableProperty("record")
	reasonProperty = errorx.RegisterPrintableProperty("reason")
)

const malformedModuleInfoErrorMsg = "malformed module information record %d: %s"

func NewMalformedModuleInfoError(record int, reason string) *errorx.Error {
	return MalformedModuleInfoError.New(malformedModuleInfoErrorMsg, record, reason).
		WithProperty(recordProperty, record).
		WithProperty(reasonProperty, reason)
}
