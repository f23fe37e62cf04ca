// SPDX-License-Identifier: Apache-2.0

package kobj

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace          = errorx.NewNamespace("kobj")
	InvalidObjectFormatError = ErrorsNamespace.NewType("invalid_object_format")
	MissingSectionError      = ErrorsNamespace.NewType("missing_section")

	reasonProperty  = errorx.RegisterPrintableProperty("reason")
	sectionProperty = errorx.RegisterPrintableProperty("section")
)

const (
	invalidObjectFormatErrorMsg = "invalid kernel module object: %s"
	missingSectionErrorMsg      = "kernel module object has no '%s' section"
)

func NewInvalidObjectFormatError(cause error, reason string) *errorx.Error {
	err := InvalidObjectFormatError.New(invalidObjectFormatErrorMsg, reason).
		WithProperty(reasonProperty, reason)

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}

func NewMissingSectionError(section string) *errorx.Error {
	return MissingSectionError.New(missingSectionErrorMsg, section).
		WithProperty(sectionProperty, section)
}
