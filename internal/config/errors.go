// SPDX-License-Identifier: Apache-2.0

package config

import "github.com/joomcode/errorx"

var (
	ErrNamespace      = errorx.NewNamespace("config")
	NotFoundError     = ErrNamespace.NewType("not_found", errorx.NotFound())
	InvalidValueError = ErrNamespace.NewType("invalid_value")

	KeyProperty = errorx.RegisterPrintableProperty("key")
)

// NewInvalidValueError reports a configuration key holding an unusable value.
func NewInvalidValueError(key string, format string, args ...any) *errorx.Error {
	return InvalidValueError.New(format, args...).WithProperty(KeyProperty, key)
}
