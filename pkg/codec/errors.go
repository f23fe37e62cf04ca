// SPDX-License-Identifier: Apache-2.0

package codec

import "github.com/joomcode/errorx"

var (
	ErrorsNamespace             = errorx.NewNamespace("codec")
	UnsupportedCompressionError = ErrorsNamespace.NewType("unsupported_compression")
	DecompressionFailedError    = ErrorsNamespace.NewType("decompression_failed")

	nameProperty  = errorx.RegisterPrintableProperty("name")
	codecProperty = errorx.RegisterPrintableProperty("codec")
	limitProperty = errorx.RegisterPrintableProperty("limit")
)

const (
	unsupportedCompressionErrorMsg = "unsupported or unrecognized compression for '%s'"
	unsupportedFormatErrorMsg      = "compression format '%s' of '%s' is recognized but not supported"
	decompressionFailedErrorMsg    = "failed to decompress '%s' with codec '%s'"
	sizeLimitErrorMsg              = "decompressed size of '%s' exceeds limit of %d bytes"
)

func NewUnsupportedCompressionError(name string) *errorx.Error {
	return UnsupportedCompressionError.New(unsupportedCompressionErrorMsg, name).
		WithProperty(nameProperty, name)
}

func NewUnsupportedFormatError(name string, format string) *errorx.Error {
	return UnsupportedCompressionError.New(unsupportedFormatErrorMsg, format, name).
		WithProperty(nameProperty, name).
		WithProperty(codecProperty, format)
}

func NewDecompressionFailedError(cause error, name string, kind Kind) *errorx.Error {
	err := DecompressionFailedError.New(decompressionFailedErrorMsg, name, kind.String()).
		WithProperty(nameProperty, name).
		WithProperty(codecProperty, kind.String())

	if cause != nil {
		err = err.WithUnderlyingErrors(cause)
	}

	return err
}

func NewSizeLimitError(name string, kind Kind, limit int64) *errorx.Error {
	return DecompressionFailedError.New(sizeLimitErrorMsg, name, limit).
		WithProperty(nameProperty, name).
		WithProperty(codecProperty, kind.String()).
		WithProperty(limitProperty, limit)
}
