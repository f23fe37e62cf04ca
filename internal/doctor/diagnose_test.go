// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/hashgraph/kmodinfo/pkg/kobj"
	"github.com/hashgraph/kmodinfo/pkg/modinfo"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "illegal argument", err: errorx.IllegalArgument.New("bad"), code: 10400},
		{name: "invalid config value", err: config.NewInvalidValueError("paths.procRoot", "not absolute"), code: 10400},
		{name: "permission denied", err: kernel.NewPermissionDeniedError(errors.New("EACCES"), "/sys/module/x/parameters/y"), code: 10403},
		{name: "module not found", err: kernel.NewModuleNotFoundError("xyz", "6.1.0"), code: 10404},
		{name: "built-in module", err: kernel.NewBuiltinModuleError("ext4", "6.1.0"), code: 10404},
		{name: "unsupported compression", err: codec.NewUnsupportedCompressionError("x.ko.bz2"), code: 10415},
		{name: "corrupt stream", err: codec.NewDecompressionFailedError(errors.New("eof"), "x.ko.gz", codec.KindGzip), code: 10422},
		{name: "invalid object", err: kobj.NewInvalidObjectFormatError(nil, "bad magic number"), code: 10422},
		{name: "missing section", err: kobj.NewMissingSectionError(kobj.ModInfoSection), code: 10422},
		{name: "malformed records", err: modinfo.NewMalformedModuleInfoError(3, "record has no '='"), code: 10422},
		{name: "io error", err: kernel.NewIOError(errors.New("EIO"), "/lib/modules"), code: 10500},
		{name: "plain error", err: errors.New("boom"), code: 10500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, toErrorCode(tt.err))
		})
	}
}

func TestFindResolution(t *testing.T) {
	assert.Contains(t, findResolution(kernel.NewPermissionDeniedError(errors.New("EACCES"), "/x"))[0], "as root")
	assert.Contains(t, findResolution(kobj.NewMissingSectionError(kobj.ModInfoSection))[0], "investigate the file")
	assert.Contains(t, findResolution(kernel.NewBuiltinModuleError("ext4", "6.1.0"))[0], "compiled into the kernel")
	assert.Contains(t, findResolution(kernel.NewModuleNotFoundError("x", "6.1.0"))[0], "module name")
	assert.Contains(t, findResolution(config.NewInvalidValueError("decompress.maxSize", "negative"))[0], `"decompress.maxSize"`)
	assert.Equal(t, []string{"Check error message for details or contact support"}, findResolution(errors.New("boom")))
}

func TestDiagnose(t *testing.T) {
	ctx := context.WithValue(context.Background(), "traceId", "trace-1")
	cause := errors.New("permission denied")
	err := kernel.NewPermissionDeniedError(cause, "/sys/module/nbd/parameters/secret")

	d := Diagnose(ctx, err)
	require.NotNil(t, d)
	assert.Equal(t, "trace-1", d.TraceId)
	assert.Equal(t, 10403, d.Code)
	assert.Equal(t, "kernel.permission_denied", d.ErrorType)
	assert.Equal(t, "permission denied reading '/sys/module/nbd/parameters/secret'", d.Message)
	assert.NotZero(t, d.Pid)

	d = Diagnose(ctx, errorx.IllegalState.Wrap(cause, "listing modules"))
	assert.Equal(t, "listing modules", d.Message)
	assert.Equal(t, "permission denied", d.Cause)

	d = Diagnose(context.Background(), errors.New("boom"))
	assert.Empty(t, d.TraceId)
	assert.Equal(t, "boom", d.Message)
	assert.Empty(t, d.Cause)
}

func TestFprint(t *testing.T) {
	ctx := context.WithValue(context.Background(), "traceId", "trace-42")
	err := kernel.NewPermissionDeniedError(errors.New("open failed"), "/sys/module/nbd/parameters/secret")

	var buf bytes.Buffer
	Fprint(ctx, &buf, err, "failed to read module\nretry later")
	out := buf.String()

	assert.Contains(t, out, "Error Diagnostics")
	assert.Contains(t, out, "permission denied reading '/sys/module/nbd/parameters/secret'")
	assert.Contains(t, out, "kernel.permission_denied")
	assert.Contains(t, out, "10403")
	assert.Contains(t, out, "trace-42")
	assert.Contains(t, out, "Resolution")
	assert.Contains(t, out, "retry later")
	assert.Contains(t, out, "- Re-run the command as root.")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("failed to read module")), bytes.Index(buf.Bytes(), []byte("Re-run")))
}
