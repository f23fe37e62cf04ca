// SPDX-License-Identifier: Apache-2.0

package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/automa-saga/logx"
	"github.com/hashgraph/kmodinfo/internal/config"
	"github.com/hashgraph/kmodinfo/internal/version"
	"github.com/hashgraph/kmodinfo/pkg/codec"
	"github.com/hashgraph/kmodinfo/pkg/device"
	"github.com/hashgraph/kmodinfo/pkg/kernel"
	"github.com/hashgraph/kmodinfo/pkg/kobj"
	"github.com/hashgraph/kmodinfo/pkg/modinfo"
	"github.com/joomcode/errorx"
)

type ErrorDiagnosis struct {
	Error      error    `yaml:"error" json:"error"`
	Message    string   `yaml:"message" json:"message"`
	Cause      string   `yaml:"cause" json:"cause"`
	ErrorType  string   `yaml:"errorType" json:"errorType"`
	TraceId    string   `yaml:"traceId" json:"traceId"`
	Commit     string   `yaml:"commit" json:"commit"`
	Version    string   `yaml:"version" json:"version"`
	Pid        int      `yaml:"pid" json:"pid"`
	Code       int      `yaml:"code" json:"code"`
	Logfile    string   `yaml:"log" json:"log"`
	Resolution []string `yaml:"steps" json:"steps"`
}

func toErrorCode(err error) int {
	switch {
	case errorx.IsOfType(err, errorx.IllegalArgument), errorx.IsOfType(err, config.InvalidValueError):
		return 10400
	case errorx.IsOfType(err, kernel.PermissionDeniedError):
		return 10403
	case errorx.IsOfType(err, codec.UnsupportedCompressionError):
		return 10415
	case isFormatError(err):
		return 10422
	default:
		if errorx.HasTrait(err, errorx.NotFound()) {
			return 10404
		}
		return 10500
	}
}

// isFormatError reports errors caused by the content of a module file.
func isFormatError(err error) bool {
	return errorx.IsOfType(err, codec.DecompressionFailedError) ||
		errorx.IsOfType(err, kobj.InvalidObjectFormatError) ||
		errorx.IsOfType(err, kobj.MissingSectionError) ||
		errorx.IsOfType(err, modinfo.MalformedModuleInfoError)
}

func toErrorMessage(err error) (string, string) {
	e := errorx.Cast(err)
	if e == nil {
		return err.Error(), ""
	}

	if e.Cause() == nil {
		return e.Message(), ""
	}
	return e.Message(), fmt.Sprintf("%s", e.Cause())
}

func findResolution(err error) []string {
	switch {
	case errorx.IsOfType(err, errorx.IllegalArgument):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure %q is provided.", arg.(string))}
		}
		return []string{"Ensure all required arguments are provided."}
	case errorx.IsOfType(err, errorx.IllegalFormat):
		return []string{"Ensure provided data is in correct format."}
	case errorx.IsOfType(err, config.InvalidValueError):
		if key, ok := errorx.ExtractProperty(err, config.KeyProperty); ok {
			return []string{fmt.Sprintf("Fix the value of %q in the configuration file or its KMODINFO_ environment override.", key)}
		}
		return []string{"Fix the configuration file."}
	case errorx.IsOfType(err, config.NotFoundError):
		if arg, ok := errorx.ExtractProperty(err, errorx.PropertyPayload()); ok {
			return []string{fmt.Sprintf("Ensure configuration file %q exists, is correctly formatted and accessible", arg.(string))}
		}
		return []string{"Ensure configuration file exists and is accessible."}
	case errorx.IsOfType(err, kernel.BuiltinModuleError):
		return []string{
			"The module is compiled into the kernel and has no module file; nothing needs to be done.",
			"Run 'kmodinfo loaded <name>' to inspect its parameters.",
		}
	case errorx.IsOfType(err, kernel.ModuleNotFoundError):
		return []string{
			"Check the module name; '-' and '_' are interchangeable.",
			"Use --release to search the tree of another installed kernel, see 'kmodinfo releases'.",
		}
	case errorx.IsOfType(err, kernel.PermissionDeniedError):
		return []string{"Re-run the command as root."}
	case errorx.IsOfType(err, codec.UnsupportedCompressionError):
		return []string{"Decompress the module with the tool matching its extension and inspect the resulting .ko file."}
	case isFormatError(err):
		return []string{
			"The module file is damaged or not a kernel module; investigate the file.",
			"Reinstall the package that owns it to restore a good copy.",
		}
	case errorx.IsOfType(err, device.EnumerationError):
		return []string{"Ensure sysfs is mounted and readable."}
	default:
		return []string{"Check error message for details or contact support"}
	}
}

// Diagnose attempts to find a resolution and provide a human friendly error response
func Diagnose(ctx context.Context, ex error) *ErrorDiagnosis {
	traceId, _ := ctx.Value("traceId").(string)

	msg, cause := toErrorMessage(ex)
	return &ErrorDiagnosis{
		Error:      ex,
		ErrorType:  errorx.GetTypeName(ex),
		Message:    msg,
		Cause:      cause,
		TraceId:    traceId,
		Code:       toErrorCode(ex),
		Commit:     version.Commit(),
		Version:    version.Number(),
		Pid:        os.Getpid(),
		Logfile:    config.Get().Log.Filename,
		Resolution: findResolution(ex),
	}
}

// CheckErr prints diagnosis and exit with error code 1
// Optional instructions can be provided to give additional context to the user
func CheckErr(ctx context.Context, err error, instructions ...string) {
	logx.As().Error().Err(err).Msg("error occurred")
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	Print(ctx, err, instructions...)
	os.Exit(1)
}

// Print writes the diagnosis of err to stderr.
func Print(ctx context.Context, err error, instructions ...string) {
	Fprint(ctx, os.Stderr, err, instructions...)
}

// Fprint writes the diagnosis of err to w. Custom instructions are listed before the
// resolution steps derived from the error.
func Fprint(ctx context.Context, w io.Writer, err error, instructions ...string) {
	fmt.Fprintln(w, render(Diagnose(ctx, err), instructions...))
}

func render(resp *ErrorDiagnosis, instructions ...string) string {
	var diag strings.Builder
	field := func(label string, value any, muted bool) {
		v := fmt.Sprint(value)
		if muted {
			v = mutedStyle.Render(v)
		}
		fmt.Fprintf(&diag, "\n%s %s", labelStyle.Render(label+":"), v)
	}

	diag.WriteString(errorHeadingStyle.Render("Error Diagnostics"))
	field("Error", resp.Message, false)
	if resp.Cause != "" {
		field("Cause", resp.Cause, false)
	}
	field("Error Type", resp.ErrorType, false)
	field("Error Code", resp.Code, false)
	field("Commit", resp.Commit, true)
	field("Pid", resp.Pid, true)
	field("TraceId", resp.TraceId, true)
	field("Version", resp.Version, true)
	if resp.Logfile != "" {
		field("Logfile", resp.Logfile, false)
	}

	var steps strings.Builder
	steps.WriteString(resolutionHeadingStyle.Render("Resolution"))
	if len(instructions) > 0 && instructions[0] != "" {
		for _, line := range strings.Split(instructions[0], "\n") {
			steps.WriteString("\n" + labelStyle.Render(line))
		}
	}
	for _, r := range resp.Resolution {
		steps.WriteString("\n- " + r)
	}

	return "\n" + errorBlockStyle.Render(diag.String()) + "\n\n" + resolutionBlockStyle.Render(steps.String())
}
