// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package kernel

import (
	"fmt"
	"runtime"
)

func uname() (string, error) {
	return "", fmt.Errorf("uname is not available on %s", runtime.GOOS)
}
