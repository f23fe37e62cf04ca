// SPDX-License-Identifier: Apache-2.0

//go:build unix

package kernel

import "golang.org/x/sys/unix"

func uname() (string, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(uts.Release[:]), nil
}
