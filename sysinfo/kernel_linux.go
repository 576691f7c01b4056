//go:build linux

package sysinfo

import (
	"bytes"

	"golang.org/x/sys/unix"
)

// kernelRelease reads the kernel release string (e.g. "6.8.0-45-generic")
// via uname(2).
func kernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "0.0.0"
	}
	return cString(uts.Release[:])
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
