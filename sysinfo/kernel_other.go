//go:build !linux

package sysinfo

// kernelRelease has no portable non-Linux implementation in this codebase;
// the OS-version string still reports family and architecture.
func kernelRelease() string {
	return "0.0.0"
}
