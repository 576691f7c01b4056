// Package sysinfo gathers the live system snapshot the sender and capture
// worker need: hostname, OS-version string, and per-interface
// MAC/IPv4/operational state.
package sysinfo

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
)

// Interface describes one local network interface as the sender and
// capture worker need to see it.
type Interface struct {
	Name          string
	MAC           net.HardwareAddr
	IPv4Addresses []net.IP
	IsOperational bool
}

// Snapshot is a point-in-time system-information read: a pure function of
// the OS's current state.
type Snapshot struct {
	Hostname   string
	OSVersion  string
	Interfaces []Interface
}

// Collect gathers a fresh Snapshot. It has no side effects beyond OS
// queries.
func Collect() (Snapshot, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return Snapshot{}, fmt.Errorf("sysinfo: enumerate interfaces: %w", err)
	}

	var out []Interface
	for _, ifi := range ifaces {
		entry := Interface{
			Name:          ifi.Name,
			IsOperational: ifi.Flags&net.FlagUp != 0 && ifi.Flags&net.FlagLoopback == 0,
		}
		if len(ifi.HardwareAddr) == 6 {
			entry.MAC = ifi.HardwareAddr
		}
		if entry.MAC == nil || isZeroMAC(entry.MAC) {
			entry.IsOperational = false
		}

		addrs, err := ifi.Addrs()
		if err == nil {
			for _, a := range addrs {
				ip, _, err := net.ParseCIDR(a.String())
				if err != nil {
					continue
				}
				if v4 := ip.To4(); v4 != nil {
					entry.IPv4Addresses = append(entry.IPv4Addresses, v4)
				}
			}
		}
		out = append(out, entry)
	}

	return Snapshot{
		Hostname:   hostname,
		OSVersion:  osVersionString(),
		Interfaces: out,
	}, nil
}

func isZeroMAC(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}

// ByName returns the named interface from a snapshot, if present.
func (s Snapshot) ByName(name string) (Interface, bool) {
	for _, ifi := range s.Interfaces {
		if ifi.Name == name {
			return ifi, true
		}
	}
	return Interface{}, false
}

// Operational returns every interface eligible for LLDP emission: up,
// non-loopback, with a MAC address. Interfaces sharing a MAC are all
// returned; sender.Sender.resolveInterfaces keeps only the first of them.
func (s Snapshot) Operational() []Interface {
	var out []Interface
	for _, ifi := range s.Interfaces {
		if ifi.IsOperational && ifi.MAC != nil {
			out = append(out, ifi)
		}
	}
	return out
}

// PrimaryIPv4 returns ifi's first IPv4 address, if any.
func (ifi Interface) PrimaryIPv4() (net.IP, bool) {
	if len(ifi.IPv4Addresses) == 0 {
		return nil, false
	}
	return ifi.IPv4Addresses[0], true
}

// osVersionString formats "<family> <major>.<minor>.<build> <arch>", the
// closest portable analogue to the Windows-specific triple
// built from the kernel release string and runtime.GOOS/GOARCH. The release
// is split on "." and "-" and its first three parts are used, so
// "6.8.0-45-generic" yields "6.8.0"; missing parts read as "0".
func osVersionString() string {
	family := familyName(runtime.GOOS)
	parts := strings.FieldsFunc(kernelRelease(), func(r rune) bool { return r == '.' || r == '-' })
	for len(parts) < 3 {
		parts = append(parts, "0")
	}
	return fmt.Sprintf("%s %s.%s.%s %s", family, parts[0], parts[1], parts[2], strings.ToUpper(runtime.GOARCH))
}

func familyName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	default:
		return strings.ToUpper(goos[:1]) + goos[1:]
	}
}
