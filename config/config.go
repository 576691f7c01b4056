// Package config loads and validates winlldp's environment-variable
// configuration, with an optional ".env" sibling file overlay.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// ErrInvalid wraps every configuration validation failure: bad env value,
// TTL <= interval, TTL >= 65536, unknown interface.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds winlldp's runtime configuration, sourced from environment
// variables and validated on load.
type Config struct {
	Interval              int    // seconds, 5-3600
	Interface             string // "all" or a single interface name
	SystemName            string // "auto" or a literal name
	SystemDescription     string // "" (unset/default) or an override
	PortDescription        string
	ManagementAddress      string // "auto" or a literal IPv4
	TTL                    int    // seconds, > Interval, < 65536
	NeighborsFile          string
	baseDir                string
}

const (
	defaultSystemDescription = ""
)

// Load reads configuration from the process environment, first overlaying
// any ".env" file found alongside the executable (mirroring
// python-dotenv's typical .env-overlay usage). baseDir anchors
// relative paths (neighbors file, lock, pid, log) to the executable's
// directory, never to the OS temp directory.
func Load(baseDir string) (*Config, error) {
	envPath := filepath.Join(baseDir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("%w: reading .env: %v", ErrInvalid, err)
		}
	}
	for _, key := range []string{"LLDP_INTERVAL", "LLDP_TTL"} {
		if v := os.Getenv(key); v != "" {
			if _, err := strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("%w: %s must be an integer, got %q", ErrInvalid, key, v)
			}
		}
	}

	cfg := &Config{
		Interval:          getInt("LLDP_INTERVAL", 30),
		Interface:         getString("LLDP_INTERFACE", "all"),
		SystemName:        getString("LLDP_SYSTEM_NAME", "auto"),
		SystemDescription: getString("LLDP_SYSTEM_DESCRIPTION", defaultSystemDescription),
		PortDescription:   getString("LLDP_PORT_DESCRIPTION", "Ethernet Port"),
		ManagementAddress: getString("LLDP_MANAGEMENT_ADDRESS", "auto"),
		TTL:               getInt("LLDP_TTL", 120),
		NeighborsFile:     getString("LLDP_NEIGHBORS_FILE", "neighbors.json"),
		baseDir:           baseDir,
	}
	if !filepath.IsAbs(cfg.NeighborsFile) {
		cfg.NeighborsFile = filepath.Join(baseDir, cfg.NeighborsFile)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Interval < 5 || c.Interval > 3600 {
		return fmt.Errorf("%w: LLDP_INTERVAL must be 5-3600, got %d", ErrInvalid, c.Interval)
	}
	if c.TTL <= c.Interval {
		return fmt.Errorf("%w: LLDP_TTL (%d) must be greater than LLDP_INTERVAL (%d)", ErrInvalid, c.TTL, c.Interval)
	}
	if c.TTL >= 65536 {
		return fmt.Errorf("%w: LLDP_TTL must be less than 65536, got %d", ErrInvalid, c.TTL)
	}
	if c.ManagementAddress != "auto" {
		if ip := net.ParseIP(c.ManagementAddress); ip == nil || ip.To4() == nil {
			return fmt.Errorf("%w: LLDP_MANAGEMENT_ADDRESS must be \"auto\" or a valid IPv4 address, got %q", ErrInvalid, c.ManagementAddress)
		}
	}
	if c.Interface != "all" {
		if _, err := net.InterfaceByName(c.Interface); err != nil {
			return fmt.Errorf("%w: unknown interface %q: %v", ErrInvalid, c.Interface, err)
		}
	}
	return nil
}

// LockFile is the advisory-lock sidecar path for NeighborsFile.
func (c *Config) LockFile() string { return c.NeighborsFile + ".lock" }

// PIDFile is the capture worker's PID sidecar path.
func (c *Config) PIDFile() string { return filepath.Join(c.baseDir, "capture.pid") }

// LogFile is the capture worker's append-only log path.
func (c *Config) LogFile() string { return filepath.Join(c.baseDir, "winlldp_capture.log") }

func (c Config) String() string {
	return fmt.Sprintf(
		"Config(\n  interval=%ds,\n  interface=%s,\n  system_name=%s,\n  system_description=%s,\n  port_description=%s,\n  management_address=%s,\n  ttl=%ds,\n  neighbors_file=%s\n)",
		c.Interval, c.Interface, c.SystemName, c.SystemDescription, c.PortDescription, c.ManagementAddress, c.TTL, c.NeighborsFile,
	)
}

func getString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
