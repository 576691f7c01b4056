// Package receiver is the thin lifecycle manager for the capture worker: it
// owns its PID file and controls start/stop/status/log against it.
package receiver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mvance/winlldp/config"
)

// ErrAlreadyRunning and ErrNotRunning are the WorkerAlreadyRunning /
// WorkerNotRunning error kinds returned by Start and Stop respectively and
// surfaced as the CLI's user-visible non-zero exit.
var (
	ErrAlreadyRunning = errors.New("receiver: capture worker already running")
	ErrNotRunning      = errors.New("receiver: capture worker not running")
)

// Controller manages the capture worker's lifecycle against cfg's PID and
// log file paths.
type Controller struct {
	cfg *config.Config
}

// New returns a Controller bound to cfg.
func New(cfg *config.Config) *Controller {
	return &Controller{cfg: cfg}
}

// Status describes the capture worker's observed state.
type Status struct {
	Running bool
	PID     int
	Uptime  time.Duration
}

// Start spawns the winlldp-capture worker binary, detached from the
// controlling terminal with its stdout/stderr redirected to the capture log
// file in append mode. It looks for winlldp-capture as a sibling of the
// running executable, the same convention the neighbor/PID/log files use.
func (c *Controller) Start() error {
	if _, alive := c.livePID(); alive {
		return ErrAlreadyRunning
	}
	// Stale PID file: clean it up before proceeding.
	_ = os.Remove(c.cfg.PIDFile())

	worker, err := workerPath()
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(c.cfg.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("receiver: open capture log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(worker, "-interface", c.cfg.Interface,
		"-neighbors-file", c.cfg.NeighborsFile, "-pid-file", c.cfg.PIDFile(), "-log-file", c.cfg.LogFile())
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("receiver: start capture worker: %w", err)
	}
	return nil
}

func workerPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("receiver: resolve executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "winlldp-capture"), nil
}

// Stop sends SIGTERM to the worker named by the PID file, waits up to 5s,
// then SIGKILLs.
func (c *Controller) Stop() error {
	pid, alive := c.livePID()
	if !alive {
		_ = os.Remove(c.cfg.PIDFile())
		return ErrNotRunning
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("receiver: find process %d: %w", pid, err)
	}
	_ = proc.Signal(syscall.SIGTERM)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			os.Remove(c.cfg.PIDFile())
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}

	_ = proc.Signal(syscall.SIGKILL)
	os.Remove(c.cfg.PIDFile())
	return nil
}

// Status reports whether the worker is running and, if so, its PID and
// uptime.
func (c *Controller) Status() Status {
	pid, alive := c.livePID()
	if !alive {
		return Status{Running: false}
	}
	uptime, _ := processUptime(pid, c.cfg.PIDFile())
	return Status{Running: true, PID: pid, Uptime: uptime}
}

// Log streams the capture log file to w.
func (c *Controller) Log(w io.Writer) error {
	f, err := os.Open(c.cfg.LogFile())
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	_, err = io.Copy(w, r)
	return err
}

// livePID reads the PID file and reports whether it names a live process,
// tolerating an absent file or a PID belonging to an unrelated (now-dead or
// reused) process.
func (c *Controller) livePID() (int, bool) {
	data, err := os.ReadFile(c.cfg.PIDFile())
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, processAlive(pid)
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}

// processUptime approximates uptime from the PID file's modification time,
// since neither the stdlib nor this codebase's dependency set exposes
// process start time portably.
func processUptime(pid int, pidFile string) (time.Duration, error) {
	info, err := os.Stat(pidFile)
	if err != nil {
		return 0, err
	}
	return time.Since(info.ModTime()), nil
}
