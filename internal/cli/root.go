// Package cli wires the cobra command surface onto the sender, receiver,
// store, and service packages.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvance/winlldp/config"
	"github.com/mvance/winlldp/l2"
	"github.com/mvance/winlldp/logging"
	"github.com/mvance/winlldp/receiver"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// app bundles the state every subcommand needs: the loaded config and a
// console logger. Both are built lazily in PersistentPreRunE so "version"
// can run without a valid environment.
type app struct {
	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand builds the "winlldp" root command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "winlldp",
		Short:         "LLDP advertisement and neighbor discovery",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("%w: resolve executable path: %v", config.ErrInvalid, err)
			}
			cfg, err := config.Load(filepath.Dir(exe))
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log = logging.NewConsole(false)
			return nil
		},
	}

	root.AddCommand(
		newSendCommand(a),
		newCaptureCommand(a),
		newShowNeighborsCommand(a),
		newClearNeighborsCommand(a),
		newShowInterfacesCommand(a),
		newShowConfigCommand(a),
		newVersionCommand(),
		newServiceCommand(a),
	)
	return root
}

// Execute runs the command tree and returns the process exit code:
// 0 ok, 1 user error, 2 runtime error, 3 privilege error.
func Execute() int {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "winlldp:", err)
		return exitCodeFor(err)
	}
	return 0
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, l2.ErrPrivilegeDenied):
		return 3
	case errors.Is(err, config.ErrInvalid),
		errors.Is(err, receiver.ErrAlreadyRunning),
		errors.Is(err, receiver.ErrNotRunning):
		return 1
	default:
		return 2
	}
}

func newController(a *app) *receiver.Controller {
	return receiver.New(a.cfg)
}
