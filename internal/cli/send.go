package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mvance/winlldp/sender"
)

func newSendCommand(a *app) *cobra.Command {
	var iface string
	var verbose bool
	var daemon bool

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send LLDP advertisements: once and exit, or continuously under --daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if iface != "" {
				a.cfg.Interface = iface
			}
			s := sender.New(a.cfg, a.log)
			if !daemon {
				s.SendOnce(verbose)
				return nil
			}
			return runDaemon(cmd, a, s)
		},
	}
	cmd.Flags().StringVarP(&iface, "interface", "i", "", "override the configured interface for this run")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log the encoded frame bytes")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "run the scheduled sender loop with an embedded receiver controller until stopped")
	return cmd
}

// runDaemon co-locates the sender's ticking loop with an embedded receiver
// controller, the single-process topology this binary runs under when a
// service manager owns it (see service.systemd's unit template). It starts
// the capture worker, runs the sender until a termination signal arrives,
// then withdraws and stops the worker before returning.
func runDaemon(cmd *cobra.Command, a *app, s *sender.Sender) error {
	ctrl := newController(a)
	if err := ctrl.Start(); err != nil {
		a.log.Warn("embedded capture worker did not start", zap.Error(err))
	}
	defer func() {
		if err := ctrl.Stop(); err != nil {
			a.log.Warn("embedded capture worker did not stop cleanly", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	err := s.Run(ctx)
	s.Shutdown(cmd.Context())
	if err != nil && err != ctx.Err() {
		return err
	}
	return nil
}
