package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCaptureCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Control the capture worker that listens for LLDP neighbors",
	}
	cmd.AddCommand(
		newCaptureStartCommand(a),
		newCaptureStopCommand(a),
		newCaptureStatusCommand(a),
		newCaptureLogCommand(a),
	)
	return cmd
}

func newCaptureStartCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the capture worker as a detached process",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newController(a).Start(); err != nil {
				return err
			}
			fmt.Println("capture worker started")
			return nil
		},
	}
}

func newCaptureStopCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running capture worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newController(a).Stop(); err != nil {
				return err
			}
			fmt.Println("capture worker stopped")
			return nil
		},
	}
}

func newCaptureStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether the capture worker is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := newController(a).Status()
			if !st.Running {
				fmt.Println("capture worker: not running")
				return nil
			}
			fmt.Printf("capture worker: running (pid %d, uptime %s)\n", st.PID, st.Uptime.Round(1e9))
			return nil
		},
	}
}

func newCaptureLogCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Print the capture worker's log file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newController(a).Log(os.Stdout)
		},
	}
}
