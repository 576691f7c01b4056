package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvance/winlldp/internal/service"
)

const serviceName = "winlldp"

func newServiceCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install and control winlldp under the host service manager",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Install the winlldp unit",
			RunE: func(cmd *cobra.Command, args []string) error {
				exe, err := os.Executable()
				if err != nil {
					return err
				}
				return service.New(serviceName).Install(exe)
			},
		},
		&cobra.Command{
			Use: "start",
			RunE: func(cmd *cobra.Command, args []string) error {
				return service.New(serviceName).Start()
			},
		},
		&cobra.Command{
			Use: "stop",
			RunE: func(cmd *cobra.Command, args []string) error {
				return service.New(serviceName).Stop()
			},
		},
		&cobra.Command{
			Use: "restart",
			RunE: func(cmd *cobra.Command, args []string) error {
				return service.New(serviceName).Restart()
			},
		},
		&cobra.Command{
			Use: "status",
			RunE: func(cmd *cobra.Command, args []string) error {
				out, err := service.New(serviceName).Status()
				fmt.Print(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "uninstall",
			Short: "Remove the winlldp unit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return service.New(serviceName).Uninstall()
			},
		},
	)
	return cmd
}
