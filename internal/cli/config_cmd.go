package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-config",
		Short: "Print the effective runtime configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(a.cfg.String())
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the winlldp version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
