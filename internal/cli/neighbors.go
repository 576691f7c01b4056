package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvance/winlldp/store"
)

func newShowNeighborsCommand(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "show-neighbors",
		Short: "List currently live LLDP neighbors",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := store.New(a.cfg.NeighborsFile, a.log)
			if !watch {
				return printNeighbors(st)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				fmt.Print("\033[H\033[2J")
				if err := printNeighbors(st); err != nil {
					return err
				}
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "refresh the table every 5 seconds until interrupted")
	return cmd
}

func printNeighbors(st *store.Store) error {
	records, err := st.ListLive(time.Now())
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INTERFACE\tCHASSIS ID\tPORT ID\tSYSTEM NAME\tTTL\tLAST SEEN")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Interface, r.ChassisID, r.PortID, r.SystemName, r.ReceivedTTL, r.LastSeen.Format(time.RFC3339))
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "(no live neighbors)")
	}
	return w.Flush()
}

func newClearNeighborsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-neighbors",
		Short: "Remove every persisted neighbor record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := store.New(a.cfg.NeighborsFile, a.log).Clear(); err != nil {
				return err
			}
			fmt.Println("neighbor table cleared")
			return nil
		},
	}
}
