package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mvance/winlldp/sysinfo"
)

func newShowInterfacesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show-interfaces",
		Short: "List local network interfaces and their LLDP eligibility",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := sysinfo.Collect()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMAC\tIPV4\tOPERATIONAL")
			for _, ifi := range snap.Interfaces {
				mac := "-"
				if ifi.MAC != nil {
					mac = ifi.MAC.String()
				}
				var ips []string
				for _, ip := range ifi.IPv4Addresses {
					ips = append(ips, ip.String())
				}
				ipCol := "-"
				if len(ips) > 0 {
					ipCol = strings.Join(ips, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", ifi.Name, mac, ipCol, ifi.IsOperational)
			}
			return w.Flush()
		},
	}
}
