// Command winlldp is the user-facing CLI: send/capture/show-neighbors/
// clear-neighbors/show-interfaces/show-config/version/service.
package main

import (
	"os"

	"github.com/mvance/winlldp/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
