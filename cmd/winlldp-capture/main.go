// Command winlldp-capture is the capture worker process: it is spawned by
// the receiver controller (package receiver), never invoked directly by a
// user.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mvance/winlldp/capture"
	"github.com/mvance/winlldp/logging"
	"github.com/mvance/winlldp/store"
)

func main() {
	os.Exit(run())
}

// run carries the worker's body so its defers — PID-file removal and log
// flush — execute before the process exits, which os.Exit from within main
// would otherwise skip.
func run() int {
	iface := flag.String("interface", "all", "interface name, or \"all\"")
	neighborsFile := flag.String("neighbors-file", "neighbors.json", "path to the neighbor store")
	pidFile := flag.String("pid-file", "capture.pid", "path to write this process's PID")
	logFile := flag.String("log-file", "", "path to the capture log file (defaults to stderr)")
	flag.Parse()

	log := logging.NewConsole(false)
	if *logFile != "" {
		fileLog, err := logging.NewFile(*logFile)
		if err == nil {
			log = fileLog
		}
	}
	defer log.Sync()

	if err := capture.WritePIDFile(*pidFile); err != nil {
		fmt.Fprintf(os.Stderr, "winlldp-capture: write pid file: %v\n", err)
		return 2
	}
	defer capture.RemovePIDFile(*pidFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	st := store.New(*neighborsFile, log)
	if err := capture.Run(ctx, capture.Config{Interface: *iface}, st, log); err != nil {
		log.Error("capture worker exiting with error", zap.Error(err))
		return 2
	}
	return 0
}
