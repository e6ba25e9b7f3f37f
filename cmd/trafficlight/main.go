// Command trafficlight runs a set of simulated traffic lights, each with a
// group of goroutines waiting for it to turn green.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/goclaw/trafficlight/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cli CLI
	kong.Parse(&cli,
		kong.Name("trafficlight"),
		kong.Description("Simulate traffic lights and the cars waiting at them."),
		kong.Vars{"version": version.String()},
	)

	if err := run(ctx, &cli); err != nil {
		fmt.Fprintf(os.Stderr, "trafficlight: %s\n", err)
		os.Exit(1)
	}
}
