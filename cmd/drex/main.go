// Package main rolls dice expressions from the command line.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	drexcmd "github.com/louisbranch/drex/internal/cmd/drex"
	"github.com/louisbranch/drex/internal/platform/config"
)

func main() {
	cfg, err := drexcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("drex: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := drexcmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		config.Exitf("drex: %v", err)
	}
}
