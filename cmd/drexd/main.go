// Package main runs the drex dice gRPC server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	drexdcmd "github.com/louisbranch/drex/internal/cmd/drexd"
)

func main() {
	cfg, err := drexdcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[DREXD] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := drexdcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("serve dice: %v", err)
	}
}
