// Package main serves the drex dice tools to MCP clients over stdio.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpcmd "github.com/louisbranch/drex/internal/cmd/mcp"
)

func main() {
	// stdout carries the protocol; keep logs on stderr.
	log.SetOutput(os.Stderr)
	log.SetPrefix("[DREX-MCP] ")

	cfg, err := mcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := mcpcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("serve mcp: %v", err)
	}
}
