// Package cmd holds the startup steps shared by the drex binaries.
package cmd

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"github.com/louisbranch/drex/internal/platform/config"
	"github.com/louisbranch/drex/internal/platform/otel"
)

// Service names double as OTel service.name values.
const (
	ServiceCLI    = "drex"
	ServiceServer = "drexd"
	ServiceMCP    = "drex-mcp"
)

// telemetryFlushTimeout bounds the span flush after run returns.
const telemetryFlushTimeout = 5 * time.Second

// ParseConfig fills cfg from the environment. Call it before binding flags
// so flag defaults reflect the environment.
func ParseConfig[T any](cfg *T) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	return config.ParseEnv(cfg)
}

// ParseArgs parses args into fs; a nil args slice parses nothing.
func ParseArgs(fs *flag.FlagSet, args []string) error {
	if fs == nil {
		return errors.New("flag set is required")
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// RunWithTelemetry installs tracing for service, calls run, and flushes
// pending spans before returning run's error.
func RunWithTelemetry(ctx context.Context, service string, run func(context.Context) error) error {
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Printf("%s: flush telemetry: %v", service, err)
		}
	}()
	return run(ctx)
}
