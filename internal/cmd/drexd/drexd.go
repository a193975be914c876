// Package drexd parses dice server flags and launches the service.
package drexd

import (
	"context"
	"flag"

	"github.com/louisbranch/drex/internal/platform/config"
	entrypoint "github.com/louisbranch/drex/internal/platform/cmd"
	server "github.com/louisbranch/drex/internal/services/dice/app"
)

// Config holds dice server command configuration.
type Config struct {
	config.Dice
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.GRPCAddr, "addr", cfg.GRPCAddr, "The dice gRPC server listen address")
	config.BindDiceFlags(fs, &cfg.Dice)
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the dice gRPC API service.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Dice)
	})
}
