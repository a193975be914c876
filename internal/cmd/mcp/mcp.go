// Package mcp parses MCP command flags and serves the dice tools over stdio.
package mcp

import (
	"context"
	"flag"

	"github.com/louisbranch/drex/internal/platform/config"
	entrypoint "github.com/louisbranch/drex/internal/platform/cmd"
	mcpservice "github.com/louisbranch/drex/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	config.Dice
	// Addr targets a dice server; empty rolls in process.
	Addr string `env:"REMOTE_ADDR"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "dice server address (empty rolls in process)")
	config.BindDiceFlags(fs, &cfg.Dice)
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceMCP, func(ctx context.Context) error {
		return mcpservice.Run(ctx, cfg.Dice, cfg.Addr)
	})
}
