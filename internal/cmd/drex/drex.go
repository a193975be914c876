// Package drex parses the dice CLI flags and prints rolls.
package drex

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/louisbranch/drex/internal/platform/config"
	entrypoint "github.com/louisbranch/drex/internal/platform/cmd"
	apperrors "github.com/louisbranch/drex/internal/platform/errors"
	platformgrpc "github.com/louisbranch/drex/internal/platform/grpc"
	"github.com/louisbranch/drex/internal/platform/timeouts"
	"github.com/louisbranch/drex/internal/script"
	"github.com/louisbranch/drex/internal/services/dice/api/grpc/roller"
	diceapp "github.com/louisbranch/drex/internal/services/dice/app"
	"github.com/louisbranch/drex/internal/services/dice/service"
)

// ErrUsage reports a command line that names nothing to roll.
var ErrUsage = errors.New("usage: drex [flags] expression")

// Config holds dice CLI configuration.
type Config struct {
	config.Dice
	// Addr targets a dice server; empty rolls in process.
	Addr        string `env:"REMOTE_ADDR"`
	Count       int
	Range       string
	Script      string
	ListHistory bool
	Filter      string
	PageSize    int
	Verbose     bool
	Expression  string
}

// ParseConfig parses environment and flags into Config. Remaining
// arguments are joined into one expression.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	config.BindDiceFlags(fs, &cfg.Dice)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "dice server address (empty rolls in process)")
	fs.IntVar(&cfg.Count, "n", 1, "number of times to roll the expression")
	fs.StringVar(&cfg.Range, "range", "", "roll a uniform integer in min,max")
	fs.StringVar(&cfg.Script, "script", "", "run a Lua roll script")
	fs.BoolVar(&cfg.ListHistory, "list-history", false, "list recorded rolls")
	fs.StringVar(&cfg.Filter, "filter", "", "history filter, for example: total >= 10")
	fs.IntVar(&cfg.PageSize, "page-size", 0, "history page size (0 = server default)")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	cfg.Expression = strings.Join(fs.Args(), " ")
	return cfg, nil
}

// Run executes one CLI invocation, writing results to out and diagnostics
// to errOut.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceCLI, func(ctx context.Context) error {
		r, closeRoller, err := openRoller(ctx, cfg, errOut)
		if err != nil {
			return err
		}
		defer closeRoller()

		if err := run(ctx, cfg, r, out); err != nil {
			return localize(err, cfg.Locale)
		}
		return nil
	})
}

func run(ctx context.Context, cfg Config, r service.Roller, out io.Writer) error {
	switch {
	case cfg.Script != "":
		runner, err := script.New(r, out, cfg.Locale)
		if err != nil {
			return err
		}
		return runner.RunFile(ctx, cfg.Script)
	case cfg.Range != "":
		min, max, err := parseRange(cfg.Range)
		if err != nil {
			return err
		}
		value, err := r.RollRange(ctx, min, max)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, value)
		return nil
	case cfg.ListHistory:
		return listHistory(ctx, cfg, r, out)
	case strings.TrimSpace(cfg.Expression) == "":
		return ErrUsage
	case cfg.Count > 1:
		rolls, err := r.Reroll(ctx, cfg.Expression, cfg.Count)
		if err != nil {
			return err
		}
		for _, roll := range rolls {
			fmt.Fprintln(out, roll.Text)
		}
		return nil
	default:
		roll, err := r.RollExpression(ctx, cfg.Expression)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, roll.Text)
		return nil
	}
}

func listHistory(ctx context.Context, cfg Config, r service.Roller, out io.Writer) error {
	page, err := r.History(ctx, service.HistoryQuery{Filter: cfg.Filter, PageSize: cfg.PageSize})
	if err != nil {
		return err
	}
	for _, entry := range page.Rolls {
		fmt.Fprintf(out, "%d\t%s\t%s\n", entry.ID, entry.RolledAt.Local().Format(time.DateTime), entry.Text)
	}
	if page.NextPageToken != "" {
		fmt.Fprintf(out, "(%d of %d shown)\n", len(page.Rolls), page.TotalCount)
	}
	return nil
}

// openRoller returns the roller for cfg and a func releasing it.
func openRoller(ctx context.Context, cfg Config, errOut io.Writer) (service.Roller, func(), error) {
	if addr := strings.TrimSpace(cfg.Addr); addr != "" {
		logf := func(format string, args ...any) {
			if cfg.Verbose {
				fmt.Fprintf(errOut, "dice %s\n", fmt.Sprintf(format, args...))
			}
		}
		conn, err := platformgrpc.DialWithHealth(ctx, addr, roller.ServiceName, timeouts.GRPCDial, logf)
		if err != nil {
			return nil, nil, fmt.Errorf("dice server: %w", err)
		}
		closeConn := func() {
			if err := conn.Close(); err != nil {
				log.Printf("close dice connection: %v", err)
			}
		}
		return roller.NewClient(conn, cfg.Locale), closeConn, nil
	}

	local, err := diceapp.OpenLocal(ctx, cfg.Seed, cfg.HistoryDB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Verbose {
		fmt.Fprintf(errOut, "seed: %d\n", local.Seed())
	}
	return local, func() { _ = local.Close() }, nil
}

// parseRange reads "min,max".
func parseRange(value string) (int, int, error) {
	lo, hi, ok := strings.Cut(value, ",")
	if !ok {
		return 0, 0, fmt.Errorf("range %q must be min,max", value)
	}
	min, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("range minimum: %w", err)
	}
	max, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return 0, 0, fmt.Errorf("range maximum: %w", err)
	}
	return min, max, nil
}

// localize swaps domain errors for their user-facing message.
func localize(err error, locale string) error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) && appErr.Code != apperrors.CodeUnknown {
		return errors.New(apperrors.Localize(err, locale))
	}
	return err
}
