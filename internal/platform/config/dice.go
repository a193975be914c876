package config

import "flag"

// Dice holds environment shared by the drex commands.
type Dice struct {
	// Seed fixes the dice source; zero draws a fresh crypto seed.
	Seed int64 `env:"SEED"`
	// HistoryDB is the sqlite path for roll history; empty disables history.
	HistoryDB string `env:"HISTORY_DB"`
	// GRPCAddr is the dice server listen address or client target.
	GRPCAddr string `env:"GRPC_ADDR" envDefault:"localhost:8090"`
	// Locale selects the language of user-facing error messages.
	Locale string `env:"LOCALE" envDefault:"en-US"`
}

// LoadDice reads the shared drex environment.
func LoadDice() (Dice, error) {
	var cfg Dice
	if err := ParseEnv(&cfg); err != nil {
		return Dice{}, err
	}
	return cfg, nil
}

// BindDiceFlags registers the shared -seed, -history and -locale flags on fs,
// defaulting to the values already in cfg.
func BindDiceFlags(fs *flag.FlagSet, cfg *Dice) {
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "dice seed (0 = random)")
	fs.StringVar(&cfg.HistoryDB, "history", cfg.HistoryDB, "sqlite path for roll history (empty disables history)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for error messages")
}
