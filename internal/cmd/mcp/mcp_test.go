package mcp

import (
	"flag"
	"os"
	"testing"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}

func TestParseConfigDefaults(t *testing.T) {
	unsetEnv(t, "DREX_REMOTE_ADDR", "DREX_SEED", "DREX_HISTORY_DB", "DREX_LOCALE")
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "" {
		t.Fatalf("expected in-process rolling by default, got addr %q", cfg.Addr)
	}
	if cfg.Locale != "en-US" {
		t.Fatalf("expected default locale, got %q", cfg.Locale)
	}
}

func TestParseConfigOverrides(t *testing.T) {
	unsetEnv(t, "DREX_SEED", "DREX_LOCALE")
	t.Setenv("DREX_REMOTE_ADDR", "env-dice:8090")
	t.Setenv("DREX_HISTORY_DB", "env.db")
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{"-addr", "flag-dice:8090", "-seed", "12", "-locale", "pt-BR"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "flag-dice:8090" {
		t.Fatalf("expected flag addr, got %q", cfg.Addr)
	}
	if cfg.Seed != 12 || cfg.Locale != "pt-BR" || cfg.HistoryDB != "env.db" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
