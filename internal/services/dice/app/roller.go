package server

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/drex/internal/random"
	"github.com/louisbranch/drex/internal/services/dice/service"
	"github.com/louisbranch/drex/internal/storage/sqlite"
)

// Local is an in-process roller together with the history store it owns.
type Local struct {
	*service.Service
	seed  int64
	store *sqlite.Store
}

// OpenLocal builds a roller seeded with seed, drawing a crypto seed when it
// is zero. A non-empty historyPath records every roll to sqlite.
func OpenLocal(ctx context.Context, seed int64, historyPath string) (*Local, error) {
	seed, err := random.ResolveSeed(seed)
	if err != nil {
		return nil, err
	}

	local := &Local{seed: seed}
	var opts []service.Option
	if path := strings.TrimSpace(historyPath); path != "" {
		store, err := openHistoryStore(ctx, path)
		if err != nil {
			return nil, err
		}
		local.store = store
		opts = append(opts, service.WithHistory(store))
	}

	svc, err := service.New(random.NewSource(seed), opts...)
	if err != nil {
		_ = local.Close()
		return nil, err
	}
	local.Service = svc
	return local, nil
}

// Seed reports the seed the roller was built with.
func (l *Local) Seed() int64 {
	if l == nil {
		return 0
	}
	return l.seed
}

// Close releases the history store, if any.
func (l *Local) Close() error {
	if l == nil || l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	if err != nil {
		log.Printf("close history store: %v", err)
	}
	return err
}

func openHistoryStore(ctx context.Context, path string) (*sqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open history sqlite store: %w", err)
	}
	return store, nil
}
