// Package backend selects and constructs the persistence layer from
// configuration, so the binaries share one wiring path.
package backend

import (
	"fmt"
	"log/slog"

	"tally/internal/config"
	"tally/internal/storage"
)

// Type identifies a persistence backend.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) String() string { return string(t) }

// IsValid reports whether the type names a known backend.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// Result bundles the constructed store with its cleanup function.
type Result struct {
	Store   storage.Store
	Cleanup func() error
}

// Open constructs the store named by the configuration.
func Open(cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := Type(cfg.DataBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	switch t {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite backend", "path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil
	default:
		store := storage.NewMemoryStore()
		logger.Info("Initialized memory backend")
		return &Result{Store: store, Cleanup: store.Close}, nil
	}
}
