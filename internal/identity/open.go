package identity

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gravadigital/smartpolls/internal/config"
	"github.com/gravadigital/smartpolls/internal/storage/database"
)

// Store kinds accepted by VOTER_STORE
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// Open builds the store selected by cfg.Voter.Store. The returned close
// function releases any database connection.
func Open(cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Voter.Store {
	case StoreMemory:
		return NewMemoryStore(), noop, nil
	case StoreFile, "":
		return NewFileStore(cfg.Voter.Path), noop, nil
	case StoreSQLite, StorePostgres:
		local := *cfg
		if cfg.Voter.Store == StoreSQLite {
			local.DB.SQLitePath = sqlitePath(cfg.Voter.Path)
			if err := os.MkdirAll(filepath.Dir(local.DB.SQLitePath), 0o700); err != nil {
				return nil, nil, fmt.Errorf("failed to create voter store directory: %w", err)
			}
		}

		db, err := database.Connect(&local, cfg.Voter.Store)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open voter store: %w", err)
		}
		store, err := NewGormStore(db)
		if err != nil {
			_ = database.Close(db)
			return nil, nil, err
		}
		return store, func() error { return database.Close(db) }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported voter store: %s", cfg.Voter.Store)
	}
}

// sqlitePath maps the default JSON store path to a database file next to it
func sqlitePath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return strings.TrimSuffix(path, filepath.Ext(path)) + ".db"
	}
	return path
}
