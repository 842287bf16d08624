package store

import (
	"fmt"
	"strings"
)

// Config holds configuration for the storage backend.
type Config struct {
	Type             string // "sqlite" or "postgres"
	ConnectionString string // File path for SQLite, DSN for Postgres
}

// DefaultSQLitePath is used when no connection string is configured.
const DefaultSQLitePath = ".overseer.db"

// New creates a Store instance based on the provided configuration.
func New(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "postgres", "postgresql":
		if cfg.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(cfg.ConnectionString)
	case "sqlite", "sqlite3", "":
		if cfg.ConnectionString == "" {
			cfg.ConnectionString = DefaultSQLitePath
		}
		return NewSQLiteStore(cfg.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
