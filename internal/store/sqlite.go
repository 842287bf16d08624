package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"overseer/internal/feature"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and applies migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Concurrent readers while the orchestrator writes status updates.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	// The full record lives in a JSON payload column so new feature fields
	// never require a schema migration; status and priority are duplicated
	// into real columns for querying.
	query := `
	CREATE TABLE IF NOT EXISTS features (
		project_path TEXT NOT NULL,
		id TEXT NOT NULL,
		status TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_path, id)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetAll returns every feature recorded for the project.
func (s *SQLiteStore) GetAll(ctx context.Context, projectPath string) ([]feature.Feature, error) {
	query := `SELECT payload, status FROM features WHERE project_path = ? ORDER BY priority DESC, id ASC`
	rows, err := s.db.QueryContext(ctx, query, projectPath)
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	var results []feature.Feature
	for rows.Next() {
		f, err := scanFeature(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *f)
	}
	return results, rows.Err()
}

// Get returns a single feature, or (nil, nil) when absent.
func (s *SQLiteStore) Get(ctx context.Context, projectPath, id string) (*feature.Feature, error) {
	query := `SELECT payload, status FROM features WHERE project_path = ? AND id = ?`
	row := s.db.QueryRowContext(ctx, query, projectPath, id)
	f, err := scanFeature(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

// Save inserts or replaces a feature record.
func (s *SQLiteStore) Save(ctx context.Context, projectPath string, f *feature.Feature) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode feature %s: %w", f.ID, err)
	}
	query := `INSERT OR REPLACE INTO features (project_path, id, status, priority, payload, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query, projectPath, f.ID, string(f.Status), f.Priority, string(payload), time.Now())
	return err
}

// UpdateStatus sets the status of an existing feature, rewriting both the
// status column and the JSON payload.
func (s *SQLiteStore) UpdateStatus(ctx context.Context, projectPath, id string, status feature.Status) error {
	f, err := s.Get(ctx, projectPath, id)
	if err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("update status of %s: %w", id, ErrNotFound)
	}
	f.Status = status
	f.UpdatedAt = time.Now()
	return s.Save(ctx, projectPath, f)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeature(row rowScanner) (*feature.Feature, error) {
	var payload, status string
	if err := row.Scan(&payload, &status); err != nil {
		return nil, err
	}
	var f feature.Feature
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return nil, fmt.Errorf("failed to decode feature payload: %w", err)
	}
	// The status column is authoritative: UpdateStatus may have raced a
	// stale payload writer.
	f.Status = feature.Status(status)
	return &f, nil
}
