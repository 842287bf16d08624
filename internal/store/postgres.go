package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"overseer/internal/feature"
)

// PostgresStore implements Store using PostgreSQL, for teams sharing one
// feature database across machines.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store and applies migrations.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS features (
		project_path TEXT NOT NULL,
		id TEXT NOT NULL,
		status TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		payload JSONB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (project_path, id)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// GetAll returns every feature recorded for the project.
func (s *PostgresStore) GetAll(ctx context.Context, projectPath string) ([]feature.Feature, error) {
	query := `SELECT payload, status FROM features WHERE project_path = $1 ORDER BY priority DESC, id ASC`
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
func (s *PostgresStore) Get(ctx context.Context, projectPath, id string) (*feature.Feature, error) {
	query := `SELECT payload, status FROM features WHERE project_path = $1 AND id = $2`
	row := s.db.QueryRowContext(ctx, query, projectPath, id)
	f, err := scanFeature(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

// Save inserts or replaces a feature record.
func (s *PostgresStore) Save(ctx context.Context, projectPath string, f *feature.Feature) error {
	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode feature %s: %w", f.ID, err)
	}
	query := `INSERT INTO features (project_path, id, status, priority, payload, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (project_path, id)
	          DO UPDATE SET status = $3, priority = $4, payload = $5, updated_at = $6`
	_, err = s.db.ExecContext(ctx, query, projectPath, f.ID, string(f.Status), f.Priority, string(payload), time.Now())
	return err
}

// UpdateStatus sets the status of an existing feature.
func (s *PostgresStore) UpdateStatus(ctx context.Context, projectPath, id string, status feature.Status) error {
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
