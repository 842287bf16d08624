package store

import (
	"context"
	"errors"

	"overseer/internal/feature"
)

// ErrNotFound is returned by mutations targeting a feature that does not
// exist for the given project.
var ErrNotFound = errors.New("feature not found")

// Store defines persistent access to feature records, keyed by project path.
type Store interface {
	// GetAll returns every feature recorded for the project.
	GetAll(ctx context.Context, projectPath string) ([]feature.Feature, error)
	// Get returns a single feature, or (nil, nil) when it does not exist.
	Get(ctx context.Context, projectPath, id string) (*feature.Feature, error)
	// Save inserts or replaces a feature record.
	Save(ctx context.Context, projectPath string, f *feature.Feature) error
	// UpdateStatus sets the status of an existing feature. Returns
	// ErrNotFound when no such feature is recorded.
	UpdateStatus(ctx context.Context, projectPath, id string, status feature.Status) error
	Close() error
}
