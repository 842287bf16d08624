// Package orphan flags features whose backing git branch no longer exists.
package orphan

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"overseer/internal/feature"
	"overseer/internal/git"
	"overseer/internal/store"
)

// OrphanedFeature pairs a feature with the branch it lost. Derived and
// ephemeral; never persisted.
type OrphanedFeature struct {
	Feature       feature.Feature
	MissingBranch string
}

// Detector scans a project's features against the repository's branches.
type Detector struct {
	store  store.Store
	oracle git.BranchOracle
	logger *slog.Logger
}

// NewDetector creates a detector.
func NewDetector(s store.Store, oracle git.BranchOracle, logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{store: s, oracle: oracle, logger: logger}
}

// Detect returns every feature whose branch name is set but unreachable.
// This is a best-effort diagnostic: store or git failures degrade to an
// empty result, never a blocking error.
func (d *Detector) Detect(ctx context.Context, projectPath string) []OrphanedFeature {
	features, err := d.store.GetAll(ctx, projectPath)
	if err != nil {
		d.logger.Warn("orphan scan: failed to load features", "project", projectPath, "error", err)
		return []OrphanedFeature{}
	}

	branches, err := d.oracle.ListBranches(ctx, projectPath)
	if err != nil {
		d.logger.Warn("orphan scan: failed to list branches", "project", projectPath, "error", err)
		return []OrphanedFeature{}
	}

	// The checked-out branch is never orphaned, even when a transient git
	// state keeps it out of the listed set.
	current, err := d.oracle.CurrentBranch(ctx, projectPath)
	if err != nil {
		d.logger.Warn("orphan scan: failed to resolve current branch", "project", projectPath, "error", err)
		current = ""
	}

	orphans := []OrphanedFeature{}
	for _, f := range features {
		branch := strings.TrimSpace(f.BranchName)
		if branch == "" {
			continue
		}
		if _, exists := branches[branch]; exists {
			continue
		}
		if current != "" && branch == current {
			continue
		}
		orphans = append(orphans, OrphanedFeature{Feature: f, MissingBranch: branch})
	}

	if len(orphans) > 0 {
		d.logger.Info("orphaned features detected", "project", projectPath, "count", len(orphans))
	}
	return orphans
}

// Watch re-runs Detect on an interval until the context is cancelled,
// reporting each scan's result to onScan.
func (d *Detector) Watch(ctx context.Context, projectPath string, interval time.Duration, onScan func([]OrphanedFeature)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("orphan watch stopping", "project", projectPath)
			return
		case <-ticker.C:
			onScan(d.Detect(ctx, projectPath))
		}
	}
}
