package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"overseer/internal/executor"
	"overseer/internal/feature"
	"overseer/internal/notify"
)

// RecoveryManager reclassifies work across process restarts: on startup it
// resumes features whose execution was interrupted, and on shutdown it marks
// everything still running as interrupted while preserving pipeline
// sub-states.
type RecoveryManager struct {
	o *Orchestrator
}

// NewRecoveryManager creates a recovery manager sharing the orchestrator's
// store, executor, and running registry.
func NewRecoveryManager(o *Orchestrator) *RecoveryManager {
	return &RecoveryManager{o: o}
}

// resumable reports whether a feature left in this status at startup should
// be picked back up. Nothing can be executing when the process starts, so a
// preserved pipeline sub-state is interrupted work by construction; it is
// resumed with its sub-state intact. waiting_approval needs a human decision
// and is never auto-resumed.
func resumable(s feature.Status) bool {
	return s == feature.StatusInterrupted || s.IsPipelineState()
}

// ResumeInterrupted re-dispatches every interrupted feature of the project
// with the recovery flag set. The scan is best-effort: a store failure logs
// and resumes nothing.
func (r *RecoveryManager) ResumeInterrupted(ctx context.Context, projectPath string) int {
	o := r.o

	features, err := o.store.GetAll(ctx, projectPath)
	if err != nil {
		o.logger.Error("recovery scan failed", "project", projectPath, "error", err)
		return 0
	}

	resumed := 0
	for i := range features {
		f := features[i]
		if !resumable(f.Status) {
			continue
		}
		entry := Entry{FeatureID: f.ID, ProjectPath: projectPath, IsAutoMode: false}
		if !o.registry.Insert(entry) {
			continue
		}

		// A generic interrupted feature restarts as in_progress; a
		// pipeline sub-state is left in place because it encodes where
		// to resume.
		if f.Status == feature.StatusInterrupted {
			if err := o.store.UpdateStatus(ctx, projectPath, f.ID, feature.StatusInProgress); err != nil {
				o.logger.Error("failed to mark resumed feature in progress, releasing claim",
					"project", projectPath, "feature", f.ID, "error", err)
				o.registry.Remove(f.ID)
				continue
			}
		}

		o.logger.Info("resuming interrupted feature",
			"project", projectPath, "feature", f.ID, "status", f.Status, "reason", "startup recovery")
		o.notify(ctx, notify.EventRecovery, fmt.Sprintf("resuming feature %s after interruption", f.ID))
		o.metrics.RecoveriesTotal.WithLabelValues(projectPath).Inc()

		opts := executor.Options{
			IsRecovery:      true,
			Model:           f.Model,
			ThinkingLevel:   f.ThinkingLevel,
			ReasoningEffort: f.ReasoningEffort,
			PlanningMode:    f.PlanningMode,
			WorkMode:        f.WorkMode,
			SkipTests:       f.SkipTests,
		}
		go func(entry Entry, opts executor.Options) {
			err := o.exec.Execute(ctx, entry.ProjectPath, entry.FeatureID, opts)
			o.settle(ctx, completion{entry: entry, err: err})
		}(entry, opts)

		resumed++
	}
	return resumed
}

// MarkFeatureInterrupted applies the interruption rule to one feature: a
// pipeline sub-state is preserved, anything else becomes interrupted. When
// the record cannot be loaded at all it is conservatively marked interrupted
// anyway. Update failures propagate; the caller needs to know the write did
// not happen.
func (r *RecoveryManager) MarkFeatureInterrupted(ctx context.Context, projectPath, featureID, reason string) error {
	o := r.o
	if reason == "" {
		reason = "interrupted"
	}

	f, err := o.store.Get(ctx, projectPath, featureID)
	if err != nil {
		o.logger.Warn("could not load feature during interruption, marking interrupted anyway",
			"project", projectPath, "feature", featureID, "error", err)
	} else if f != nil && f.Status.IsPipelineState() {
		o.logger.Info("preserving pipeline state across interruption",
			"project", projectPath, "feature", featureID, "status", f.Status, "reason", reason)
		return nil
	}

	if err := o.store.UpdateStatus(ctx, projectPath, featureID, feature.StatusInterrupted); err != nil {
		return fmt.Errorf("failed to mark feature %s interrupted: %w", featureID, err)
	}

	o.logger.Info("feature interrupted",
		"project", projectPath, "feature", featureID, "status", feature.StatusInterrupted, "reason", reason)
	o.notify(ctx, notify.EventInterrupt, fmt.Sprintf("feature %s interrupted: %s", featureID, reason))
	o.metrics.InterruptsTotal.WithLabelValues(projectPath).Inc()
	return nil
}

// MarkAllRunningFeaturesInterrupted applies the interruption rule to every
// registry entry concurrently. Per-item failures are logged and never abort
// the rest of the batch. All entries are cleared from the registry; the
// count of processed entries is returned.
func (r *RecoveryManager) MarkAllRunningFeaturesInterrupted(ctx context.Context, reason string) int {
	o := r.o
	entries := o.registry.Snapshot()

	var wg sync.WaitGroup
	for _, e := range entries {
		wg.Add(1)
		go func(e Entry) {
			defer wg.Done()
			if err := r.MarkFeatureInterrupted(ctx, e.ProjectPath, e.FeatureID, reason); err != nil {
				o.logger.Error("failed to interrupt running feature",
					"project", e.ProjectPath, "feature", e.FeatureID, "error", err)
			}
			o.registry.Remove(e.FeatureID)
		}(e)
	}
	wg.Wait()
	return len(entries)
}
