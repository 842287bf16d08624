package orchestrator

import "sync"

// Entry describes one currently-executing feature.
type Entry struct {
	FeatureID   string
	ProjectPath string
	IsAutoMode  bool
}

// RunningRegistry is the in-memory set of currently-executing features,
// keyed by feature ID. It is the only mutable state shared between the
// auto-loop and the recovery manager; every claim goes through Insert so
// that check-and-claim is a single critical section.
type RunningRegistry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRunningRegistry creates an empty registry.
func NewRunningRegistry() *RunningRegistry {
	return &RunningRegistry{entries: make(map[string]Entry)}
}

// Insert claims the feature. It reports false when the feature is already
// registered, in which case the caller must not dispatch.
func (r *RunningRegistry) Insert(e Entry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.FeatureID]; exists {
		return false
	}
	r.entries[e.FeatureID] = e
	return true
}

// Remove destroys the entry for the feature, if any.
func (r *RunningRegistry) Remove(featureID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, featureID)
}

// Has reports whether the feature is currently executing.
func (r *RunningRegistry) Has(featureID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[featureID]
	return ok
}

// CountForProject returns how many features are executing for the project.
func (r *RunningRegistry) CountForProject(projectPath string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.ProjectPath == projectPath {
			n++
		}
	}
	return n
}

// Len returns the total number of executing features.
func (r *RunningRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns a copy of all entries.
func (r *RunningRegistry) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	return out
}
