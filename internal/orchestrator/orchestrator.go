package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"overseer/internal/executor"
	"overseer/internal/feature"
	"overseer/internal/notify"
	"overseer/internal/store"
	"overseer/internal/telemetry"
)

// ErrAlreadyRunning is returned by StartAutoLoop when a loop already exists
// for the project. The caller must stop it first.
var ErrAlreadyRunning = errors.New("auto loop already running for this project")

// Config wires an Orchestrator's collaborators.
type Config struct {
	Store    store.Store
	Executor executor.Executor
	Sink     notify.Sink
	Metrics  *telemetry.Metrics
	Logger   *slog.Logger

	// PollInterval is how often each auto-loop re-scans for eligible
	// features between completion wake-ups.
	PollInterval time.Duration

	// SkipVerification relaxes dependency gating to not require verified
	// or completed dependencies. Failed dependencies still block.
	SkipVerification bool
}

// Orchestrator owns the per-project auto-loops, the running registry, and
// the dispatch policy.
type Orchestrator struct {
	store   store.Store
	exec    executor.Executor
	sink    notify.Sink
	metrics *telemetry.Metrics
	logger  *slog.Logger

	pollInterval     time.Duration
	skipVerification bool

	registry *RunningRegistry

	mu    sync.Mutex
	loops map[string]*loopHandle
}

type loopHandle struct {
	cancel         context.CancelFunc
	done           chan struct{}
	maxConcurrency int
	// completions is the bounded bridge between push-style executor
	// goroutines and the sequentially consuming loop. Capacity equals the
	// concurrency ceiling, so a completion send never blocks even after
	// the loop has exited.
	completions chan completion
}

type completion struct {
	entry Entry
	err   error
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetrics()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Orchestrator{
		store:            cfg.Store,
		exec:             cfg.Executor,
		sink:             cfg.Sink,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		pollInterval:     cfg.PollInterval,
		skipVerification: cfg.SkipVerification,
		registry:         NewRunningRegistry(),
		loops:            make(map[string]*loopHandle),
	}
}

// Registry exposes the running registry for in-package collaborators.
func (o *Orchestrator) Registry() *RunningRegistry {
	return o.registry
}

// IsFeatureRunning reports whether the feature is currently executing.
func (o *Orchestrator) IsFeatureRunning(featureID string) bool {
	return o.registry.Has(featureID)
}

// StartAutoLoop begins the continuous pickup loop for the project. It fails
// with ErrAlreadyRunning when a loop is already active for projectPath.
func (o *Orchestrator) StartAutoLoop(ctx context.Context, projectPath string, maxConcurrency int) error {
	if maxConcurrency <= 0 {
		return fmt.Errorf("max concurrency must be positive, got %d", maxConcurrency)
	}

	o.mu.Lock()
	if _, exists := o.loops[projectPath]; exists {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, projectPath)
	}
	loopCtx, cancel := context.WithCancel(ctx)
	h := &loopHandle{
		cancel:         cancel,
		done:           make(chan struct{}),
		maxConcurrency: maxConcurrency,
		completions:    make(chan completion, maxConcurrency),
	}
	o.loops[projectPath] = h
	o.mu.Unlock()

	o.logger.Info("auto mode started", "project", projectPath, "max_concurrency", maxConcurrency)
	o.notify(ctx, notify.EventAutoStart, fmt.Sprintf("auto mode started for %s (max %d)", projectPath, maxConcurrency))

	go o.runLoop(loopCtx, projectPath, h)
	return nil
}

// StopAutoLoop halts the project's loop and returns how many features were
// in flight at the moment of the call. It is idempotent, returns 0 when no
// loop is running, and does not wait for in-flight executions.
func (o *Orchestrator) StopAutoLoop(projectPath string) int {
	o.mu.Lock()
	h, exists := o.loops[projectPath]
	if exists {
		delete(o.loops, projectPath)
	}
	o.mu.Unlock()

	if !exists {
		return 0
	}

	inFlight := o.registry.CountForProject(projectPath)
	h.cancel()

	o.logger.Info("auto mode stopped", "project", projectPath, "in_flight", inFlight)
	o.notify(context.Background(), notify.EventAutoStop, fmt.Sprintf("auto mode stopped for %s (%d in flight)", projectPath, inFlight))
	return inFlight
}

// RunningAgent is one registry entry enriched with feature details.
type RunningAgent struct {
	FeatureID   string
	ProjectPath string
	ProjectName string
	IsAutoMode  bool
	Title       string
	Description string
}

// GetRunningAgents returns every executing feature enriched with its title
// and description. Store lookups run concurrently across entries, and a
// failed lookup degrades that entry's title and description to empty
// instead of failing the call.
func (o *Orchestrator) GetRunningAgents(ctx context.Context) []RunningAgent {
	entries := o.registry.Snapshot()
	agents := make([]RunningAgent, len(entries))

	var wg sync.WaitGroup
	for i, e := range entries {
		agents[i] = RunningAgent{
			FeatureID:   e.FeatureID,
			ProjectPath: e.ProjectPath,
			ProjectName: filepath.Base(e.ProjectPath),
			IsAutoMode:  e.IsAutoMode,
		}
		wg.Add(1)
		go func(i int, e Entry) {
			defer wg.Done()
			f, err := o.store.Get(ctx, e.ProjectPath, e.FeatureID)
			if err != nil || f == nil {
				o.logger.Warn("could not enrich running agent", "feature", e.FeatureID, "project", e.ProjectPath, "error", err)
				return
			}
			agents[i].Title = f.Title
			agents[i].Description = f.Description
		}(i, e)
	}
	wg.Wait()

	sort.Slice(agents, func(i, j int) bool { return agents[i].FeatureID < agents[j].FeatureID })
	return agents
}

func (o *Orchestrator) runLoop(ctx context.Context, projectPath string, h *loopHandle) {
	defer close(h.done)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	o.pickup(ctx, projectPath, h)

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.completions:
			o.settle(ctx, c)
			o.pickup(ctx, projectPath, h)
		case <-ticker.C:
			o.pickup(ctx, projectPath, h)
		}
	}
}

// pickup loads pending candidates, filters them by dependency satisfaction,
// and dispatches the highest-priority ones into free slots. The claim per
// feature is Registry.Insert, a single non-suspending critical section: two
// pickups can never both claim the same slot for one feature.
func (o *Orchestrator) pickup(ctx context.Context, projectPath string, h *loopHandle) {
	free := h.maxConcurrency - o.registry.CountForProject(projectPath)
	if free <= 0 {
		return
	}

	features, err := o.store.GetAll(ctx, projectPath)
	if err != nil {
		o.logger.Error("failed to load features", "project", projectPath, "error", err)
		return
	}

	byID := make(map[string]*feature.Feature, len(features))
	for i := range features {
		byID[features[i].ID] = &features[i]
	}

	var candidates []*feature.Feature
	for i := range features {
		f := &features[i]
		if !feature.EligibleForDispatch(f, byID, o.skipVerification) {
			continue
		}
		if o.registry.Has(f.ID) {
			continue
		}
		candidates = append(candidates, f)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	for _, f := range candidates {
		if o.registry.CountForProject(projectPath) >= h.maxConcurrency {
			return
		}
		entry := Entry{FeatureID: f.ID, ProjectPath: projectPath, IsAutoMode: true}
		if !o.registry.Insert(entry) {
			// Claimed by a concurrent resume since we filtered.
			continue
		}
		o.dispatch(ctx, entry, f, h)
	}
}

// dispatch transitions the claimed feature to in_progress and launches its
// execution. The registry entry is already held; on a store failure the
// claim is released and the feature is skipped this round.
func (o *Orchestrator) dispatch(ctx context.Context, entry Entry, f *feature.Feature, h *loopHandle) {
	if err := o.store.UpdateStatus(ctx, entry.ProjectPath, f.ID, feature.StatusInProgress); err != nil {
		o.logger.Error("failed to mark feature in progress, releasing claim",
			"project", entry.ProjectPath, "feature", f.ID, "error", err)
		o.registry.Remove(f.ID)
		return
	}

	o.logger.Info("feature dispatched",
		"project", entry.ProjectPath, "feature", f.ID, "status", feature.StatusInProgress,
		"reason", "auto-loop pickup", "priority", f.Priority)
	o.notify(ctx, notify.EventDispatch, fmt.Sprintf("dispatching feature %s (%s)", f.ID, f.Title))
	o.metrics.DispatchesTotal.WithLabelValues(entry.ProjectPath).Inc()
	o.metrics.RunningFeatures.WithLabelValues(entry.ProjectPath).Set(float64(o.registry.CountForProject(entry.ProjectPath)))

	opts := executor.Options{
		Model:           f.Model,
		ThinkingLevel:   f.ThinkingLevel,
		ReasoningEffort: f.ReasoningEffort,
		PlanningMode:    f.PlanningMode,
		WorkMode:        f.WorkMode,
		SkipTests:       f.SkipTests,
	}
	go func() {
		err := o.exec.Execute(ctx, entry.ProjectPath, entry.FeatureID, opts)
		h.completions <- completion{entry: entry, err: err}
	}()
}

// settle records a terminal state for a finished execution and destroys the
// registry entry.
func (o *Orchestrator) settle(ctx context.Context, c completion) {
	status := feature.StatusCompleted
	event := notify.EventComplete
	reason := "execution completed"
	if c.err != nil {
		status = feature.StatusFailed
		event = notify.EventFailure
		reason = "execution failed"
		o.metrics.FailuresTotal.WithLabelValues(c.entry.ProjectPath).Inc()
	} else {
		o.metrics.CompletionsTotal.WithLabelValues(c.entry.ProjectPath).Inc()
	}

	o.registry.Remove(c.entry.FeatureID)
	o.metrics.RunningFeatures.WithLabelValues(c.entry.ProjectPath).Set(float64(o.registry.CountForProject(c.entry.ProjectPath)))

	if err := o.store.UpdateStatus(ctx, c.entry.ProjectPath, c.entry.FeatureID, status); err != nil {
		o.logger.Error("failed to record terminal status",
			"project", c.entry.ProjectPath, "feature", c.entry.FeatureID, "status", status, "error", err)
	}

	o.logger.Info("feature settled",
		"project", c.entry.ProjectPath, "feature", c.entry.FeatureID,
		"status", status, "reason", reason, "error", c.err)
	o.notify(ctx, event, fmt.Sprintf("feature %s: %s", c.entry.FeatureID, reason))
}

func (o *Orchestrator) notify(ctx context.Context, eventType, message string) {
	if o.sink == nil {
		return
	}
	if err := o.sink.Notify(ctx, eventType, message); err != nil {
		o.logger.Warn("event sink failed", "event", eventType, "error", err)
	}
}
