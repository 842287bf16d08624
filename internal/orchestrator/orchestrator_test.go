package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overseer/internal/executor"
	"overseer/internal/feature"
)

const proj = "/tmp/projects/demo"

func pendingFeature(id string, priority int, deps ...string) feature.Feature {
	return feature.Feature{
		ID:           id,
		Title:        "Feature " + id,
		Status:       feature.StatusPending,
		Priority:     priority,
		Dependencies: deps,
		CreatedAt:    time.Now(),
	}
}

func TestStartAutoLoop_AlreadyRunning(t *testing.T) {
	o := newTestOrchestrator(newMockStore(), executor.NewMockExecutor())
	defer o.StopAutoLoop(proj)

	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 2))
	err := o.StartAutoLoop(context.Background(), proj, 2)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	// A different project is independent.
	require.NoError(t, o.StartAutoLoop(context.Background(), proj+"-other", 1))
	o.StopAutoLoop(proj + "-other")
}

func TestStopAutoLoop_Idempotent(t *testing.T) {
	o := newTestOrchestrator(newMockStore(), executor.NewMockExecutor())

	assert.Equal(t, 0, o.StopAutoLoop(proj), "stop without a running loop returns 0")

	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 2))
	o.StopAutoLoop(proj)
	assert.Equal(t, 0, o.StopAutoLoop(proj), "second stop returns 0")
}

func TestAutoLoop_DispatchesAndCompletes(t *testing.T) {
	s := newMockStore()
	s.put(proj, pendingFeature("f1", 1))
	exec := executor.NewMockExecutor()
	o := newTestOrchestrator(s, exec)
	defer o.StopAutoLoop(proj)

	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 2))

	require.Eventually(t, func() bool {
		return s.status(proj, "f1") == feature.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	assert.False(t, o.IsFeatureRunning("f1"), "registry entry destroyed on terminal state")
	calls := exec.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, proj, calls[0].ProjectPath)
	assert.False(t, calls[0].Opts.IsRecovery)
}

func TestAutoLoop_FailureMarksFailed(t *testing.T) {
	s := newMockStore()
	s.put(proj, pendingFeature("bad", 1))
	exec := executor.NewMockExecutor()
	exec.FailWith("bad", errors.New("agent exploded"))
	o := newTestOrchestrator(s, exec)
	defer o.StopAutoLoop(proj)

	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 1))

	require.Eventually(t, func() bool {
		return s.status(proj, "bad") == feature.StatusFailed
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, o.IsFeatureRunning("bad"))
}

func TestAutoLoop_ConcurrencyCeiling(t *testing.T) {
	s := newMockStore()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		s.put(proj, pendingFeature(id, 1))
	}
	exec := executor.NewMockExecutor()
	started := exec.Block()
	defer exec.Release()

	o := newTestOrchestrator(s, exec)
	defer o.StopAutoLoop(proj)
	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 2))

	<-started
	<-started

	// Give the loop extra ticks to (incorrectly) over-dispatch.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, o.Registry().CountForProject(proj))
	select {
	case id := <-started:
		t.Fatalf("feature %s dispatched beyond the concurrency ceiling", id)
	default:
	}
}

func TestAutoLoop_DependencyGating(t *testing.T) {
	s := newMockStore()
	dep := pendingFeature("dep", 5)
	s.put(proj, dep)
	s.put(proj, pendingFeature("child", 9, "dep"))

	exec := executor.NewMockExecutor()
	started := exec.Block()
	defer exec.Release()

	o := newTestOrchestrator(s, exec)
	defer o.StopAutoLoop(proj)
	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 4))

	// Only the dependency may start; the child is blocked despite its
	// higher priority.
	first := <-started
	assert.Equal(t, "dep", first)
	select {
	case id := <-started:
		t.Fatalf("feature %s dispatched while its dependency was running", id)
	case <-time.After(100 * time.Millisecond):
	}

	exec.Release()
	require.Eventually(t, func() bool {
		return s.status(proj, "child") == feature.StatusCompleted
	}, 2*time.Second, 5*time.Millisecond)
}

func TestAutoLoop_FailedDependencyBlocks(t *testing.T) {
	s := newMockStore()
	failed := pendingFeature("dep", 1)
	failed.Status = feature.StatusFailed
	s.put(proj, failed)
	s.put(proj, pendingFeature("child", 1, "dep"))

	exec := executor.NewMockExecutor()
	o := newTestOrchestrator(s, exec)
	defer o.StopAutoLoop(proj)
	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 2))

	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, exec.Calls(), "a failed dependency must block dispatch")
	assert.Equal(t, feature.StatusPending, s.status(proj, "child"))
}

func TestAutoLoop_PriorityOrder(t *testing.T) {
	s := newMockStore()
	s.put(proj, pendingFeature("low", 1))
	s.put(proj, pendingFeature("high", 10))

	exec := executor.NewMockExecutor()
	started := exec.Block()
	defer exec.Release()

	o := newTestOrchestrator(s, exec)
	defer o.StopAutoLoop(proj)
	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 1))

	assert.Equal(t, "high", <-started, "highest priority feature dispatches first")
}

func TestStopAutoLoop_ReportsInFlight(t *testing.T) {
	s := newMockStore()
	s.put(proj, pendingFeature("a", 1))
	s.put(proj, pendingFeature("b", 1))

	exec := executor.NewMockExecutor()
	started := exec.Block()
	defer exec.Release()

	o := newTestOrchestrator(s, exec)
	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 2))
	<-started
	<-started

	assert.Equal(t, 2, o.StopAutoLoop(proj))
}

func TestGetRunningAgents_Empty(t *testing.T) {
	o := newTestOrchestrator(newMockStore(), executor.NewMockExecutor())
	agents := o.GetRunningAgents(context.Background())
	assert.NotNil(t, agents)
	assert.Empty(t, agents)
}

func TestGetRunningAgents_ConcurrentEnrichment(t *testing.T) {
	s := newMockStore()
	ids := []string{"f1", "f2", "f3", "f4"}
	for _, id := range ids {
		s.put(proj, feature.Feature{ID: id, Title: "Title " + id, Description: "Desc " + id, Status: feature.StatusInProgress})
	}
	s.getDelay = 100 * time.Millisecond

	o := newTestOrchestrator(s, executor.NewMockExecutor())
	for _, id := range ids {
		o.Registry().Insert(Entry{FeatureID: id, ProjectPath: proj, IsAutoMode: true})
	}

	start := time.Now()
	agents := o.GetRunningAgents(context.Background())
	elapsed := time.Since(start)

	require.Len(t, agents, 4)
	assert.Less(t, elapsed, 250*time.Millisecond,
		"lookups must run concurrently: wall time ~ one lookup, not N lookups")
	assert.Equal(t, "Title f1", agents[0].Title)
	assert.Equal(t, "demo", agents[0].ProjectName)
	assert.True(t, agents[0].IsAutoMode)
}

func TestGetRunningAgents_DegradesPerEntry(t *testing.T) {
	s := newMockStore()
	s.put(proj, feature.Feature{ID: "good", Title: "Good", Status: feature.StatusInProgress})
	s.getErr["broken"] = errors.New("db gone")

	o := newTestOrchestrator(s, executor.NewMockExecutor())
	o.Registry().Insert(Entry{FeatureID: "broken", ProjectPath: proj})
	o.Registry().Insert(Entry{FeatureID: "good", ProjectPath: proj})
	o.Registry().Insert(Entry{FeatureID: "missing", ProjectPath: proj})

	agents := o.GetRunningAgents(context.Background())
	require.Len(t, agents, 3)

	byID := map[string]RunningAgent{}
	for _, a := range agents {
		byID[a.FeatureID] = a
	}
	assert.Equal(t, "Good", byID["good"].Title)
	assert.Empty(t, byID["broken"].Title, "failed lookup degrades, not fails")
	assert.Empty(t, byID["missing"].Title)
}

func TestIsFeatureRunning_TracksRegistry(t *testing.T) {
	s := newMockStore()
	s.put(proj, pendingFeature("f1", 1))
	exec := executor.NewMockExecutor()
	started := exec.Block()

	o := newTestOrchestrator(s, exec)
	defer o.StopAutoLoop(proj)

	assert.False(t, o.IsFeatureRunning("f1"))
	require.NoError(t, o.StartAutoLoop(context.Background(), proj, 1))
	<-started
	assert.True(t, o.IsFeatureRunning("f1"))

	exec.Release()
	require.Eventually(t, func() bool {
		return !o.IsFeatureRunning("f1")
	}, 2*time.Second, 5*time.Millisecond)
}
