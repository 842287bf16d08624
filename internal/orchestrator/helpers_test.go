package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"overseer/internal/executor"
	"overseer/internal/feature"
	"overseer/internal/store"
	"overseer/internal/telemetry"
)

// mockStore is an in-memory store.Store with injectable failures and an
// artificial read delay for the enrichment-parallelism test.
type mockStore struct {
	mu        sync.Mutex
	features  map[string]map[string]*feature.Feature
	getAllErr error
	getErr    map[string]error
	updateErr map[string]error
	getDelay  time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{
		features:  make(map[string]map[string]*feature.Feature),
		getErr:    make(map[string]error),
		updateErr: make(map[string]error),
	}
}

func (m *mockStore) put(projectPath string, f feature.Feature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.features[projectPath] == nil {
		m.features[projectPath] = make(map[string]*feature.Feature)
	}
	cp := f
	m.features[projectPath][f.ID] = &cp
}

func (m *mockStore) status(projectPath, id string) feature.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.features[projectPath][id]; ok {
		return f.Status
	}
	return ""
}

func (m *mockStore) GetAll(_ context.Context, projectPath string) ([]feature.Feature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getAllErr != nil {
		return nil, m.getAllErr
	}
	var out []feature.Feature
	for _, f := range m.features[projectPath] {
		out = append(out, *f)
	}
	return out, nil
}

func (m *mockStore) Get(_ context.Context, projectPath, id string) (*feature.Feature, error) {
	m.mu.Lock()
	delay := m.getDelay
	err := m.getErr[id]
	var cp *feature.Feature
	if f, ok := m.features[projectPath][id]; ok {
		v := *f
		cp = &v
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}
	return cp, nil
}

func (m *mockStore) Save(_ context.Context, projectPath string, f *feature.Feature) error {
	m.put(projectPath, *f)
	return nil
}

func (m *mockStore) UpdateStatus(_ context.Context, projectPath, id string, status feature.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.updateErr[id]; err != nil {
		return err
	}
	f, ok := m.features[projectPath][id]
	if !ok {
		return store.ErrNotFound
	}
	f.Status = status
	return nil
}

func (m *mockStore) Close() error { return nil }

var _ store.Store = (*mockStore)(nil)

func newTestOrchestrator(s store.Store, e executor.Executor) *Orchestrator {
	return New(Config{
		Store:        s,
		Executor:     e,
		Logger:       slog.Default(),
		Metrics:      telemetry.NewMetrics(),
		PollInterval: 10 * time.Millisecond,
	})
}
