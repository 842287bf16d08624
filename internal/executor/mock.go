package executor

import (
	"context"
	"sync"
	"time"
)

// Call records one Execute invocation for assertions and mock-mode logs.
type Call struct {
	ProjectPath string
	FeatureID   string
	Opts        Options
}

// MockExecutor is a scriptable executor for tests and --mock runs. It
// succeeds by default; per-feature errors and an artificial delay can be
// injected.
type MockExecutor struct {
	mu      sync.Mutex
	calls   []Call
	errs    map[string]error
	Delay   time.Duration
	started chan string
	release chan struct{}
}

// NewMockExecutor creates a mock that completes every feature successfully.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{errs: make(map[string]error)}
}

// FailWith makes executions of featureID return err.
func (m *MockExecutor) FailWith(featureID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[featureID] = err
}

// Block makes Execute announce starts on the returned channel and park until
// Release is called, letting tests observe in-flight state deterministically.
func (m *MockExecutor) Block() <-chan string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = make(chan string, 64)
	m.release = make(chan struct{})
	return m.started
}

// Release unparks all blocked executions.
func (m *MockExecutor) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.release != nil {
		close(m.release)
		m.release = nil
	}
}

// Calls returns a copy of all recorded invocations.
func (m *MockExecutor) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Executor = (*MockExecutor)(nil)

// Execute records the call and returns the scripted outcome.
func (m *MockExecutor) Execute(ctx context.Context, projectPath, featureID string, opts Options) error {
	m.mu.Lock()
	m.calls = append(m.calls, Call{ProjectPath: projectPath, FeatureID: featureID, Opts: opts})
	err := m.errs[featureID]
	started := m.started
	release := m.release
	m.mu.Unlock()

	if started != nil {
		started <- featureID
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
