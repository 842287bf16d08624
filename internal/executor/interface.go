package executor

import "context"

// Options carries per-feature execution parameters. The orchestration core
// treats the hint fields as opaque and passes them through.
type Options struct {
	// IsRecovery marks a resume of previously interrupted work, so the
	// agent can account for partial prior progress instead of starting
	// fresh.
	IsRecovery bool

	Model           string
	ThinkingLevel   string
	ReasoningEffort string
	PlanningMode    string
	WorkMode        string
	SkipTests       bool
}

// Executor runs a feature to completion. Execute blocks until the agent
// finishes and returns nil on success; timeouts and retries are owned by
// the executor, not by its callers.
type Executor interface {
	Execute(ctx context.Context, projectPath, featureID string, opts Options) error
}
