package executor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"

	"github.com/kballard/go-shellquote"
)

// LocalExecutor runs the agent as a child process in the project directory.
// The command receives the feature context through OVERSEER_* environment
// variables.
type LocalExecutor struct {
	// Command is the agent invocation, parsed with shell quoting rules.
	Command string
	Logger  *slog.Logger
}

// NewLocalExecutor creates a process-based executor.
func NewLocalExecutor(command string, logger *slog.Logger) *LocalExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalExecutor{Command: command, Logger: logger}
}

var _ Executor = (*LocalExecutor)(nil)

// Execute runs the agent command and blocks until it exits.
func (e *LocalExecutor) Execute(ctx context.Context, projectPath, featureID string, opts Options) error {
	if e.Command == "" {
		return fmt.Errorf("no agent command configured")
	}

	args, err := shellquote.Split(e.Command)
	if err != nil || len(args) == 0 {
		return fmt.Errorf("invalid agent command %q: %w", e.Command, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = projectPath
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(),
		"OVERSEER_PROJECT="+projectPath,
		"OVERSEER_FEATURE_ID="+featureID,
		"OVERSEER_RECOVERY="+strconv.FormatBool(opts.IsRecovery),
		"OVERSEER_MODEL="+opts.Model,
		"OVERSEER_THINKING_LEVEL="+opts.ThinkingLevel,
		"OVERSEER_REASONING_EFFORT="+opts.ReasoningEffort,
		"OVERSEER_PLANNING_MODE="+opts.PlanningMode,
		"OVERSEER_WORK_MODE="+opts.WorkMode,
		"OVERSEER_SKIP_TESTS="+strconv.FormatBool(opts.SkipTests),
	)

	e.Logger.Info("running agent", "feature", featureID, "project", projectPath, "recovery", opts.IsRecovery)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("agent for feature %s failed: %w\nStderr: %s", featureID, err, stderr.String())
	}
	return nil
}
