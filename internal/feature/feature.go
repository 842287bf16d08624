package feature

import "time"

// Status represents the lifecycle state of a feature.
type Status string

const (
	StatusBacklog         Status = "backlog"
	StatusPending         Status = "pending"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusFailed          Status = "failed"
	StatusWaitingApproval Status = "waiting_approval"
	StatusInterrupted     Status = "interrupted"
	StatusVerified        Status = "verified"

	// Pipeline sub-states are distinct variants of "running", not synonyms:
	// they encode which step of a multi-phase execution the feature was in,
	// and interruption handling must preserve them.
	StatusPipelineImplementation Status = "pipeline_implementation"
	StatusPipelineTesting        Status = "pipeline_testing"
	StatusPipelineReview         Status = "pipeline_review"
)

// AllStatuses enumerates every valid status value.
var AllStatuses = []Status{
	StatusBacklog,
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusFailed,
	StatusWaitingApproval,
	StatusInterrupted,
	StatusVerified,
	StatusPipelineImplementation,
	StatusPipelineTesting,
	StatusPipelineReview,
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// IsPipelineState reports whether s is a mid-execution pipeline sub-state.
func (s Status) IsPipelineState() bool {
	switch s {
	case StatusPipelineImplementation, StatusPipelineTesting, StatusPipelineReview:
		return true
	}
	return false
}

// IsRunning reports whether s denotes an execution currently in flight,
// either the generic in-progress status or a pipeline sub-state.
func (s Status) IsRunning() bool {
	return s == StatusInProgress || s.IsPipelineState()
}

// IsTerminal reports whether s is a final state needing no further execution.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusVerified:
		return true
	}
	return false
}

// SatisfiesDependency reports whether a feature in this status unblocks
// features that depend on it.
func (s Status) SatisfiesDependency() bool {
	return s == StatusCompleted || s == StatusVerified
}

// Revision is one historical version of a feature's description.
type Revision struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Feature is a discrete unit of work tracked through its lifecycle.
type Feature struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Status      Status `json:"status"`

	// Priority orders dispatch: higher values are picked up first.
	Priority   int    `json:"priority"`
	Complexity string `json:"complexity,omitempty"`

	// Dependencies lists feature IDs that must complete before this
	// feature is eligible for dispatch.
	Dependencies []string `json:"dependencies,omitempty"`

	// BranchName is the git branch backing this feature, if any.
	BranchName string `json:"branch_name,omitempty"`

	// Execution hints, opaque to the orchestrator and passed through to
	// the agent executor.
	Model           string `json:"model,omitempty"`
	ThinkingLevel   string `json:"thinking_level,omitempty"`
	ReasoningEffort string `json:"reasoning_effort,omitempty"`

	PlanningMode        string `json:"planning_mode,omitempty"`
	RequirePlanApproval bool   `json:"require_plan_approval,omitempty"`
	SkipTests           bool   `json:"skip_tests,omitempty"`
	WorkMode            string `json:"work_mode,omitempty"`

	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DescriptionHistory []Revision `json:"description_history,omitempty"`
}

// EligibleForDispatch reports whether f may be handed to the executor given
// the current state of its dependencies. byID must contain every known
// feature for the project, keyed by ID.
//
// A dependency satisfies the gate when it is completed or verified. With
// skipVerification enabled the gate is relaxed for unfinished dependencies,
// but a failed dependency always blocks: dispatching on top of known-broken
// work is never useful.
func EligibleForDispatch(f *Feature, byID map[string]*Feature, skipVerification bool) bool {
	if f.Status != StatusPending {
		return false
	}
	for _, depID := range f.Dependencies {
		dep, ok := byID[depID]
		if !ok {
			// Unknown dependency record: block rather than dispatch blind.
			return false
		}
		if dep.Status == StatusFailed {
			return false
		}
		if skipVerification {
			continue
		}
		if !dep.Status.SatisfiesDependency() {
			return false
		}
	}
	return true
}
