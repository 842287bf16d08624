package notify

import "context"

// Lifecycle event types.
const (
	EventAutoStart = "on_auto_start"
	EventAutoStop  = "on_auto_stop"
	EventDispatch  = "on_dispatch"
	EventComplete  = "on_complete"
	EventFailure   = "on_failure"
	EventInterrupt = "on_interrupt"
	EventRecovery  = "on_recovery"
	EventApproval  = "on_approval"
)

// Sink receives lifecycle notifications from the orchestration core.
type Sink interface {
	Notify(ctx context.Context, eventType string, message string) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, eventType string, message string) error

func (f SinkFunc) Notify(ctx context.Context, eventType string, message string) error {
	return f(ctx, eventType, message)
}
