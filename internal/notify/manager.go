package notify

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/viper"
)

// Manager fans lifecycle events out to registered sinks. Sink failures are
// logged and swallowed: notifications are advisory and must never block or
// fail an orchestration operation.
type Manager struct {
	mu     sync.RWMutex
	sinks  []Sink
	logger *slog.Logger
}

// NewManager creates a Manager and wires the Slack sink when configured.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger}

	if viper.GetBool("notifications.slack.enabled") {
		token := os.Getenv("SLACK_BOT_USER_TOKEN")
		if token == "" {
			logger.Warn("SLACK_BOT_USER_TOKEN not set, slack notifications disabled")
		} else {
			m.Subscribe(NewSlackNotifier(token, viper.GetString("notifications.slack.channel")))
		}
	}

	return m
}

// Subscribe registers an additional sink.
func (m *Manager) Subscribe(s Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sinks = append(m.sinks, s)
}

// Notify delivers the event to every sink, honoring the per-event enable
// flags in configuration. It never returns an error.
func (m *Manager) Notify(ctx context.Context, eventType string, message string) error {
	if !m.eventEnabled(eventType) {
		return nil
	}

	m.mu.RLock()
	sinks := make([]Sink, len(m.sinks))
	copy(sinks, m.sinks)
	m.mu.RUnlock()

	for _, s := range sinks {
		if err := s.Notify(ctx, eventType, message); err != nil {
			m.logger.Warn("notification sink failed", "event", eventType, "error", err)
		}
	}
	return nil
}

func (m *Manager) eventEnabled(eventType string) bool {
	key := "notifications.events." + eventType
	if !viper.IsSet(key) {
		return true
	}
	return viper.GetBool(key)
}
