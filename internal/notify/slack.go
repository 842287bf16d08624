package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// slackPoster is the subset of *slack.Client we use, extracted for mocking.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackNotifier posts lifecycle events to a Slack channel.
type SlackNotifier struct {
	client  slackPoster
	channel string
}

// NewSlackNotifier creates a notifier using a bot token.
func NewSlackNotifier(botToken, channel string) *SlackNotifier {
	if channel == "" {
		channel = "#general"
	}
	return &SlackNotifier{
		client:  slack.New(botToken),
		channel: channel,
	}
}

// Notify posts the message, prefixed with the event type.
func (s *SlackNotifier) Notify(ctx context.Context, eventType string, message string) error {
	text := fmt.Sprintf("[%s] %s", eventType, message)
	_, _, err := s.client.PostMessageContext(ctx, s.channel, slack.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("slack notification failed: %w", err)
	}
	return nil
}
