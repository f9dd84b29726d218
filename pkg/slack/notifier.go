package slack

import (
	"context"
	"fmt"
	"log/slog"

	goslack "github.com/slack-go/slack"
)

// Notifier sends AI-drafted messages to Slack channels or DMs, backing the
// AI pipeline's send_slack_message action.
type Notifier struct {
	client *goslack.Client
	logger *slog.Logger
}

// NewNotifier creates a Slack Notifier. If botToken is empty, the notifier
// is a noop (logging only) — used in environments with no Slack app
// configured for the tenant.
func NewNotifier(botToken string, logger *slog.Logger) *Notifier {
	var client *goslack.Client
	if botToken != "" {
		client = goslack.New(botToken)
	}
	return &Notifier{client: client, logger: logger}
}

// IsEnabled returns true if the notifier has a valid Slack client.
func (n *Notifier) IsEnabled() bool {
	return n.client != nil
}

// SendMessage posts drafted content to a channel or user ID. Returns the
// message timestamp, used as the related_entity_ref recorded against the
// originating suggestion.
func (n *Notifier) SendMessage(ctx context.Context, channelOrUserID, text string) (ts string, err error) {
	if !n.IsEnabled() {
		n.logger.Debug("slack notifier disabled, skipping send", "target", channelOrUserID)
		return "", nil
	}

	_, ts, err = n.client.PostMessageContext(ctx, channelOrUserID, goslack.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("posting message to slack: %w", err)
	}
	return ts, nil
}
