package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meridiancrm/core/internal/db"
)

// SlackSender is the minimal surface pkg/slack.Notifier exposes, kept as an
// interface here so this package never imports a transport client directly.
type SlackSender interface {
	SendMessage(ctx context.Context, channelOrUserID, text string) (string, error)
}

// Executor carries out the narrow set of AI actions with a concrete
// integration behind them. Per spec §1/§9, actuation is in scope only far
// enough to exercise send_slack_message's routing decision end to end — the
// other action kinds (send_email, schedule_meeting, ...) are recorded and
// routed but never actually dispatched by this package.
type Executor struct {
	slack SlackSender
}

// NewExecutor builds an Executor. slack may be nil, in which case
// send_slack_message suggestions are routed but silently not delivered.
func NewExecutor(slack SlackSender) *Executor {
	return &Executor{slack: slack}
}

type slackSuggestionRefs struct {
	Channel string `json:"channel"`
}

// Execute dispatches a suggestion that has cleared routing (auto_execute, or
// hitl_approve/hitl_edit followed by an approving feedback event). Every
// action kind other than send_slack_message is a no-op here.
func (e *Executor) Execute(ctx context.Context, suggestion db.AISuggestion) error {
	if ActionKind(suggestion.ActionKind) != ActionSendSlackMessage {
		return nil
	}
	if e.slack == nil {
		return nil
	}

	var refs slackSuggestionRefs
	if len(suggestion.RelatedEntityRefs) > 0 {
		if err := json.Unmarshal(suggestion.RelatedEntityRefs, &refs); err != nil {
			return fmt.Errorf("decoding related entity refs: %w", err)
		}
	}
	if refs.Channel == "" {
		return fmt.Errorf("suggestion %s has no slack channel recorded", suggestion.ID)
	}

	_, err := e.slack.SendMessage(ctx, refs.Channel, suggestion.DraftedContent)
	return err
}
