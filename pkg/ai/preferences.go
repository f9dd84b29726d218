package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/telemetry"
)

// FeedbackAction is the closed set of actions a user may take on a
// suggestion.
type FeedbackAction string

const (
	ActionApproved FeedbackAction = "approved"
	ActionEdited   FeedbackAction = "edited"
	ActionRejected FeedbackAction = "rejected"
	ActionIgnored  FeedbackAction = "ignored"
)

// RecordFeedbackParams carries one feedback event.
type RecordFeedbackParams struct {
	SuggestionID    uuid.UUID
	UserID          uuid.UUID
	Action          FeedbackAction
	OriginalContent *string
	EditedContent   *string
	DecisionLatency time.Duration
}

// RecordFeedback persists a feedback row (computing the Edit Delta when
// Action is "edited"), then applies the preference update law (spec
// §4.4.4) to the acting user's learned preferences. An approving decision
// additionally triggers execution via exec, when exec is non-nil — an
// auto_execute suggestion has no pending feedback to approve, so this is
// the only actuation path for hitl_approve/hitl_edit suggestions.
func RecordFeedback(ctx context.Context, q *db.Queries, exec *Executor, p RecordFeedbackParams) (db.AIFeedback, error) {
	suggestion, err := q.GetSuggestion(ctx, p.SuggestionID)
	if err != nil {
		return db.AIFeedback{}, fmt.Errorf("fetching suggestion: %w", err)
	}

	var deltaJSON []byte
	if p.Action == ActionEdited && p.OriginalContent != nil && p.EditedContent != nil {
		delta := ComputeEditDelta(*p.OriginalContent, *p.EditedContent)
		deltaJSON, err = json.Marshal(delta)
		if err != nil {
			return db.AIFeedback{}, fmt.Errorf("marshaling edit delta: %w", err)
		}
	}

	feedback, err := q.CreateFeedback(ctx, db.AIFeedback{
		SuggestionID:               p.SuggestionID,
		Action:                     string(p.Action),
		OriginalContent:            p.OriginalContent,
		EditedContent:              p.EditedContent,
		EditDelta:                  deltaJSON,
		DecisionLatencyMS:          p.DecisionLatency.Milliseconds(),
		ConfidenceAtGeneration:     suggestion.Confidence,
		ContextQualityAtGeneration: suggestion.ContextQuality,
	})
	if err != nil {
		return db.AIFeedback{}, fmt.Errorf("recording feedback: %w", err)
	}

	telemetry.FeedbackTotal.WithLabelValues(string(p.Action)).Inc()

	if err := applyPreferenceUpdate(ctx, q, p.UserID, p.Action, deltaJSON); err != nil {
		return feedback, fmt.Errorf("applying preference update: %w", err)
	}

	if p.Action == ActionApproved && exec != nil {
		if err := exec.Execute(ctx, suggestion); err != nil {
			return feedback, fmt.Errorf("executing approved suggestion: %w", err)
		}
	}
	return feedback, nil
}

// applyPreferenceUpdate implements the spec §4.4.4 update law: counters
// always advance; learned tone/length/CTA/bullet preferences only move on
// a non-"same" edit delta signal.
func applyPreferenceUpdate(ctx context.Context, q *db.Queries, userID uuid.UUID, action FeedbackAction, deltaJSON []byte) error {
	prefs, err := q.GetUserAIPreferences(ctx, userID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		prefs = defaultUserAIPreferences(userID)
	}

	prefs.TotalSuggestions++
	switch action {
	case ActionApproved:
		prefs.Approvals++
	case ActionEdited:
		prefs.Edits++
	case ActionRejected:
		prefs.Rejections++
	case ActionIgnored:
		prefs.Ignored++
	}

	if len(deltaJSON) > 0 {
		var delta EditDelta
		if err := json.Unmarshal(deltaJSON, &delta); err != nil {
			return fmt.Errorf("decoding edit delta: %w", err)
		}

		if delta.ToneShift != ToneSame {
			tone := string(delta.ToneShift)
			prefs.PreferredTone = &tone
		}
		if delta.LengthChange != LengthSame {
			length := string(delta.LengthChange)
			prefs.PreferredLength = &length
		}
		if delta.AddedCTA {
			v := true
			prefs.PrefersCTAs = &v
		}
		if delta.RemovedCTA {
			v := false
			prefs.PrefersCTAs = &v
		}
		if delta.AddedBulletPoints {
			v := true
			prefs.PrefersBullets = &v
		}
	}

	_, err = q.UpsertUserAIPreferences(ctx, prefs)
	return err
}

func defaultUserAIPreferences(userID uuid.UUID) db.UserAIPreferences {
	return db.UserAIPreferences{
		UserID:                userID,
		AutoApproveThreshold:  85,
		NotificationFrequency: "realtime",
	}
}

// RecordOutcomeParams carries a later, optional outcome closure for one
// feedback row (spec §4.4.4 "Outcome measurement").
type RecordOutcomeParams struct {
	FeedbackID uuid.UUID
	Positive   bool
	Kind       string
}

// RecordOutcome sets outcome_measured/positive/kind exactly once per
// feedback row: idempotent and monotonic, per spec.
func RecordOutcome(ctx context.Context, q *db.Queries, p RecordOutcomeParams) error {
	return q.SetFeedbackOutcome(ctx, p.FeedbackID, p.Positive, p.Kind)
}
