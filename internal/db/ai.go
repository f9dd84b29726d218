package db

import (
	"context"

	"github.com/google/uuid"
)

// CreateSuggestion records a newly generated AI suggestion.
func (q *Queries) CreateSuggestion(ctx context.Context, s AISuggestion) (AISuggestion, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO ai_suggestions (
			id, action_kind, confidence, context_quality, drafted_content,
			routing_decision, related_entity_refs, generated_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, now())
		RETURNING id, action_kind, confidence, context_quality, drafted_content,
		          routing_decision, related_entity_refs, generated_at
	`, s.ActionKind, s.Confidence, s.ContextQuality, s.DraftedContent, s.RoutingDecision, s.RelatedEntityRefs)

	var out AISuggestion
	err := row.Scan(&out.ID, &out.ActionKind, &out.Confidence, &out.ContextQuality,
		&out.DraftedContent, &out.RoutingDecision, &out.RelatedEntityRefs, &out.GeneratedAt)
	return out, err
}

// GetSuggestion fetches a suggestion by id.
func (q *Queries) GetSuggestion(ctx context.Context, id uuid.UUID) (AISuggestion, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, action_kind, confidence, context_quality, drafted_content,
		       routing_decision, related_entity_refs, generated_at
		FROM ai_suggestions
		WHERE id = $1
	`, id)

	var out AISuggestion
	err := row.Scan(&out.ID, &out.ActionKind, &out.Confidence, &out.ContextQuality,
		&out.DraftedContent, &out.RoutingDecision, &out.RelatedEntityRefs, &out.GeneratedAt)
	return out, err
}

// CreateFeedback records a feedback event against a suggestion.
func (q *Queries) CreateFeedback(ctx context.Context, f AIFeedback) (AIFeedback, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO ai_feedback (
			id, suggestion_id, action, original_content, edited_content,
			edit_delta, decision_latency_ms, outcome_measured, outcome_positive,
			outcome_kind, confidence_at_generation, context_quality_at_generation,
			created_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING id, suggestion_id, action, original_content, edited_content,
		          edit_delta, decision_latency_ms, outcome_measured, outcome_positive,
		          outcome_kind, confidence_at_generation, context_quality_at_generation, created_at
	`, f.SuggestionID, f.Action, f.OriginalContent, f.EditedContent, f.EditDelta,
		f.DecisionLatencyMS, f.OutcomeMeasured, f.OutcomePositive, f.OutcomeKind,
		f.ConfidenceAtGeneration, f.ContextQualityAtGeneration)

	var out AIFeedback
	err := row.Scan(&out.ID, &out.SuggestionID, &out.Action, &out.OriginalContent,
		&out.EditedContent, &out.EditDelta, &out.DecisionLatencyMS, &out.OutcomeMeasured,
		&out.OutcomePositive, &out.OutcomeKind, &out.ConfidenceAtGeneration,
		&out.ContextQualityAtGeneration, &out.CreatedAt)
	return out, err
}

// GetUserAIPreferences fetches a user's learned preference row, returning
// pgx.ErrNoRows for a user who has never received a suggestion.
func (q *Queries) GetUserAIPreferences(ctx context.Context, userID uuid.UUID) (UserAIPreferences, error) {
	row := q.db.QueryRow(ctx, `
		SELECT user_id, preferred_tone, preferred_length, prefers_ctas,
		       prefers_bullets, total_suggestions, approvals, edits, rejections,
		       ignored, auto_approve_threshold, always_hitl_actions,
		       never_auto_send, notification_frequency, preferred_channels
		FROM user_ai_preferences
		WHERE user_id = $1
	`, userID)

	var p UserAIPreferences
	err := row.Scan(&p.UserID, &p.PreferredTone, &p.PreferredLength, &p.PrefersCTAs,
		&p.PrefersBullets, &p.TotalSuggestions, &p.Approvals, &p.Edits, &p.Rejections,
		&p.Ignored, &p.AutoApproveThreshold, &p.AlwaysHITLActions, &p.NeverAutoSend,
		&p.NotificationFrequency, &p.PreferredChannels)
	return p, err
}

// UpsertUserAIPreferences writes the full preference row, used both to seed
// defaults on first suggestion and to persist the incremental update law
// after each feedback event.
func (q *Queries) UpsertUserAIPreferences(ctx context.Context, p UserAIPreferences) (UserAIPreferences, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO user_ai_preferences (
			user_id, preferred_tone, preferred_length, prefers_ctas,
			prefers_bullets, total_suggestions, approvals, edits, rejections,
			ignored, auto_approve_threshold, always_hitl_actions,
			never_auto_send, notification_frequency, preferred_channels
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (user_id) DO UPDATE SET
			preferred_tone = EXCLUDED.preferred_tone,
			preferred_length = EXCLUDED.preferred_length,
			prefers_ctas = EXCLUDED.prefers_ctas,
			prefers_bullets = EXCLUDED.prefers_bullets,
			total_suggestions = EXCLUDED.total_suggestions,
			approvals = EXCLUDED.approvals,
			edits = EXCLUDED.edits,
			rejections = EXCLUDED.rejections,
			ignored = EXCLUDED.ignored,
			auto_approve_threshold = EXCLUDED.auto_approve_threshold,
			always_hitl_actions = EXCLUDED.always_hitl_actions,
			never_auto_send = EXCLUDED.never_auto_send,
			notification_frequency = EXCLUDED.notification_frequency,
			preferred_channels = EXCLUDED.preferred_channels
		RETURNING user_id, preferred_tone, preferred_length, prefers_ctas,
		          prefers_bullets, total_suggestions, approvals, edits, rejections,
		          ignored, auto_approve_threshold, always_hitl_actions,
		          never_auto_send, notification_frequency, preferred_channels
	`, p.UserID, p.PreferredTone, p.PreferredLength, p.PrefersCTAs, p.PrefersBullets,
		p.TotalSuggestions, p.Approvals, p.Edits, p.Rejections, p.Ignored,
		p.AutoApproveThreshold, p.AlwaysHITLActions, p.NeverAutoSend,
		p.NotificationFrequency, p.PreferredChannels)

	var out UserAIPreferences
	err := row.Scan(&out.UserID, &out.PreferredTone, &out.PreferredLength, &out.PrefersCTAs,
		&out.PrefersBullets, &out.TotalSuggestions, &out.Approvals, &out.Edits, &out.Rejections,
		&out.Ignored, &out.AutoApproveThreshold, &out.AlwaysHITLActions, &out.NeverAutoSend,
		&out.NotificationFrequency, &out.PreferredChannels)
	return out, err
}

// SetFeedbackOutcome closes the loop on a feedback row (spec §4.4.4
// "Outcome measurement"): idempotent and monotonic, so a row whose outcome
// was already measured is left untouched.
func (q *Queries) SetFeedbackOutcome(ctx context.Context, feedbackID uuid.UUID, positive bool, kind string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE ai_feedback
		SET outcome_measured = true, outcome_positive = $2, outcome_kind = $3
		WHERE id = $1 AND outcome_measured = false
	`, feedbackID, positive, kind)
	return err
}

// GetOrgAIPreferences fetches the tenant-wide base layer of AI preferences,
// returning pgx.ErrNoRows when the tenant has no row; GenerateSuggestion
// then falls back to the defaults (weights 0.2 and 0.3, threshold 85).
func (q *Queries) GetOrgAIPreferences(ctx context.Context) (OrgAIPreferences, error) {
	row := q.db.QueryRow(ctx, `
		SELECT approval_history_weight, low_context_penalty, auto_approve_threshold,
		       always_hitl_actions
		FROM org_ai_preferences
		LIMIT 1
	`)

	var p OrgAIPreferences
	err := row.Scan(&p.ApprovalHistoryWeight, &p.LowContextPenalty, &p.AutoApproveThreshold, &p.AlwaysHITLActions)
	return p, err
}
