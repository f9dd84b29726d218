package ai

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/httpserver"
	"github.com/meridiancrm/core/pkg/tenant"
)

// Handler exposes the tenant-scoped suggestion-generation, feedback, and
// outcome endpoints.
type Handler struct {
	exec       *Executor
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewHandler builds an ai Handler. exec may be nil if no actuation surface
// is configured (send_slack_message suggestions are then routed but never
// delivered); dispatcher may be nil if suggestion generation is always
// invoked with pre-drafted content rather than a named skill.
func NewHandler(exec *Executor, dispatcher *Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{exec: exec, dispatcher: dispatcher, logger: logger}
}

// Routes returns a chi.Router mounting /suggestions, /feedback, and /outcome.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/suggestions", h.handleGenerate)
	r.Post("/feedback", h.handleFeedback)
	r.Post("/outcome", h.handleOutcome)
	return r
}

type generateSuggestionRequest struct {
	ContactID *uuid.UUID `json:"contact_id,omitempty"`
	DealID    *uuid.UUID `json:"deal_id,omitempty"`
	MeetingID *uuid.UUID `json:"meeting_id,omitempty"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Action    string     `json:"action"`
	Skill     string     `json:"skill"`
	Timezone  string     `json:"timezone"`

	// Used only when Skill is empty: a pre-drafted suggestion from a
	// caller outside this package's registered skills.
	RawConfidence  float64 `json:"raw_confidence,omitempty"`
	DraftedContent string  `json:"drafted_content,omitempty"`
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateSuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if req.Action == "" {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "action is required")
		return
	}

	conn := tenant.ConnFromContext(r.Context())
	q := db.New(conn)

	result, err := GenerateSuggestion(r.Context(), q, h.exec, h.dispatcher, GenerateSuggestionParams{
		Scope: Scope{
			ContactID: req.ContactID,
			DealID:    req.DealID,
			MeetingID: req.MeetingID,
			UserID:    req.UserID,
		},
		Action:         ActionKind(req.Action),
		Skill:          SkillName(req.Skill),
		RawConfidence:  req.RawConfidence,
		DraftedContent: req.DraftedContent,
		Timezone:       req.Timezone,
	})
	if err != nil {
		h.logger.Error("generating suggestion", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to generate suggestion")
		return
	}
	httpserver.RespondOK(w, result)
}

type feedbackRequest struct {
	SuggestionID      uuid.UUID `json:"suggestion_id"`
	UserID            uuid.UUID `json:"user_id"`
	Action            string    `json:"action"`
	OriginalContent   *string   `json:"original_content,omitempty"`
	EditedContent     *string   `json:"edited_content,omitempty"`
	DecisionLatencyMS int64     `json:"decision_latency_ms"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	action := FeedbackAction(req.Action)
	switch action {
	case ActionApproved, ActionEdited, ActionRejected, ActionIgnored:
	default:
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "action must be one of approved, edited, rejected, ignored")
		return
	}

	conn := tenant.ConnFromContext(r.Context())
	q := db.New(conn)

	feedback, err := RecordFeedback(r.Context(), q, h.exec, RecordFeedbackParams{
		SuggestionID:    req.SuggestionID,
		UserID:          req.UserID,
		Action:          action,
		OriginalContent: req.OriginalContent,
		EditedContent:   req.EditedContent,
		DecisionLatency: time.Duration(req.DecisionLatencyMS) * time.Millisecond,
	})
	if err != nil {
		h.logger.Error("recording feedback", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to record feedback")
		return
	}
	httpserver.RespondOK(w, feedback)
}

type outcomeRequest struct {
	FeedbackID uuid.UUID `json:"feedback_id"`
	Positive   bool      `json:"positive"`
	Kind       string    `json:"kind"`
}

func (h *Handler) handleOutcome(w http.ResponseWriter, r *http.Request) {
	var req outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	conn := tenant.ConnFromContext(r.Context())
	q := db.New(conn)

	if err := RecordOutcome(r.Context(), q, RecordOutcomeParams{
		FeedbackID: req.FeedbackID,
		Positive:   req.Positive,
		Kind:       req.Kind,
	}); err != nil {
		h.logger.Error("recording outcome", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to record outcome")
		return
	}
	httpserver.RespondOK(w, map[string]string{"status": "recorded"})
}
