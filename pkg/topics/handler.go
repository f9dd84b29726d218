package topics

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/httpserver"
	"github.com/meridiancrm/core/pkg/tenant"
)

// Handler exposes the tenant-scoped POST /topics/aggregate endpoint.
type Handler struct {
	engine *Engine
	logger *slog.Logger
}

// NewHandler builds a topics Handler.
func NewHandler(engine *Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Routes returns a chi.Router mounting /aggregate.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/aggregate", h.handleAggregate)
	return r
}

type aggregateRequest struct {
	Mode      string `json:"mode"`
	MeetingID string `json:"meeting_id,omitempty"`
}

func (h *Handler) handleAggregate(w http.ResponseWriter, r *http.Request) {
	var req aggregateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}

	conn := tenant.ConnFromContext(r.Context())
	q := db.New(conn)

	var (
		report BatchReport
		err    error
	)

	switch req.Mode {
	case "single":
		meetingID, parseErr := uuid.Parse(req.MeetingID)
		if parseErr != nil {
			httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "meeting_id must be a valid uuid")
			return
		}
		report, err = h.engine.RunSingle(r.Context(), q, meetingID)
	case "full":
		report, err = h.engine.RunFull(r.Context(), q)
	case "incremental", "":
		report, err = h.engine.RunIncremental(r.Context(), q)
	default:
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "mode must be one of incremental, single, full")
		return
	}

	if err != nil {
		h.logger.Error("topic aggregation failed", "mode", req.Mode, "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "aggregation failed")
		return
	}
	httpserver.RespondOK(w, report)
}
