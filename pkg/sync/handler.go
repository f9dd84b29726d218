package sync

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridiancrm/core/internal/httpserver"
	"github.com/meridiancrm/core/pkg/credential"
	"github.com/meridiancrm/core/pkg/ingest"
)

// Handler exposes the cron-driven tick and the webhook ingress. Both are
// cross-tenant (tick fans out across every tenant; webhook resolves its own
// tenant from the payload), so these routes are mounted outside the
// tenant-scoped /api/v1 prefix. The tick route is gated by the
// cron-secret/service-role tiers; the webhook route has no caller
// authentication and is authenticated by its payload signature instead.
type Handler struct {
	orchestrator *Orchestrator
	verifiers    *ingest.Registry
	logger       *slog.Logger
}

// NewHandler builds a sync Handler. verifiers authenticates inbound webhooks
// before their payload is trusted, which must happen before tenant
// resolution since signing secrets are configured per-app, not per-tenant.
func NewHandler(orchestrator *Orchestrator, verifiers *ingest.Registry, logger *slog.Logger) *Handler {
	return &Handler{orchestrator: orchestrator, verifiers: verifiers, logger: logger}
}

// TickRoutes returns a chi.Router mounting /{integration}/tick. Callers
// should gate this behind the cron-secret/service-role tier (spec §6.1) —
// it fans out across every tenant and must never be reachable by an
// end-user bearer token.
func (h *Handler) TickRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{integration}/tick", h.handleTick)
	return r
}

// WebhookRoutes returns a chi.Router mounting /{integration}/webhook.
// These are reachable without prior authentication since the provider
// itself is the caller; handleWebhook authenticates the payload via its
// own signature instead (spec §4.3).
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{integration}/webhook", h.handleWebhook)
	return r
}

func (h *Handler) handleTick(w http.ResponseWriter, r *http.Request) {
	kind := credential.Kind(chi.URLParam(r, "integration"))

	report, err := h.orchestrator.Tick(r.Context(), kind)
	if err != nil {
		h.logger.Error("sync tick failed", "integration", kind, "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "tick failed")
		return
	}
	httpserver.RespondOK(w, report)
}

// handleWebhook verifies the request's signature, extracts the
// discriminator/event-id metadata, then delegates tenant resolution and
// ledger dedup to the orchestrator. Signature verification happens before
// any tenant is known, since per-integration signing secrets are
// configured once globally rather than per-tenant install.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	integration := chi.URLParam(r, "integration")
	kind := credential.Kind(integration)

	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "could not read request body")
		return
	}

	if err := h.verifiers.Verify(integration, r.Header, rawBody); err != nil {
		h.logger.Warn("webhook signature rejected", "integration", integration, "error", err)
		httpserver.RespondError(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}

	meta, err := ingest.ExtractWebhookMeta(integration, rawBody)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	evt := WebhookEvent{
		Discriminator:   meta.Discriminator,
		SubjectRef:      integration + ":" + meta.ExternalEventID,
		ExternalEventID: meta.ExternalEventID,
		OccurredAt:      meta.OccurredAt,
		RawBody:         rawBody,
	}

	if err := h.orchestrator.HandleWebhook(r.Context(), kind, evt); err != nil {
		h.logger.Warn("webhook handling failed", "integration", kind, "error", err)
		httpserver.RespondError(w, http.StatusNotFound, "unknown_tenant", "no tenant matched this webhook")
		return
	}

	httpserver.RespondOK(w, map[string]string{"status": "accepted"})
}
