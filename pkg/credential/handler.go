package credential

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/httpserver"
	"github.com/meridiancrm/core/pkg/tenant"
)

// Handler exposes the OAuth connect/callback flow and the service/cron
// refresh endpoint (spec §7).
type Handler struct {
	manager     *Manager
	adapters    map[Kind]ProviderAdapter
	frontendURL string
	logger      *slog.Logger
}

// NewHandler builds a credential Handler.
func NewHandler(manager *Manager, adapters map[Kind]ProviderAdapter, frontendRedirectURL string, logger *slog.Logger) *Handler {
	return &Handler{manager: manager, adapters: adapters, frontendURL: frontendRedirectURL, logger: logger}
}

// Routes returns a chi.Router mounting the OAuth and refresh endpoints.
// The integration kind is taken from a chi URL param, e.g. mounted at
// "/oauth/{integration}/connect" and "/oauth/{integration}/callback".
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{integration}/connect", h.handleConnect)
	r.Get("/{integration}/callback", h.handleCallback)
	return r
}

// RefreshRoutes returns a chi.Router for the service/cron-only refresh
// endpoint, mounted separately under the internal-only prefix.
func (h *Handler) RefreshRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/{integration}/refresh", h.handleRefresh)
	return r
}

func (h *Handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "integration"))
	adapter, ok := h.adapters[kind].(AuthURLProvider)
	if !ok {
		httpserver.RespondError(w, http.StatusNotFound, "unknown_integration", fmt.Sprintf("no connect flow for %s", kind))
		return
	}

	conn := tenant.ConnFromContext(r.Context())
	q := db.New(conn)

	redirectURI := r.URL.Query().Get("redirect_uri")
	state, err := BeginOAuthState(r.Context(), q, nil, kind, redirectURI, "")
	if err != nil {
		h.logger.Error("beginning oauth state", "kind", kind, "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to start oauth flow")
		return
	}

	http.Redirect(w, r, adapter.AuthCodeURL(state), http.StatusFound)
}

// handleCallback never returns JSON to the browser (spec §7) — it always
// redirects to the configured frontend URL, with status/error query params.
func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "integration"))

	conn := tenant.ConnFromContext(r.Context())
	q := db.New(conn)

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.redirectResult(w, r, kind, "error", errParam)
		return
	}

	stateToken := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if stateToken == "" || code == "" {
		h.redirectResult(w, r, kind, "error", "missing_code_or_state")
		return
	}

	state, err := ConsumeOAuthState(r.Context(), q, stateToken)
	if err != nil {
		h.logger.Warn("invalid oauth state on callback", "kind", kind, "error", err)
		h.redirectResult(w, r, kind, "error", "invalid_or_expired_state")
		return
	}
	if Kind(state.IntegrationKind) != kind {
		h.redirectResult(w, r, kind, "error", "state_kind_mismatch")
		return
	}

	adapter, ok := h.adapters[kind].(AuthURLProvider)
	if !ok {
		h.redirectResult(w, r, kind, "error", "unknown_integration")
		return
	}

	result, err := adapter.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth code exchange failed", "kind", kind, "error", err)
		h.redirectResult(w, r, kind, "error", "exchange_failed")
		return
	}

	// Bullhorn requires the additional REST-login handshake before the
	// first credential is usable.
	if two, ok := adapter.(TwoStepExchange); ok && result.SessionToken == "" {
		endpoint, err := two.ResolveEndpoint(r.Context(), result.AccessSecret)
		if err != nil {
			h.logger.Error("bullhorn rest login failed", "error", err)
			h.redirectResult(w, r, kind, "error", "rest_login_failed")
			return
		}
		result.EndpointHint = endpoint
	}

	stored := Credential{
		Kind:          kind,
		AccessSecret:  result.AccessSecret,
		RefreshSecret: result.RefreshSecret,
		SessionToken:  result.SessionToken,
		EndpointHint:  result.EndpointHint,
		ExpiresAt:     result.ExpiresAt,
		Status:        StatusActive,
		Metadata:      result.Metadata,
	}
	if _, err := h.manager.store.Put(r.Context(), q, stored); err != nil {
		h.logger.Error("persisting credential from callback", "kind", kind, "error", err)
		h.redirectResult(w, r, kind, "error", "persist_failed")
		return
	}

	h.redirectResult(w, r, kind, "success", "")
}

func (h *Handler) redirectResult(w http.ResponseWriter, r *http.Request, kind Kind, status, errCode string) {
	u, err := url.Parse(h.frontendURL)
	if err != nil {
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "bad frontend redirect configuration")
		return
	}
	q := u.Query()
	q.Set("integration", string(kind))
	q.Set("status", status)
	if errCode != "" {
		q.Set("error", errCode)
	}
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusFound)
}

// handleRefresh is the service/cron-only forced-refresh endpoint, used when
// an operator needs to force a reconnect check outside the proactive sweep.
func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	kind := Kind(chi.URLParam(r, "integration"))

	conn := tenant.ConnFromContext(r.Context())
	q := db.New(conn)
	schema := schemaFromContext(r.Context())

	cred, err := h.manager.Acquire(r.Context(), q, schema, kind)
	if err != nil {
		h.logger.Error("forced refresh failed", "kind", kind, "error", err)

		var acqErr *AcquireError
		if errors.As(err, &acqErr) {
			switch acqErr.Kind {
			case AcquireErrorNotConnected:
				httpserver.RespondError(w, http.StatusNotFound, "not_connected", acqErr.Error())
			case AcquireErrorNeedsReconnect:
				httpserver.RespondError(w, http.StatusConflict, "needs_reconnect", acqErr.Error())
			case AcquireErrorContended:
				httpserver.RespondError(w, http.StatusConflict, "refresh_in_progress", acqErr.Error())
			case AcquireErrorPermanent:
				httpserver.RespondError(w, http.StatusBadGateway, "permanent_failure", acqErr.Error())
			default:
				httpserver.RespondError(w, http.StatusBadGateway, "transient_failure", acqErr.Error())
			}
			return
		}
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to refresh credential")
		return
	}

	httpserver.RespondOK(w, map[string]any{
		"integration": kind,
		"status":      cred.Status,
		"expires_at":  cred.ExpiresAt,
	})
}
