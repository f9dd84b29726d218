package credential

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/telemetry"
	"github.com/meridiancrm/core/pkg/tenant"
)

// Manager implements the three C1 operations (spec §4.1): Acquire,
// RefreshProactively, Invalidate.
type Manager struct {
	store        *Store
	coordinator  *RefreshCoordinator
	adapters     map[Kind]ProviderAdapter
	safetyWindow time.Duration
	proactive    time.Duration
	logger       *slog.Logger
}

// NewManager builds a Manager. adapters must contain one ProviderAdapter per
// Kind the deployment has configured OAuth client credentials for.
func NewManager(
	store *Store,
	coordinator *RefreshCoordinator,
	adapters map[Kind]ProviderAdapter,
	safetyWindow, proactiveWindow time.Duration,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		store:        store,
		coordinator:  coordinator,
		adapters:     adapters,
		safetyWindow: safetyWindow,
		proactive:    proactiveWindow,
		logger:       logger,
	}
}

// Acquire returns a live access secret for kind, refreshing it first if it
// is expired or within the safety window of expiry. It never
// returns a secret that could expire mid-request — the forbidden "skip
// refresh if only about to expire" shortcut is never taken here.
func (m *Manager) Acquire(ctx context.Context, q *db.Queries, schema string, kind Kind) (Credential, error) {
	cred, found, err := m.store.Get(ctx, q, kind)
	if err != nil {
		return Credential{}, &AcquireError{Kind: AcquireErrorTransient, Integration: kind, Reason: "loading credential", Err: err}
	}
	if !found {
		return Credential{}, &AcquireError{Kind: AcquireErrorNotConnected, Integration: kind, Reason: "no credential stored"}
	}
	if cred.Status == StatusRevoked || cred.Status == StatusNeedsReconnect {
		return Credential{}, &AcquireError{Kind: AcquireErrorNeedsReconnect, Integration: kind, Reason: fmt.Sprintf("status=%s", cred.Status)}
	}

	now := time.Now()
	if !cred.IsExpired(now, m.safetyWindow) {
		return cred, nil
	}

	key := schema + ":" + string(kind)
	refreshed, err := m.coordinator.Do(ctx, key, func(ctx context.Context) (Credential, error) {
		// Re-read under the lock: another goroutine in this process (or
		// another process, once the lock clears) may have already
		// refreshed while we waited.
		latest, _, err := m.store.Get(ctx, q, kind)
		if err != nil {
			return Credential{}, &AcquireError{Kind: AcquireErrorTransient, Integration: kind, Reason: "re-loading credential under lock", Err: err}
		}
		if !latest.IsExpired(now, m.safetyWindow) {
			return latest, nil
		}
		return m.refresh(ctx, q, latest)
	})
	if err != nil {
		if err == ErrLockContended {
			// Another process is refreshing; the stale-but-not-yet-updated
			// row will be current shortly. Surface the contention so the
			// caller can retry rather than proceed with an expired secret.
			return Credential{}, &AcquireError{Kind: AcquireErrorContended, Integration: kind, Reason: "refresh already in flight", Err: err}
		}
		return Credential{}, err
	}
	return refreshed, nil
}

// refresh performs the actual provider round trip and persists the result,
// recording outcome metrics and transitioning status on permanent failure.
func (m *Manager) refresh(ctx context.Context, q *db.Queries, cred Credential) (Credential, error) {
	adapter, ok := m.adapters[cred.Kind]
	if !ok {
		return Credential{}, &AcquireError{Kind: AcquireErrorNotConnected, Integration: cred.Kind, Reason: "no provider adapter registered"}
	}

	start := time.Now()
	result, err := adapter.Refresh(ctx, cred)
	telemetry.CredentialAcquireDuration.WithLabelValues(string(cred.Kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		class := adapter.ClassifyError(err)
		if class == ErrorClassPermanent {
			if setErr := m.store.SetStatus(ctx, q, cred.Kind, StatusNeedsReconnect); setErr != nil {
				m.logger.Error("marking credential needs_reconnect", "kind", cred.Kind, "error", setErr)
			}
			telemetry.CredentialRefreshTotal.WithLabelValues(string(cred.Kind), "permanent_failure").Inc()
			return Credential{}, &AcquireError{Kind: AcquireErrorPermanent, Integration: cred.Kind, Reason: "provider rejected refresh secret", Err: err}
		}
		telemetry.CredentialRefreshTotal.WithLabelValues(string(cred.Kind), "transient_failure").Inc()
		return Credential{}, &AcquireError{Kind: AcquireErrorTransient, Integration: cred.Kind, Reason: "refresh attempt failed", Err: err}
	}

	next := cred
	next.AccessSecret = result.AccessSecret
	if result.RefreshSecret != "" {
		next.RefreshSecret = result.RefreshSecret
	}
	if result.SessionToken != "" {
		next.SessionToken = result.SessionToken
	}
	if result.EndpointHint != "" {
		next.EndpointHint = result.EndpointHint
	}
	next.ExpiresAt = result.ExpiresAt
	next.Status = StatusActive
	if result.Metadata != nil {
		next.Metadata = result.Metadata
	}

	stored, err := m.store.Put(ctx, q, next)
	if err != nil {
		return Credential{}, &AcquireError{Kind: AcquireErrorTransient, Integration: cred.Kind, Reason: "persisting refreshed credential", Err: err}
	}
	telemetry.CredentialRefreshTotal.WithLabelValues(string(cred.Kind), "success").Inc()
	return stored, nil
}

// RefreshProactively sweeps every credential in the calling tenant schema
// whose expiry falls inside the proactive refresh window and refreshes it
// ahead of need, so Acquire's hot path rarely blocks on a live refresh.
func (m *Manager) RefreshProactively(ctx context.Context, q *db.Queries, schema string) error {
	before := time.Now().Add(m.proactive)
	due, err := m.store.ListNeedingProactiveRefresh(ctx, q, before)
	if err != nil {
		return fmt.Errorf("listing credentials due for proactive refresh: %w", err)
	}

	for _, cred := range due {
		key := schema + ":" + string(cred.Kind)
		_, err := m.coordinator.Do(ctx, key, func(ctx context.Context) (Credential, error) {
			return m.refresh(ctx, q, cred)
		})
		if err != nil && err != ErrLockContended {
			m.logger.Warn("proactive refresh failed", "kind", cred.Kind, "schema", schema, "error", err)
		}
	}
	return nil
}

// Invalidate forces a credential to needs_reconnect, used when a downstream
// caller (e.g. a sync dispatcher receiving a 401) learns independently that
// the stored secret no longer works.
func (m *Manager) Invalidate(ctx context.Context, q *db.Queries, kind Kind) error {
	return m.store.SetStatus(ctx, q, kind, StatusNeedsReconnect)
}

// schemaFromContext is a small convenience used by handler.go; kept here so
// the manager and handler agree on how the tenant schema key is derived.
func schemaFromContext(ctx context.Context) string {
	if ti := tenant.FromContext(ctx); ti != nil {
		return ti.Schema
	}
	return ""
}
