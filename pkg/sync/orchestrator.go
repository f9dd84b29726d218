package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/telemetry"
	"github.com/meridiancrm/core/pkg/credential"
	"github.com/meridiancrm/core/pkg/ingest"
	"github.com/meridiancrm/core/pkg/tenant"
	"github.com/meridiancrm/core/pkg/workqueue"
)

// Orchestrator implements the three C2 operations (spec §4.2): Tick,
// HandleWebhook, EnqueueRetry.
type Orchestrator struct {
	pool             *pgxpool.Pool
	credentials      *credential.Manager
	dispatchers      map[credential.Kind]Dispatcher
	catchUpThreshold time.Duration
	catchUpWindow    time.Duration
	logger           *slog.Logger
}

// NewOrchestrator builds an Orchestrator.
func NewOrchestrator(
	pool *pgxpool.Pool,
	credentials *credential.Manager,
	dispatchers map[credential.Kind]Dispatcher,
	catchUpThreshold, catchUpWindow time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		pool:             pool,
		credentials:      credentials,
		dispatchers:      dispatchers,
		catchUpThreshold: catchUpThreshold,
		catchUpWindow:    catchUpWindow,
		logger:           logger,
	}
}

// Tick lists every tenant with an active credential for kind and dispatches
// a sync job per tenant, aggregating results into a fleet-level report. It
// never aborts the fanout on a single tenant's failure (spec §9 batch
// propagation policy).
func (o *Orchestrator) Tick(ctx context.Context, kind credential.Kind) (FleetReport, error) {
	report := FleetReport{
		Integration:  string(kind),
		PerTenant:    map[string]Summary{},
		TenantErrors: map[string]string{},
	}

	tenants, err := db.New(o.pool).ListTenants(ctx)
	if err != nil {
		return report, fmt.Errorf("listing tenants: %w", err)
	}
	report.TenantsChecked = len(tenants)

	for _, t := range tenants {
		schema := tenant.SchemaName(t.Slug)
		summary, err := o.tickTenant(ctx, schema, kind)
		if err != nil {
			report.TenantErrors[t.Slug] = err.Error()
			if summary.Mode != "" {
				report.Failed++
			}
			continue
		}
		if summary.Mode == "" {
			// No active credential, or another run already in flight —
			// not an error, just nothing dispatched for this tenant.
			continue
		}
		report.Dispatched++
		report.Succeeded++
		report.PerTenant[t.Slug] = summary
	}

	o.logger.Info("sync tick complete",
		"integration", kind,
		"tenants_checked", report.TenantsChecked,
		"dispatched", report.Dispatched,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report, nil
}

// tickTenant runs one tenant's sync pass, or returns a zero Summary (no
// error) when there is nothing to do: no credential, credential not active,
// or a sync already in flight.
func (o *Orchestrator) tickTenant(ctx context.Context, schema string, kind credential.Kind) (Summary, error) {
	var summary Summary
	err := tenant.WithConn(ctx, o.pool, schema, func(ctx context.Context, conn *pgxpool.Conn) error {
		q := db.New(conn)

		row, err := q.GetCredential(ctx, string(kind))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return fmt.Errorf("checking %s credential: %w", kind, err)
		}
		if row.Status != string(credential.StatusActive) {
			return nil
		}

		dispatcher, ok := o.dispatchers[kind]
		if !ok {
			return fmt.Errorf("no dispatcher registered for %s", kind)
		}

		cred, err := o.credentials.Acquire(ctx, q, schema, kind)
		if err != nil {
			var acqErr *credential.AcquireError
			if errors.As(err, &acqErr) && acqErr.Kind == credential.AcquireErrorContended {
				return nil
			}
			return fmt.Errorf("acquiring %s credential: %w", kind, err)
		}

		began, err := q.TryBeginSync(ctx, string(kind))
		if err != nil {
			return fmt.Errorf("beginning sync slot: %w", err)
		}
		if !began {
			// Already running — the concurrent run will advance the
			// cursor; this trigger coalesces into it rather than queuing
			// a duplicate.
			return nil
		}

		state, err := q.GetSyncState(ctx, string(kind))
		if err != nil {
			return fmt.Errorf("reading sync state: %w", err)
		}

		now := time.Now()
		mode := ChooseMode(state.LastSuccessfulSync, now, o.catchUpThreshold)
		windowStart := CatchUpWindowStart(now, o.catchUpWindow)

		result, newCursor, dispatchErr := dispatcher.Dispatch(ctx, q, cred, mode, state.Cursor, windowStart)
		result.Mode = mode
		summary = result

		succeeded := dispatchErr == nil
		if finErr := q.FinishSync(ctx, db.FinishSyncParams{
			IntegrationKind: string(kind),
			Cursor:          newCursor,
			Succeeded:       succeeded,
		}); finErr != nil {
			o.logger.Error("finishing sync", "integration", kind, "schema", schema, "error", finErr)
		}

		telemetry.SyncDispatchTotal.WithLabelValues(string(kind), string(mode)).Inc()
		if !succeeded {
			telemetry.SyncErrorTotal.WithLabelValues(string(kind), "dispatch_error").Inc()
			return dispatchErr
		}
		return nil
	})
	return summary, err
}

// WebhookEvent carries the provider-agnostic facts the caller (pkg/ingest,
// after signature verification) extracted from a webhook body.
type WebhookEvent struct {
	Discriminator   string
	SubjectRef      string
	ExternalEventID string
	OccurredAt      *time.Time
	RawBody         []byte
}

// HandleWebhook resolves the tenant owning an inbound webhook (by payload
// discriminator, e.g. a Slack team ID or HubSpot portal ID matched against
// a stored credential's endpoint hint), records it in that tenant's event
// ledger, and reconciles the extracted change inline via ingest.Reconcile,
// enqueueing a KindSyncRetry item only when reconciliation fails. It does
// not enqueue a sync job for the emitting entity. The
// signature must already have been verified by the caller before this is
// invoked; ledger dedup happens here because it requires the tenant's own
// schema connection.
func (o *Orchestrator) HandleWebhook(ctx context.Context, kind credential.Kind, evt WebhookEvent) error {
	tenants, err := db.New(o.pool).ListTenants(ctx)
	if err != nil {
		return fmt.Errorf("listing tenants: %w", err)
	}

	for _, t := range tenants {
		schema := tenant.SchemaName(t.Slug)
		found := false
		err := tenant.WithConn(ctx, o.pool, schema, func(ctx context.Context, conn *pgxpool.Conn) error {
			q := db.New(conn)
			cred, err := q.GetCredential(ctx, string(kind))
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil
				}
				return err
			}
			if cred.EndpointHint != evt.Discriminator {
				return nil
			}
			found = true

			duplicate, err := ingest.RecordEvent(ctx, q, string(kind), evt.ExternalEventID, evt.OccurredAt, evt.RawBody, "accepted")
			if err != nil {
				return fmt.Errorf("recording webhook in ledger: %w", err)
			}
			if duplicate {
				o.logger.Info("duplicate webhook ignored", "integration", kind, "tenant", t.Slug, "external_event_id", evt.ExternalEventID)
				return nil
			}

			change, reconcilable, err := ingest.ExtractChange(string(kind), evt.RawBody)
			if err != nil {
				o.logger.Warn("webhook change extraction failed", "integration", kind, "tenant", t.Slug, "subject_ref", evt.SubjectRef, "error", err)
				return nil
			}
			if !reconcilable {
				// This integration's webhooks are notification-only
				// (e.g. Slack messages, Stripe charges) — the ledger
				// entry above is the whole of what C3 owes them.
				return nil
			}

			outcome, err := ingest.Reconcile(ctx, q, change)
			if err != nil {
				return o.EnqueueRetry(ctx, q, change, err.Error())
			}
			o.logger.Info("webhook reconciled", "integration", kind, "tenant", t.Slug, "entity_kind", change.EntityKind, "outcome", outcome)
			return nil
		})
		if err != nil {
			o.logger.Error("handling webhook for tenant", "tenant", t.Slug, "integration", kind, "error", err)
			continue
		}
		if found {
			return nil
		}
	}
	return fmt.Errorf("no tenant found for %s webhook discriminator %q", kind, evt.Discriminator)
}

// EnqueueRetry pushes a Work Queue Item for a soft-failure case where a
// dependent artifact is not yet available (e.g. a transcript not yet
// materialized). DrainRetries later re-attempts ingest.Reconcile against
// the persisted change.
func (o *Orchestrator) EnqueueRetry(ctx context.Context, q *db.Queries, change ingest.Change, reason string) error {
	payload, err := encodeRetryPayload(RetryPayload{Change: change, Reason: reason})
	if err != nil {
		return err
	}

	wq := workqueue.New(q)
	if _, err := wq.Enqueue(ctx, workqueue.KindSyncRetry, payload); err != nil {
		return fmt.Errorf("enqueueing retry for %s %s (%s): %w", change.EntityKind, change.ExternalID, reason, err)
	}
	o.logger.Info("enqueued sync retry", "entity_kind", change.EntityKind, "external_id", change.ExternalID, "reason", reason)
	return nil
}
