package db

import (
	"context"
	"time"
)

// GetSyncState fetches the orchestrator's bookkeeping row for an
// integration, returning pgx.ErrNoRows on first-ever sync.
func (q *Queries) GetSyncState(ctx context.Context, integrationKind string) (SyncState, error) {
	row := q.db.QueryRow(ctx, `
		SELECT integration_kind, last_successful_sync, cursor, mode,
		       error_count, updated_at
		FROM sync_states
		WHERE integration_kind = $1
	`, integrationKind)

	var s SyncState
	err := row.Scan(&s.IntegrationKind, &s.LastSuccessfulSync, &s.Cursor, &s.Mode, &s.ErrorCount, &s.UpdatedAt)
	return s, err
}

// TryBeginSync atomically claims the sync slot for an integration by
// flipping mode from 'idle' to 'running', or inserting a fresh row when none
// exists. Returns false when a sync is already running, implementing the
// spec's "at most one in-flight sync per (tenant, integration)" invariant.
func (q *Queries) TryBeginSync(ctx context.Context, integrationKind string) (bool, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE sync_states
		SET mode = 'running', updated_at = now()
		WHERE integration_kind = $1 AND mode = 'idle'
	`, integrationKind)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	tag, err = q.db.Exec(ctx, `
		INSERT INTO sync_states (integration_kind, mode, error_count, updated_at)
		VALUES ($1, 'running', 0, now())
		ON CONFLICT (integration_kind) DO NOTHING
	`, integrationKind)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// FinishSyncParams carries the outcome of a sync run.
type FinishSyncParams struct {
	IntegrationKind string
	Cursor          string
	Succeeded       bool
}

// FinishSync releases the sync slot back to idle, advancing the cursor and
// resetting the error count on success, or incrementing it on failure.
func (q *Queries) FinishSync(ctx context.Context, arg FinishSyncParams) error {
	if arg.Succeeded {
		_, err := q.db.Exec(ctx, `
			UPDATE sync_states
			SET mode = 'idle', cursor = $2, last_successful_sync = now(),
			    error_count = 0, updated_at = now()
			WHERE integration_kind = $1
		`, arg.IntegrationKind, arg.Cursor)
		return err
	}
	_, err := q.db.Exec(ctx, `
		UPDATE sync_states
		SET mode = 'idle', error_count = error_count + 1, updated_at = now()
		WHERE integration_kind = $1
	`, arg.IntegrationKind)
	return err
}

// ListSyncStatesOlderThan returns every idle sync state whose last
// successful sync is older than the cutoff (or has never succeeded).
func (q *Queries) ListSyncStatesOlderThan(ctx context.Context, cutoff time.Time) ([]SyncState, error) {
	rows, err := q.db.Query(ctx, `
		SELECT integration_kind, last_successful_sync, cursor, mode,
		       error_count, updated_at
		FROM sync_states
		WHERE mode = 'idle' AND (last_successful_sync IS NULL OR last_successful_sync < $1)
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncState
	for rows.Next() {
		var s SyncState
		if err := rows.Scan(&s.IntegrationKind, &s.LastSuccessfulSync, &s.Cursor, &s.Mode, &s.ErrorCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
