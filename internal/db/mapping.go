package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GetEntityMapping looks up the internal row mapped to an external entity,
// returning pgx.ErrNoRows when this is the first time the external system
// has reported this entity.
func (q *Queries) GetEntityMapping(ctx context.Context, externalSystem, externalEntityKind, externalID string) (EntityMapping, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, external_system, external_entity_kind, external_id,
		       internal_table, internal_id, direction, external_last_modified,
		       internal_last_modified, soft_deleted, created_at, updated_at
		FROM entity_mappings
		WHERE external_system = $1 AND external_entity_kind = $2 AND external_id = $3
	`, externalSystem, externalEntityKind, externalID)

	var m EntityMapping
	err := row.Scan(
		&m.ID, &m.ExternalSystem, &m.ExternalEntityKind, &m.ExternalID,
		&m.InternalTable, &m.InternalID, &m.Direction, &m.ExternalLastModified,
		&m.InternalLastModified, &m.SoftDeleted, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}

// CreateEntityMapping records a brand-new external-to-internal link.
func (q *Queries) CreateEntityMapping(ctx context.Context, m EntityMapping) (EntityMapping, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO entity_mappings (
			id, external_system, external_entity_kind, external_id,
			internal_table, internal_id, direction, external_last_modified,
			internal_last_modified, soft_deleted, created_at, updated_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, false, now(), now())
		RETURNING id, external_system, external_entity_kind, external_id,
		          internal_table, internal_id, direction, external_last_modified,
		          internal_last_modified, soft_deleted, created_at, updated_at
	`, m.ExternalSystem, m.ExternalEntityKind, m.ExternalID, m.InternalTable,
		m.InternalID, m.Direction, m.ExternalLastModified, m.InternalLastModified)

	var out EntityMapping
	err := row.Scan(
		&out.ID, &out.ExternalSystem, &out.ExternalEntityKind, &out.ExternalID,
		&out.InternalTable, &out.InternalID, &out.Direction, &out.ExternalLastModified,
		&out.InternalLastModified, &out.SoftDeleted, &out.CreatedAt, &out.UpdatedAt,
	)
	return out, err
}

// TouchEntityMapping advances the recorded external/internal modification
// timestamps after a reconcile applies an update, and flips soft_deleted.
func (q *Queries) TouchEntityMapping(ctx context.Context, id uuid.UUID, externalLastModified, internalLastModified time.Time, softDeleted bool) error {
	_, err := q.db.Exec(ctx, `
		UPDATE entity_mappings
		SET external_last_modified = $2, internal_last_modified = $3,
		    soft_deleted = $4, updated_at = now()
		WHERE id = $1
	`, id, externalLastModified, internalLastModified, softDeleted)
	return err
}

// HasEventBeenProcessed checks the event ledger for a prior delivery of the
// same (external_system, external_event_id) pair — the dedup key.
func (q *Queries) HasEventBeenProcessed(ctx context.Context, externalSystem, externalEventID string) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM event_ledger
			WHERE external_system = $1 AND external_event_id = $2
		)
	`, externalSystem, externalEventID).Scan(&exists)
	return exists, err
}

// RecordEvent appends a processed (or rejected) webhook event to the ledger,
// returning inserted=false when the (external_system, external_event_id)
// pair already existed — the ledger's primary key is the authoritative
// dedup guard against races that slip past a prior HasEventBeenProcessed
// check.
func (q *Queries) RecordEvent(ctx context.Context, e EventLedgerEntry) (inserted bool, err error) {
	tag, err := q.db.Exec(ctx, `
		INSERT INTO event_ledger (
			external_system, external_event_id, payload_hash, received_at,
			external_occurred_at, processing_result
		)
		VALUES ($1, $2, $3, now(), $4, $5)
		ON CONFLICT (external_system, external_event_id) DO NOTHING
	`, e.ExternalSystem, e.ExternalEventID, e.PayloadHash, e.ExternalOccurredAt, e.ProcessingResult)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
