package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/telemetry"
)

// ChangeKind is the event verb a reconcile call applies.
type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
)

// Change describes one inbound record mutation to reconcile into the
// internal store, after ledger dedup has already accepted the event.
type Change struct {
	ExternalSystem       string
	EntityKind           EntityKind
	ExternalID           string
	Kind                 ChangeKind
	ExternalLastModified time.Time
	// Fields carries the raw natural-key and content fields the caller
	// extracted from the provider payload (e.g. "email", "first_name").
	Fields map[string]string
}

// Outcome reports what reconciliation did with one Change, for the sync
// run's Summary.
type Outcome string

const (
	OutcomeCreated         Outcome = "created"
	OutcomeUpdated         Outcome = "updated"
	OutcomeSkippedConflict Outcome = "skipped_conflict"
	OutcomeSoftDeleted     Outcome = "soft_deleted"
)

// Reconcile applies the spec §4.3 reconciliation protocol for one Change:
// create (mapping lookup -> natural-key match -> new row), update
// (last-writer-wins), delete (soft-delete annotation, internal row
// preserved).
func Reconcile(ctx context.Context, q *db.Queries, c Change) (Outcome, error) {
	mapping, found, err := LookupMapping(ctx, q, c.ExternalSystem, c.EntityKind, c.ExternalID)
	if err != nil {
		return "", fmt.Errorf("looking up entity mapping: %w", err)
	}

	switch {
	case found && !mapping.SoftDeleted:
		return reconcileAgainstMapping(ctx, q, mapping, c)
	case c.Kind == ChangeDelete:
		// Already absent or already soft-deleted — nothing to do, but not
		// an error (idempotent delete).
		return OutcomeSkippedConflict, nil
	default:
		return reconcileCreate(ctx, q, c)
	}
}

func reconcileCreate(ctx context.Context, q *db.Queries, c Change) (Outcome, error) {
	internalID, matched, err := Match(ctx, q, c.EntityKind, c.Fields)
	if err != nil {
		return "", fmt.Errorf("natural-key matching: %w", err)
	}

	if !matched {
		internalID = uuid.New()
	}

	if err := writeEntity(ctx, q, c.EntityKind, internalID, c.Fields, false); err != nil {
		return "", fmt.Errorf("writing %s row: %w", c.EntityKind, err)
	}

	if _, err := CreateMapping(ctx, q, c.ExternalSystem, c.EntityKind, c.ExternalID, string(c.EntityKind), internalID, c.ExternalLastModified); err != nil {
		return "", fmt.Errorf("creating entity mapping: %w", err)
	}
	return OutcomeCreated, nil
}

func reconcileAgainstMapping(ctx context.Context, q *db.Queries, mapping db.EntityMapping, c Change) (Outcome, error) {
	switch c.Kind {
	case ChangeDelete:
		if err := markDeleted(ctx, q, c.EntityKind, mapping.InternalID); err != nil {
			return "", fmt.Errorf("soft-deleting %s: %w", c.EntityKind, err)
		}
		if err := q.TouchEntityMapping(ctx, mapping.ID, c.ExternalLastModified, mapping.InternalLastModified, true); err != nil {
			return "", fmt.Errorf("marking mapping soft-deleted: %w", err)
		}
		return OutcomeSoftDeleted, nil

	default: // create (escalated) or update
		if mapping.InternalLastModified.After(c.ExternalLastModified) {
			telemetry.ReconcileConflictSkippedTotal.WithLabelValues(c.ExternalSystem, string(c.EntityKind)).Inc()
			return OutcomeSkippedConflict, nil
		}

		if err := writeEntity(ctx, q, c.EntityKind, mapping.InternalID, c.Fields, false); err != nil {
			return "", fmt.Errorf("writing %s row: %w", c.EntityKind, err)
		}
		if err := q.TouchEntityMapping(ctx, mapping.ID, c.ExternalLastModified, c.ExternalLastModified, false); err != nil {
			return "", fmt.Errorf("advancing mapping timestamps: %w", err)
		}
		return OutcomeUpdated, nil
	}
}

// writeEntity upserts the internal row for kind using the caller-extracted
// Fields, unconditionally (last-writer-wins comparison already happened in
// reconcileAgainstMapping; reconcileCreate always writes since there is
// nothing to compare against).
func writeEntity(ctx context.Context, q *db.Queries, kind EntityKind, id uuid.UUID, fields map[string]string, softDeleted bool) error {
	now := time.Now()
	switch kind {
	case EntityKindContact:
		_, err := q.UpsertContact(ctx, db.Contact{
			ID:          id,
			Email:       fields["email"],
			FirstName:   fields["first_name"],
			LastName:    fields["last_name"],
			Company:     fields["company"],
			SoftDeleted: softDeleted,
			UpdatedAt:   now,
		})
		return err

	case EntityKindDeal:
		_, err := q.UpsertDeal(ctx, db.Deal{
			ID:          id,
			Title:       fields["title"],
			Stage:       fields["stage"],
			ContactID:   parseContactID(fields["contact_id"]),
			SoftDeleted: softDeleted,
			UpdatedAt:   now,
		})
		return err

	case EntityKindMeeting:
		occurredAt := now
		if raw := fields["occurred_at"]; raw != "" {
			if t, err := time.Parse(time.RFC3339, raw); err == nil {
				occurredAt = t
			}
		}
		rawTopics, _ := json.Marshal(fields["raw_topics"])
		_, err := q.UpsertMeeting(ctx, db.Meeting{
			ID:          id,
			Title:       fields["title"],
			OccurredAt:  occurredAt,
			ContactID:   parseContactID(fields["contact_id"]),
			RawTopics:   rawTopics,
			SoftDeleted: softDeleted,
			UpdatedAt:   now,
		})
		return err

	default:
		return fmt.Errorf("unsupported entity kind %s", kind)
	}
}

func markDeleted(ctx context.Context, q *db.Queries, kind EntityKind, id uuid.UUID) error {
	switch kind {
	case EntityKindContact:
		c, err := q.GetContactByID(ctx, id)
		if err != nil {
			return err
		}
		c.SoftDeleted = true
		c.UpdatedAt = time.Now()
		_, err = q.UpsertContact(ctx, c)
		return err
	case EntityKindDeal:
		d, err := q.GetDeal(ctx, id)
		if err != nil {
			return err
		}
		d.SoftDeleted = true
		d.UpdatedAt = time.Now()
		_, err = q.UpsertDeal(ctx, d)
		return err
	case EntityKindMeeting:
		m, err := q.GetMeeting(ctx, id)
		if err != nil {
			return err
		}
		m.SoftDeleted = true
		m.UpdatedAt = time.Now()
		_, err = q.UpsertMeeting(ctx, m)
		return err
	default:
		return fmt.Errorf("unsupported entity kind %s", kind)
	}
}

func parseContactID(raw string) *uuid.UUID {
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
