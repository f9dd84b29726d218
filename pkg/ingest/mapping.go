package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meridiancrm/core/internal/db"
)

// EntityKind names an external entity kind for natural-key matching.
type EntityKind string

const (
	EntityKindContact EntityKind = "contact"
	EntityKindDeal    EntityKind = "deal"
	EntityKindMeeting EntityKind = "meeting"
)

// NaturalKeyPolicy is the ordered list of natural keys attempted, in order,
// to locate an existing internal row when no Entity Mapping exists yet
// (spec §4.3 "natural-key matching policies"). The first hit wins.
type NaturalKeyPolicy []NaturalKeyMatcher

// NaturalKeyMatcher resolves one natural key against the internal store,
// returning the matched internal row's ID, or uuid.Nil with found=false.
type NaturalKeyMatcher func(ctx context.Context, q *db.Queries, fields map[string]string) (id uuid.UUID, found bool, err error)

// Policies holds the natural-key policy for every entity kind this
// reconciler supports.
var Policies = map[EntityKind]NaturalKeyPolicy{
	EntityKindContact: {matchContactByEmail},
	EntityKindMeeting: {matchMeetingByRecordingID},
	// Deals have no natural key of their own (spec §4.3) — identity is
	// system-specific, so a deal without a prior Entity Mapping is always
	// a new internal row.
	EntityKindDeal: {},
}

func matchContactByEmail(ctx context.Context, q *db.Queries, fields map[string]string) (uuid.UUID, bool, error) {
	email := strings.ToLower(strings.TrimSpace(fields["email"]))
	if email == "" {
		return uuid.Nil, false, nil
	}
	c, err := q.GetContactByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}
	return c.ID, true, nil
}

func matchMeetingByRecordingID(ctx context.Context, q *db.Queries, fields map[string]string) (uuid.UUID, bool, error) {
	// Meetings have no dedicated natural-key lookup table beyond the
	// mapping itself (their natural key is the external recording ID,
	// which is exactly what the Entity Mapping's external_id already
	// captures); a meeting without a mapping row is always new.
	return uuid.Nil, false, nil
}

// Match runs an entity kind's NaturalKeyPolicy in order, returning the
// first matching internal row.
func Match(ctx context.Context, q *db.Queries, kind EntityKind, fields map[string]string) (uuid.UUID, bool, error) {
	for _, matcher := range Policies[kind] {
		id, found, err := matcher(ctx, q, fields)
		if err != nil {
			return uuid.Nil, false, err
		}
		if found {
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}

// LookupMapping fetches the Entity Mapping for an external record, or
// (EntityMapping{}, false, nil) if none exists yet.
func LookupMapping(ctx context.Context, q *db.Queries, externalSystem string, kind EntityKind, externalID string) (db.EntityMapping, bool, error) {
	m, err := q.GetEntityMapping(ctx, externalSystem, string(kind), externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return db.EntityMapping{}, false, nil
		}
		return db.EntityMapping{}, false, err
	}
	return m, true, nil
}

// CreateMapping records a brand-new external-to-internal link.
func CreateMapping(ctx context.Context, q *db.Queries, externalSystem string, kind EntityKind, externalID, internalTable string, internalID uuid.UUID, externalLastModified time.Time) (db.EntityMapping, error) {
	return q.CreateEntityMapping(ctx, db.EntityMapping{
		ExternalSystem:       externalSystem,
		ExternalEntityKind:   string(kind),
		ExternalID:           externalID,
		InternalTable:        internalTable,
		InternalID:           internalID,
		Direction:            "inbound",
		ExternalLastModified: externalLastModified,
		InternalLastModified: externalLastModified,
	})
}
