package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// GetContactByEmail finds a contact by its natural key. Contact is the one
// external_entity_kind with a true natural key (email), so reconciliation
// falls back to this when no entity_mappings row exists for the external id.
func (q *Queries) GetContactByEmail(ctx context.Context, email string) (Contact, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, company, soft_deleted, updated_at
		FROM contacts
		WHERE email = $1
	`, email)

	var c Contact
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.SoftDeleted, &c.UpdatedAt)
	return c, err
}

// GetContactByID fetches a contact by internal id, used when a reconcile
// delete arrives and the caller only has the Entity Mapping's internal_id.
func (q *Queries) GetContactByID(ctx context.Context, id uuid.UUID) (Contact, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, email, first_name, last_name, company, soft_deleted, updated_at
		FROM contacts
		WHERE id = $1
	`, id)

	var c Contact
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Company, &c.SoftDeleted, &c.UpdatedAt)
	return c, err
}

// UpsertContact inserts or overwrites a contact row, keyed on email. The caller
// is responsible for the last-writer-wins comparison; UpsertContact always
// writes unconditionally once called.
func (q *Queries) UpsertContact(ctx context.Context, c Contact) (Contact, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO contacts (id, email, first_name, last_name, company, soft_deleted, updated_at)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			company = EXCLUDED.company,
			soft_deleted = EXCLUDED.soft_deleted,
			updated_at = EXCLUDED.updated_at
		RETURNING id, email, first_name, last_name, company, soft_deleted, updated_at
	`, nullableUUID(c.ID), c.Email, c.FirstName, c.LastName, c.Company, c.SoftDeleted, c.UpdatedAt)

	var out Contact
	err := row.Scan(&out.ID, &out.Email, &out.FirstName, &out.LastName, &out.Company, &out.SoftDeleted, &out.UpdatedAt)
	return out, err
}

func nullableUUID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// GetDeal fetches a deal by internal id.
func (q *Queries) GetDeal(ctx context.Context, id uuid.UUID) (Deal, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, title, stage, value_cents, contact_id, soft_deleted, updated_at
		FROM deals
		WHERE id = $1
	`, id)

	var d Deal
	err := row.Scan(&d.ID, &d.Title, &d.Stage, &d.ValueCents, &d.ContactID, &d.SoftDeleted, &d.UpdatedAt)
	return d, err
}

// UpsertDeal inserts a new deal, or overwrites an existing one by id. Deals
// have no natural key of their own; identity comes entirely from
// entity_mappings, so callers always know the internal id up front (either
// freshly generated, or looked up from a prior mapping).
func (q *Queries) UpsertDeal(ctx context.Context, d Deal) (Deal, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO deals (id, title, stage, value_cents, contact_id, soft_deleted, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			stage = EXCLUDED.stage,
			value_cents = EXCLUDED.value_cents,
			contact_id = EXCLUDED.contact_id,
			soft_deleted = EXCLUDED.soft_deleted,
			updated_at = EXCLUDED.updated_at
		RETURNING id, title, stage, value_cents, contact_id, soft_deleted, updated_at
	`, d.ID, d.Title, d.Stage, d.ValueCents, d.ContactID, d.SoftDeleted, d.UpdatedAt)

	var out Deal
	err := row.Scan(&out.ID, &out.Title, &out.Stage, &out.ValueCents, &out.ContactID, &out.SoftDeleted, &out.UpdatedAt)
	return out, err
}

// GetMeeting fetches a meeting by internal id.
func (q *Queries) GetMeeting(ctx context.Context, id uuid.UUID) (Meeting, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, title, occurred_at, contact_id, raw_topics, soft_deleted, updated_at
		FROM meetings
		WHERE id = $1
	`, id)

	var m Meeting
	err := row.Scan(&m.ID, &m.Title, &m.OccurredAt, &m.ContactID, &m.RawTopics, &m.SoftDeleted, &m.UpdatedAt)
	return m, err
}

// UpsertMeeting inserts or overwrites a meeting by id, following the same
// caller-resolves-identity convention as UpsertDeal.
func (q *Queries) UpsertMeeting(ctx context.Context, m Meeting) (Meeting, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO meetings (id, title, occurred_at, contact_id, raw_topics, soft_deleted, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			occurred_at = EXCLUDED.occurred_at,
			contact_id = EXCLUDED.contact_id,
			raw_topics = EXCLUDED.raw_topics,
			soft_deleted = EXCLUDED.soft_deleted,
			updated_at = EXCLUDED.updated_at
		RETURNING id, title, occurred_at, contact_id, raw_topics, soft_deleted, updated_at
	`, m.ID, m.Title, m.OccurredAt, m.ContactID, m.RawTopics, m.SoftDeleted, m.UpdatedAt)

	var out Meeting
	err := row.Scan(&out.ID, &out.Title, &out.OccurredAt, &out.ContactID, &out.RawTopics, &out.SoftDeleted, &out.UpdatedAt)
	return out, err
}

// ListMeetingsSince returns meetings that occurred at or after the cutoff,
// used by the topic aggregation queue drain to source raw topics.
func (q *Queries) ListMeetingsSince(ctx context.Context, cutoff time.Time) ([]Meeting, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, title, occurred_at, contact_id, raw_topics, soft_deleted, updated_at
		FROM meetings
		WHERE occurred_at >= $1 AND soft_deleted = false
		ORDER BY occurred_at
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.Title, &m.OccurredAt, &m.ContactID, &m.RawTopics, &m.SoftDeleted, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
