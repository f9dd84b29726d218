package db

import (
	"context"
	"encoding/json"
	"net/netip"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// AuditLogEntry is a row in tenant.audit_log.
type AuditLogEntry struct {
	ID         pgtype.UUID     `json:"id"`
	UserID     pgtype.UUID     `json:"user_id,omitempty"`
	APIKeyID   pgtype.UUID     `json:"api_key_id,omitempty"`
	Action     string          `json:"action"`
	Resource   string          `json:"resource"`
	ResourceID pgtype.UUID     `json:"resource_id,omitempty"`
	Detail     json.RawMessage `json:"detail,omitempty"`
	IPAddress  *netip.Addr     `json:"ip_address,omitempty"`
	UserAgent  *string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// CreateAuditLogEntryParams carries the fields written for a new audit entry.
type CreateAuditLogEntryParams struct {
	UserID     pgtype.UUID
	ApiKeyID   pgtype.UUID
	Action     string
	Resource   string
	ResourceID pgtype.UUID
	Detail     json.RawMessage
	IpAddress  *netip.Addr
	UserAgent  *string
}

// CreateAuditLogEntry appends one entry to the tenant's audit log.
func (q *Queries) CreateAuditLogEntry(ctx context.Context, arg CreateAuditLogEntryParams) (AuditLogEntry, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO audit_log (
			id, user_id, api_key_id, action, resource, resource_id, detail,
			ip_address, user_agent, created_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING id, user_id, api_key_id, action, resource, resource_id,
		          detail, ip_address, user_agent, created_at
	`, arg.UserID, arg.ApiKeyID, arg.Action, arg.Resource, arg.ResourceID, arg.Detail, arg.IpAddress, arg.UserAgent)

	var e AuditLogEntry
	err := row.Scan(&e.ID, &e.UserID, &e.APIKeyID, &e.Action, &e.Resource, &e.ResourceID,
		&e.Detail, &e.IPAddress, &e.UserAgent, &e.CreatedAt)
	return e, err
}

// ListAuditLogParams carries offset-pagination parameters.
type ListAuditLogParams struct {
	Limit  int32
	Offset int32
}

// ListAuditLog returns a page of audit entries, most recent first.
func (q *Queries) ListAuditLog(ctx context.Context, arg ListAuditLogParams) ([]AuditLogEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, user_id, api_key_id, action, resource, resource_id,
		       detail, ip_address, user_agent, created_at
		FROM audit_log
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditLogEntry
	for rows.Next() {
		var e AuditLogEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.APIKeyID, &e.Action, &e.Resource, &e.ResourceID,
			&e.Detail, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
