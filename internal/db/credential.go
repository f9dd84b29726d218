package db

import (
	"context"
	"time"
)

// GetCredential fetches the single credential row for an integration kind
// within the calling tenant schema. Returns pgx.ErrNoRows when absent.
func (q *Queries) GetCredential(ctx context.Context, integrationKind string) (IntegrationCredential, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, integration_kind, access_secret_enc, refresh_secret_enc,
		       session_token_enc, endpoint_hint, expires_at, status,
		       last_refresh_at, metadata, created_at, updated_at
		FROM integration_credentials
		WHERE integration_kind = $1
	`, integrationKind)

	var c IntegrationCredential
	err := row.Scan(
		&c.ID, &c.IntegrationKind, &c.AccessSecretEnc, &c.RefreshSecretEnc,
		&c.SessionTokenEnc, &c.EndpointHint, &c.ExpiresAt, &c.Status,
		&c.LastRefreshAt, &c.Metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// UpsertCredentialParams carries the fields written on initial connect and
// on every refresh.
type UpsertCredentialParams struct {
	IntegrationKind  string
	AccessSecretEnc  []byte
	RefreshSecretEnc []byte
	SessionTokenEnc  []byte
	EndpointHint     string
	ExpiresAt        *time.Time
	Status           string
	Metadata         []byte
}

// UpsertCredential inserts or replaces the single row for (tenant,
// integration_kind), stamping last_refresh_at so Acquire can compute the
// proactive-refresh window.
func (q *Queries) UpsertCredential(ctx context.Context, arg UpsertCredentialParams) (IntegrationCredential, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO integration_credentials (
			id, integration_kind, access_secret_enc, refresh_secret_enc,
			session_token_enc, endpoint_hint, expires_at, status,
			last_refresh_at, metadata, created_at, updated_at
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, now(), $7, now(), now())
		ON CONFLICT (integration_kind) DO UPDATE SET
			access_secret_enc = EXCLUDED.access_secret_enc,
			refresh_secret_enc = EXCLUDED.refresh_secret_enc,
			session_token_enc = EXCLUDED.session_token_enc,
			endpoint_hint = EXCLUDED.endpoint_hint,
			expires_at = EXCLUDED.expires_at,
			status = EXCLUDED.status,
			last_refresh_at = now(),
			metadata = EXCLUDED.metadata,
			updated_at = now()
		RETURNING id, integration_kind, access_secret_enc, refresh_secret_enc,
		          session_token_enc, endpoint_hint, expires_at, status,
		          last_refresh_at, metadata, created_at, updated_at
	`, arg.IntegrationKind, arg.AccessSecretEnc, arg.RefreshSecretEnc,
		arg.SessionTokenEnc, arg.EndpointHint, arg.ExpiresAt, arg.Status, arg.Metadata)

	var c IntegrationCredential
	err := row.Scan(
		&c.ID, &c.IntegrationKind, &c.AccessSecretEnc, &c.RefreshSecretEnc,
		&c.SessionTokenEnc, &c.EndpointHint, &c.ExpiresAt, &c.Status,
		&c.LastRefreshAt, &c.Metadata, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// SetCredentialStatus transitions a credential's status without touching its
// secrets, used on invalidation (needs_reconnect) and on provider-confirmed
// revocation.
func (q *Queries) SetCredentialStatus(ctx context.Context, integrationKind, status string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE integration_credentials
		SET status = $2, updated_at = now()
		WHERE integration_kind = $1
	`, integrationKind, status)
	return err
}

// ListCredentialsNeedingProactiveRefresh returns every active credential
// across the tenant whose expiry falls inside the proactive refresh window,
// for the background refresh sweep.
func (q *Queries) ListCredentialsNeedingProactiveRefresh(ctx context.Context, before time.Time) ([]IntegrationCredential, error) {
	rows, err := q.db.Query(ctx, `
		SELECT id, integration_kind, access_secret_enc, refresh_secret_enc,
		       session_token_enc, endpoint_hint, expires_at, status,
		       last_refresh_at, metadata, created_at, updated_at
		FROM integration_credentials
		WHERE status = 'active' AND expires_at IS NOT NULL AND expires_at <= $1
	`, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []IntegrationCredential
	for rows.Next() {
		var c IntegrationCredential
		if err := rows.Scan(
			&c.ID, &c.IntegrationKind, &c.AccessSecretEnc, &c.RefreshSecretEnc,
			&c.SessionTokenEnc, &c.EndpointHint, &c.ExpiresAt, &c.Status,
			&c.LastRefreshAt, &c.Metadata, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateOAuthState records a pending authorization-code handshake.
func (q *Queries) CreateOAuthState(ctx context.Context, s OAuthState) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO oauth_states (
			token, user_id, integration_kind, redirect_uri, pkce_verifier,
			created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, now(), $6)
	`, s.Token, s.UserID, s.IntegrationKind, s.RedirectURI, s.PKCEVerifier, s.ExpiresAt)
	return err
}

// ConsumeOAuthState atomically fetches and marks consumed a state token,
// returning pgx.ErrNoRows if it is unknown, expired, or already consumed.
func (q *Queries) ConsumeOAuthState(ctx context.Context, token string) (OAuthState, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE oauth_states
		SET consumed_at = now()
		WHERE token = $1 AND consumed_at IS NULL AND expires_at > now()
		RETURNING token, user_id, integration_kind, redirect_uri,
		          pkce_verifier, created_at, expires_at, consumed_at
	`, token)

	var s OAuthState
	err := row.Scan(
		&s.Token, &s.UserID, &s.IntegrationKind, &s.RedirectURI,
		&s.PKCEVerifier, &s.CreatedAt, &s.ExpiresAt, &s.ConsumedAt,
	)
	return s, err
}
