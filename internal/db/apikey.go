package db

import (
	"context"

	"github.com/google/uuid"
)

// GetUserAPIKeyByHash looks up an end-user API key by its SHA-256 hash.
func (q *Queries) GetUserAPIKeyByHash(ctx context.Context, hash string) (UserAPIKey, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, user_id, key_hash, label, expires_at, last_used_at, created_at
		FROM user_api_keys
		WHERE key_hash = $1
	`, hash)

	var k UserAPIKey
	err := row.Scan(&k.ID, &k.UserID, &k.KeyHash, &k.Label, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt)
	return k, err
}

// CreateUserAPIKey inserts a new hashed API key for a user.
func (q *Queries) CreateUserAPIKey(ctx context.Context, userID uuid.UUID, hash, label string) (UserAPIKey, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO user_api_keys (id, user_id, key_hash, label, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, now())
		RETURNING id, user_id, key_hash, label, expires_at, last_used_at, created_at
	`, userID, hash, label)

	var k UserAPIKey
	err := row.Scan(&k.ID, &k.UserID, &k.KeyHash, &k.Label, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt)
	return k, err
}

// TouchUserAPIKey records the current time as an API key's last use.
func (q *Queries) TouchUserAPIKey(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `UPDATE user_api_keys SET last_used_at = now() WHERE id = $1`, id)
	return err
}
