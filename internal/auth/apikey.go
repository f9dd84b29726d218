package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/meridiancrm/core/internal/db"
)

// HashAPIKey hashes a raw end-user API key for storage and lookup. Keys are
// never stored in plaintext; only this hash is persisted.
func HashAPIKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// APIKeyAuthenticator validates end-user API keys against the hashed lookup
// table within a tenant's schema.
type APIKeyAuthenticator struct {
	DB db.DBTX
}

// Authenticate hashes the raw key, looks it up, and checks expiration.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, rawKey string) (db.UserAPIKey, error) {
	if rawKey == "" {
		return db.UserAPIKey{}, fmt.Errorf("empty API key")
	}

	q := db.New(a.DB)
	key, err := q.GetUserAPIKeyByHash(ctx, HashAPIKey(rawKey))
	if err != nil {
		return db.UserAPIKey{}, fmt.Errorf("looking up API key: %w", err)
	}

	if key.ExpiresAt != nil && key.ExpiresAt.Before(time.Now()) {
		return db.UserAPIKey{}, fmt.Errorf("API key expired at %s", key.ExpiresAt)
	}

	go func() {
		_ = q.TouchUserAPIKey(context.Background(), key.ID)
	}()

	return key, nil
}
