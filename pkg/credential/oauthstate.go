package credential

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
)

// StateTTL is the maximum lifetime of an OAuth State token (spec §3: ≤15
// minutes, single-use).
const StateTTL = 15 * time.Minute

// BeginOAuthState records a pending authorization-code handshake and
// returns the opaque state token to embed in the provider's AuthCodeURL.
func BeginOAuthState(ctx context.Context, q *db.Queries, userID *uuid.UUID, kind Kind, redirectURI, pkceVerifier string) (string, error) {
	token, err := randomToken()
	if err != nil {
		return "", err
	}
	err = q.CreateOAuthState(ctx, db.OAuthState{
		Token:           token,
		UserID:          userID,
		IntegrationKind: string(kind),
		RedirectURI:     redirectURI,
		PKCEVerifier:    pkceVerifier,
		ExpiresAt:       time.Now().Add(StateTTL),
	})
	if err != nil {
		return "", fmt.Errorf("recording oauth state: %w", err)
	}
	return token, nil
}

// ConsumeOAuthState atomically consumes a state token, returning an error if
// it is unknown, expired, or already used — the single-use guarantee spec
// §3 requires of the OAuth State object.
func ConsumeOAuthState(ctx context.Context, q *db.Queries, token string) (db.OAuthState, error) {
	s, err := q.ConsumeOAuthState(ctx, token)
	if err != nil {
		return db.OAuthState{}, fmt.Errorf("consuming oauth state: %w", err)
	}
	return s, nil
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating oauth state token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
