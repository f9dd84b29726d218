package credential

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridiancrm/core/internal/db"
)

// Sealer encrypts and decrypts credential secrets at rest with AES-256-GCM.
// There is no pack dependency offering authenticated symmetric encryption
// (see DESIGN.md), so this is the one place the credential package reaches
// for crypto/cipher directly rather than a third-party library.
type Sealer struct {
	gcm cipher.AEAD
}

// NewSealer builds a Sealer from a base64-encoded 32-byte key
// (CREDENTIAL_ENCRYPTION_KEY).
func NewSealer(base64Key string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("decoding credential encryption key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("constructing AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("constructing GCM: %w", err)
	}
	return &Sealer{gcm: gcm}, nil
}

// seal encrypts plaintext, prefixing the random nonce. An empty plaintext
// seals to a nil ciphertext so optional secrets (refresh token not rotated,
// no session token) round-trip as nil rather than an encrypted empty string.
func (s *Sealer) seal(plaintext string) ([]byte, error) {
	if plaintext == "" {
		return nil, nil
	}
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return s.gcm.Seal(nonce, nonce, []byte(plaintext), nil), nil
}

func (s *Sealer) open(ciphertext []byte) (string, error) {
	if len(ciphertext) == 0 {
		return "", nil
	}
	n := s.gcm.NonceSize()
	if len(ciphertext) < n {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, body := ciphertext[:n], ciphertext[n:]
	plaintext, err := s.gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return "", fmt.Errorf("decrypting secret: %w", err)
	}
	return string(plaintext), nil
}

// Store persists Credentials against the tenant-scoped db.Queries, sealing
// secrets on write and opening them on read.
type Store struct {
	sealer *Sealer
}

// NewStore builds a Store over the given Sealer.
func NewStore(sealer *Sealer) *Store {
	return &Store{sealer: sealer}
}

// Get fetches and decrypts a tenant's credential for kind. Returns
// (Credential{}, false, nil) when no row exists.
func (st *Store) Get(ctx context.Context, q *db.Queries, kind Kind) (Credential, bool, error) {
	row, err := q.GetCredential(ctx, string(kind))
	if err != nil {
		if isNoRows(err) {
			return Credential{}, false, nil
		}
		return Credential{}, false, fmt.Errorf("fetching credential: %w", err)
	}
	c, err := st.fromRow(row)
	if err != nil {
		return Credential{}, false, err
	}
	return c, true, nil
}

// Put seals and upserts a Credential, returning the stored view (with
// server-stamped timestamps).
func (st *Store) Put(ctx context.Context, q *db.Queries, c Credential) (Credential, error) {
	accessEnc, err := st.sealer.seal(c.AccessSecret)
	if err != nil {
		return Credential{}, err
	}
	refreshEnc, err := st.sealer.seal(c.RefreshSecret)
	if err != nil {
		return Credential{}, err
	}
	sessionEnc, err := st.sealer.seal(c.SessionToken)
	if err != nil {
		return Credential{}, err
	}
	metaJSON, err := json.Marshal(c.Metadata)
	if err != nil {
		return Credential{}, fmt.Errorf("marshaling credential metadata: %w", err)
	}

	row, err := q.UpsertCredential(ctx, db.UpsertCredentialParams{
		IntegrationKind:  string(c.Kind),
		AccessSecretEnc:  accessEnc,
		RefreshSecretEnc: refreshEnc,
		SessionTokenEnc:  sessionEnc,
		EndpointHint:     c.EndpointHint,
		ExpiresAt:        c.ExpiresAt,
		Status:           string(c.Status),
		Metadata:         metaJSON,
	})
	if err != nil {
		return Credential{}, fmt.Errorf("upserting credential: %w", err)
	}
	return st.fromRow(row)
}

// SetStatus transitions a credential's status in place without touching
// its secrets.
func (st *Store) SetStatus(ctx context.Context, q *db.Queries, kind Kind, status Status) error {
	return q.SetCredentialStatus(ctx, string(kind), string(status))
}

// ListNeedingProactiveRefresh returns decrypted credentials whose expiry
// falls inside the proactive refresh window.
func (st *Store) ListNeedingProactiveRefresh(ctx context.Context, q *db.Queries, before time.Time) ([]Credential, error) {
	rows, err := q.ListCredentialsNeedingProactiveRefresh(ctx, before)
	if err != nil {
		return nil, err
	}
	out := make([]Credential, 0, len(rows))
	for _, row := range rows {
		c, err := st.fromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (st *Store) fromRow(row db.IntegrationCredential) (Credential, error) {
	access, err := st.sealer.open(row.AccessSecretEnc)
	if err != nil {
		return Credential{}, err
	}
	refresh, err := st.sealer.open(row.RefreshSecretEnc)
	if err != nil {
		return Credential{}, err
	}
	session, err := st.sealer.open(row.SessionTokenEnc)
	if err != nil {
		return Credential{}, err
	}
	var meta map[string]any
	if len(row.Metadata) > 0 {
		if err := json.Unmarshal(row.Metadata, &meta); err != nil {
			return Credential{}, fmt.Errorf("unmarshaling credential metadata: %w", err)
		}
	}
	return Credential{
		ID:            row.ID,
		Kind:          Kind(row.IntegrationKind),
		AccessSecret:  access,
		RefreshSecret: refresh,
		SessionToken:  session,
		EndpointHint:  row.EndpointHint,
		ExpiresAt:     row.ExpiresAt,
		Status:        Status(row.Status),
		LastRefreshAt: row.LastRefreshAt,
		Metadata:      meta,
	}, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
