// Package credential implements the Credential Lifecycle Manager (C1): the
// single path by which every other component obtains a live access secret
// for an integration, refreshing it transparently and never handing back an
// expired one.
package credential

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies an integration whose credentials this package manages.
type Kind string

const (
	KindFathom   Kind = "fathom"
	KindGoogle   Kind = "google"
	KindHubSpot  Kind = "hubspot"
	KindBullhorn Kind = "bullhorn"
	KindSavvyCal Kind = "savvycal"
	KindSlack    Kind = "slack"
	KindStripe   Kind = "stripe"
)

// Status is the lifecycle state of a stored credential.
type Status string

const (
	StatusActive         Status = "active"
	StatusNeedsReconnect Status = "needs_reconnect"
	StatusRevoked        Status = "revoked"
)

// Credential is the decrypted, in-memory view of a tenant's integration
// credential. AccessSecret and RefreshSecret are plaintext only while held
// here — every persisted form is AES-GCM sealed by store.go.
type Credential struct {
	ID              uuid.UUID
	Kind            Kind
	AccessSecret    string
	RefreshSecret   string
	SessionToken    string
	EndpointHint    string
	ExpiresAt       *time.Time
	Status          Status
	LastRefreshAt   *time.Time
	Metadata        map[string]any
}

// ExpiresWithin reports whether the credential's expiry falls at or before
// now+window. A credential with no expiry reports false — it has nothing to
// refresh proactively.
func (c Credential) ExpiresWithin(now time.Time, window time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.After(now.Add(window))
}

// IsExpired reports whether the credential's expiry, offset by a safety
// window, has already passed relative to now. A credential within the
// safety window of expiry is treated as expired — Acquire must refresh it
// rather than hand back a secret that could die mid-request (spec §4.1).
func (c Credential) IsExpired(now time.Time, safetyWindow time.Duration) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return !c.ExpiresAt.After(now.Add(safetyWindow))
}
