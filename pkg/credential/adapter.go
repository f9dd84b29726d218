package credential

import (
	"context"
	"fmt"
	"time"
)

// ErrorClass distinguishes refresh failures that are worth retrying from
// ones that mean the credential is dead and needs reconnecting.
type ErrorClass int

const (
	// ErrorClassTransient is a network/5xx/rate-limit failure — the next
	// scheduled or triggered refresh attempt may succeed.
	ErrorClassTransient ErrorClass = iota
	// ErrorClassPermanent means the provider rejected the refresh secret
	// itself (revoked, expired refresh token, deauthorized app) — Acquire
	// must transition the credential to needs_reconnect and stop retrying.
	ErrorClassPermanent
)

// RefreshResult carries everything a successful provider refresh yields.
type RefreshResult struct {
	AccessSecret  string
	RefreshSecret string // empty when the provider does not rotate it
	SessionToken  string // set only by two-step adapters (Bullhorn)
	EndpointHint  string
	ExpiresAt     *time.Time
	Metadata      map[string]any
}

// ProviderAdapter refreshes a single integration's credential against its
// upstream provider. Implementations live in package providers.
type ProviderAdapter interface {
	Kind() Kind

	// Refresh exchanges the current refresh secret (or session state) for a
	// new access secret. It must not mutate any stored state itself —
	// manager.go owns persistence.
	Refresh(ctx context.Context, current Credential) (RefreshResult, error)

	// ClassifyError maps a Refresh error to a class so the manager knows
	// whether to retry later or invalidate immediately.
	ClassifyError(err error) ErrorClass
}

// AuthURLProvider is implemented by adapters that can initiate an
// authorization-code flow (all of them, except a TwoStepExchange adapter may
// instead require an out-of-band session token).
type AuthURLProvider interface {
	ProviderAdapter
	AuthCodeURL(state string) string
	// Exchange trades an authorization code for the first RefreshResult.
	Exchange(ctx context.Context, code string) (RefreshResult, error)
}

// TwoStepExchange is implemented by adapters whose refresh is not a single
// OAuth2 token refresh but a two-step handshake (Bullhorn: exchange refresh
// token for a session token, then resolve a tenant-specific REST endpoint).
type TwoStepExchange interface {
	ProviderAdapter
	ResolveEndpoint(ctx context.Context, sessionToken string) (endpointHint string, err error)
}

// AcquireErrorKind is the closed set of reasons Acquire can fail, distinct
// enough that a caller needs to react differently to each: there is nothing
// to retry (NotConnected, NeedsReconnect, Permanent) versus try-again-later
// (Transient, Contended).
type AcquireErrorKind int

const (
	// AcquireErrorNotConnected means no credential row exists for the
	// integration at all — the tenant never completed a connect flow.
	AcquireErrorNotConnected AcquireErrorKind = iota
	// AcquireErrorNeedsReconnect means a stored credential exists but has
	// already been marked needs_reconnect or revoked; only a fresh connect
	// flow (not a refresh) can clear it.
	AcquireErrorNeedsReconnect
	// AcquireErrorTransient means a refresh attempt failed for a reason the
	// next attempt may not (network error, 5xx, rate limit).
	AcquireErrorTransient
	// AcquireErrorPermanent means the provider rejected the refresh secret
	// itself; Acquire has already transitioned the credential to
	// needs_reconnect by the time this is returned.
	AcquireErrorPermanent
	// AcquireErrorContended means another process holds the refresh lease;
	// the caller should retry shortly rather than treat this as a failure.
	AcquireErrorContended
)

func (k AcquireErrorKind) String() string {
	switch k {
	case AcquireErrorNotConnected:
		return "not_connected"
	case AcquireErrorNeedsReconnect:
		return "needs_reconnect"
	case AcquireErrorTransient:
		return "transient"
	case AcquireErrorPermanent:
		return "permanent"
	case AcquireErrorContended:
		return "contended"
	default:
		return "unknown"
	}
}

// AcquireError is the typed failure Acquire and refresh return in place of
// an opaque fmt.Errorf string, so a caller (handler.go's handleRefresh in
// particular) can branch on Kind via errors.As instead of matching message
// text.
type AcquireError struct {
	Kind        AcquireErrorKind
	Integration Kind
	Reason      string
	Err         error
}

func (e *AcquireError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s credential %s: %s", e.Integration, e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s credential %s", e.Integration, e.Kind)
}

func (e *AcquireError) Unwrap() error { return e.Err }
