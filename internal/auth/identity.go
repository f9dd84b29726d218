package auth

import (
	"context"

	"github.com/google/uuid"
)

// Authentication methods, recorded on Identity for logging and for
// deciding which operations a caller may invoke (spec §6.1: end-user
// sessions may request suggestions and submit feedback; only the
// service role and cron secret may drive sync/ingest/worker endpoints).
const (
	MethodUser    = "user"
	MethodService = "service"
	MethodCron    = "cron"
)

// Identity is the authenticated caller, attached to the request context by
// Middleware and read by downstream handlers and the tenant resolver.
type Identity struct {
	Method     string
	TenantSlug string
	TenantID   uuid.UUID
	UserID     *uuid.UUID
	APIKeyID   *uuid.UUID
}

type contextKey string

const identityKey contextKey = "auth_identity"

// NewContext stores an Identity in the context.
func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the Identity from the context, or nil if absent.
func FromContext(ctx context.Context) *Identity {
	v, _ := ctx.Value(identityKey).(*Identity)
	return v
}
