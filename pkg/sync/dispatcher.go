package sync

import (
	"context"
	"time"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/pkg/credential"
)

// Dispatcher performs the actual outbound sync for one integration. C2 never
// talks to a specific REST API directly — that responsibility belongs to
// the adapter registered per credential.Kind, keeping the orchestrator
// integration-agnostic (spec §1 scopes per-integration REST clients out of
// this package).
type Dispatcher interface {
	Kind() credential.Kind

	// Dispatch runs one sync pass for a single tenant, using cred (already
	// Acquired and guaranteed live) to authenticate outbound calls. windowStart
	// is only meaningful when mode is ModeCatchUp. It returns the run Summary
	// and the cursor to persist on success.
	Dispatch(ctx context.Context, q *db.Queries, cred credential.Credential, mode Mode, cursor string, windowStart time.Time) (Summary, string, error)
}
