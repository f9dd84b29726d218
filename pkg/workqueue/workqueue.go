// Package workqueue implements the generic Work Queue Item (spec §3) shared
// by C2's enqueue_retry and C5's incremental topic drain:
// pending -> processing -> completed|failed, with failed -> pending the
// only backward transition, bounded by max attempts.
package workqueue

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
)

// Kind namespaces queue items by the work they represent.
type Kind string

const (
	// KindSyncRetry is enqueued by C2 when a dependent artifact (e.g. a
	// meeting transcript) is not yet available for a sync target.
	KindSyncRetry Kind = "sync_retry"
	// KindTopicsIncremental is enqueued whenever a meeting's raw topics are
	// ready for C5's incremental clustering pass.
	KindTopicsIncremental Kind = "topics_incremental"
)

// MaxAttempts bounds how many times a failed item may be retried before it
// is left in a terminal failed state for operator inspection.
const MaxAttempts = 5

// Queue wraps the tenant-scoped db.Queries work_queue_items operations.
type Queue struct {
	q *db.Queries
}

// New builds a Queue over a tenant-scoped db.Queries.
func New(q *db.Queries) *Queue {
	return &Queue{q: q}
}

// Enqueue pushes a new pending item referencing subjectRef (an opaque
// identifier the consuming component interprets, e.g. "meeting:<uuid>").
func (w *Queue) Enqueue(ctx context.Context, kind Kind, subjectRef string) (db.WorkQueueItem, error) {
	item, err := w.q.EnqueueWork(ctx, string(kind), subjectRef)
	if err != nil {
		return db.WorkQueueItem{}, fmt.Errorf("enqueuing %s work item: %w", kind, err)
	}
	return item, nil
}

// Claim atomically claims up to limit pending items of kind, flipping them
// to processing so concurrent drain loops never double-handle an item.
func (w *Queue) Claim(ctx context.Context, kind Kind, limit int) ([]db.WorkQueueItem, error) {
	items, err := w.q.ClaimPendingWork(ctx, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("claiming %s work items: %w", kind, err)
	}
	return items, nil
}

// Complete marks an item completed.
func (w *Queue) Complete(ctx context.Context, id uuid.UUID) error {
	return w.q.CompleteWork(ctx, id)
}

// Fail marks an item failed, recording the reason. A subsequent RetryFailed
// call will give it another attempt unless it has hit MaxAttempts.
func (w *Queue) Fail(ctx context.Context, id uuid.UUID, reason string) error {
	return w.q.FailWork(ctx, id, reason)
}

// RetryFailed resets every failed item of kind below MaxAttempts back to
// pending, returning how many were reset.
func (w *Queue) RetryFailed(ctx context.Context, kind Kind) (int64, error) {
	n, err := w.q.RetryFailedWork(ctx, string(kind), MaxAttempts)
	if err != nil {
		return 0, fmt.Errorf("retrying failed %s work items: %w", kind, err)
	}
	return n, nil
}
