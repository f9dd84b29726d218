package db

import (
	"context"

	"github.com/google/uuid"
)

// EnqueueWork inserts a new pending work queue item.
func (q *Queries) EnqueueWork(ctx context.Context, kind, subjectRef string) (WorkQueueItem, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO work_queue_items (id, kind, subject_ref, status, attempts, created_at)
		VALUES (gen_random_uuid(), $1, $2, 'pending', 0, now())
		RETURNING id, kind, subject_ref, status, attempts, last_error, created_at, processed_at
	`, kind, subjectRef)

	var w WorkQueueItem
	err := row.Scan(&w.ID, &w.Kind, &w.SubjectRef, &w.Status, &w.Attempts, &w.LastError, &w.CreatedAt, &w.ProcessedAt)
	return w, err
}

// ClaimPendingWork atomically claims up to limit pending items of a kind,
// flipping them to processing so concurrent workers never double-handle an
// item.
func (q *Queries) ClaimPendingWork(ctx context.Context, kind string, limit int) ([]WorkQueueItem, error) {
	rows, err := q.db.Query(ctx, `
		UPDATE work_queue_items
		SET status = 'processing', attempts = attempts + 1
		WHERE id IN (
			SELECT id FROM work_queue_items
			WHERE kind = $1 AND status = 'pending'
			ORDER BY created_at
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, kind, subject_ref, status, attempts, last_error, created_at, processed_at
	`, kind, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WorkQueueItem
	for rows.Next() {
		var w WorkQueueItem
		if err := rows.Scan(&w.ID, &w.Kind, &w.SubjectRef, &w.Status, &w.Attempts, &w.LastError, &w.CreatedAt, &w.ProcessedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// CompleteWork marks an item completed.
func (q *Queries) CompleteWork(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, `
		UPDATE work_queue_items
		SET status = 'completed', processed_at = now()
		WHERE id = $1
	`, id)
	return err
}

// FailWork marks an item failed and records the error. Failed items are
// eligible for retry via RetryFailedWork until their attempts reach its
// maxAttempts.
func (q *Queries) FailWork(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := q.db.Exec(ctx, `
		UPDATE work_queue_items
		SET status = 'failed', last_error = $2, processed_at = now()
		WHERE id = $1
	`, id, lastError)
	return err
}

// RetryFailedWork resets failed items of a kind back to pending, skipping
// any that have already exhausted maxAttempts.
func (q *Queries) RetryFailedWork(ctx context.Context, kind string, maxAttempts int) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE work_queue_items
		SET status = 'pending'
		WHERE kind = $1 AND status = 'failed' AND attempts < $2
	`, kind, maxAttempts)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
