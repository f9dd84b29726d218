package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/pkg/ingest"
	"github.com/meridiancrm/core/pkg/workqueue"
)

// RetryBatchSize bounds how many KindSyncRetry items DrainRetries claims
// per run, mirroring C5's topics drain batch size default.
const RetryBatchSize = 50

// RetryPayload is the JSON shape persisted as a KindSyncRetry work item's
// SubjectRef: the Change that could not be reconciled inline because a
// dependent artifact (spec §4.2, e.g. a transcript not yet materialized)
// was not yet available.
type RetryPayload struct {
	Change ingest.Change `json:"change"`
	Reason string        `json:"reason"`
}

func encodeRetryPayload(p RetryPayload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding retry payload: %w", err)
	}
	return string(b), nil
}

func decodeRetryPayload(subjectRef string) (RetryPayload, error) {
	var p RetryPayload
	if err := json.Unmarshal([]byte(subjectRef), &p); err != nil {
		return RetryPayload{}, fmt.Errorf("decoding retry payload: %w", err)
	}
	return p, nil
}

// RetryReport summarizes one DrainRetries run.
type RetryReport struct {
	Processed  int `json:"processed"`
	Reconciled int `json:"reconciled"`
	Failed     int `json:"failed"`
}

// DrainRetries resets any failed KindSyncRetry items still under
// workqueue.MaxAttempts back to pending, then claims up to limit pending
// items and re-attempts ingest.Reconcile for each, completing the item on
// success and failing it (eligible for another pass once the dependency
// resolves) otherwise.
func (o *Orchestrator) DrainRetries(ctx context.Context, q *db.Queries, limit int) (RetryReport, error) {
	var report RetryReport
	wq := workqueue.New(q)

	if _, err := wq.RetryFailed(ctx, workqueue.KindSyncRetry); err != nil {
		return report, fmt.Errorf("resetting failed sync retry items: %w", err)
	}

	items, err := wq.Claim(ctx, workqueue.KindSyncRetry, limit)
	if err != nil {
		return report, fmt.Errorf("claiming sync retry items: %w", err)
	}

	for _, item := range items {
		report.Processed++

		payload, err := decodeRetryPayload(item.SubjectRef)
		if err != nil {
			report.Failed++
			if ferr := wq.Fail(ctx, item.ID, err.Error()); ferr != nil {
				o.logger.Error("marking malformed retry item failed", "item_id", item.ID, "error", ferr)
			}
			continue
		}

		outcome, err := ingest.Reconcile(ctx, q, payload.Change)
		if err != nil {
			report.Failed++
			if ferr := wq.Fail(ctx, item.ID, err.Error()); ferr != nil {
				o.logger.Error("marking retry item failed", "item_id", item.ID, "error", ferr)
			}
			continue
		}

		o.logger.Info("sync retry reconciled",
			"entity_kind", payload.Change.EntityKind,
			"external_id", payload.Change.ExternalID,
			"outcome", outcome,
		)
		report.Reconciled++
		if cerr := wq.Complete(ctx, item.ID); cerr != nil {
			o.logger.Error("completing retry item", "item_id", item.ID, "error", cerr)
		}
	}
	return report, nil
}
