package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/telemetry"
)

// HashPayload returns the hex-encoded SHA-256 digest of a raw webhook body,
// stored in the ledger for audit/debugging rather than dedup (dedup keys on
// the provider's own event ID, not payload content).
func HashPayload(rawBody []byte) string {
	sum := sha256.Sum256(rawBody)
	return hex.EncodeToString(sum[:])
}

// RecordEvent inserts the event into the ledger if it is not a duplicate,
// returning duplicate=true when the (externalSystem, externalEventID) pair
// was already recorded. occurredAt is the provider's own event timestamp,
// when available.
func RecordEvent(ctx context.Context, q *db.Queries, externalSystem, externalEventID string, occurredAt *time.Time, rawBody []byte, result string) (duplicate bool, err error) {
	inserted, err := q.RecordEvent(ctx, db.EventLedgerEntry{
		ExternalSystem:     externalSystem,
		ExternalEventID:    externalEventID,
		PayloadHash:        HashPayload(rawBody),
		ExternalOccurredAt: occurredAt,
		ProcessingResult:   result,
	})
	if err != nil {
		return false, fmt.Errorf("recording event in ledger: %w", err)
	}
	if !inserted {
		telemetry.EventsDeduplicatedTotal.WithLabelValues(externalSystem).Inc()
		return true, nil
	}
	return false, nil
}
