package sync

import (
	"testing"
	"time"

	"github.com/meridiancrm/core/pkg/ingest"
)

func TestRetryPayloadRoundTrip(t *testing.T) {
	want := RetryPayload{
		Change: ingest.Change{
			ExternalSystem:       "fathom",
			EntityKind:           ingest.EntityKindMeeting,
			ExternalID:           "rec-1",
			Kind:                 ingest.ChangeCreate,
			ExternalLastModified: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
			Fields:               map[string]string{"title": "Kickoff"},
		},
		Reason: "transcript not yet materialized",
	}

	encoded, err := encodeRetryPayload(want)
	if err != nil {
		t.Fatalf("encodeRetryPayload() = %v", err)
	}

	got, err := decodeRetryPayload(encoded)
	if err != nil {
		t.Fatalf("decodeRetryPayload() = %v", err)
	}

	if got.Reason != want.Reason {
		t.Errorf("Reason = %q, want %q", got.Reason, want.Reason)
	}
	if got.Change.ExternalID != want.Change.ExternalID {
		t.Errorf("Change.ExternalID = %q, want %q", got.Change.ExternalID, want.Change.ExternalID)
	}
	if got.Change.EntityKind != want.Change.EntityKind {
		t.Errorf("Change.EntityKind = %q, want %q", got.Change.EntityKind, want.Change.EntityKind)
	}
	if !got.Change.ExternalLastModified.Equal(want.Change.ExternalLastModified) {
		t.Errorf("Change.ExternalLastModified = %v, want %v", got.Change.ExternalLastModified, want.Change.ExternalLastModified)
	}
	if got.Change.Fields["title"] != "Kickoff" {
		t.Errorf("Change.Fields[title] = %q, want Kickoff", got.Change.Fields["title"])
	}
}

func TestDecodeRetryPayload_Malformed(t *testing.T) {
	if _, err := decodeRetryPayload("not json"); err == nil {
		t.Fatal("decodeRetryPayload() = nil error, want error for malformed payload")
	}
}
