package topics

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
)

func TestExtractRawTopics_Empty(t *testing.T) {
	m := db.Meeting{ID: uuid.New()}
	got, err := ExtractRawTopics(m)
	if err != nil {
		t.Fatalf("ExtractRawTopics() error = %v", err)
	}
	if got != nil {
		t.Errorf("ExtractRawTopics() = %v, want nil for a meeting with no raw_topics", got)
	}
}

func TestExtractRawTopics_DecodesEachCandidate(t *testing.T) {
	occurred := time.Date(2026, 7, 20, 14, 0, 0, 0, time.UTC)
	m := db.Meeting{
		ID:         uuid.New(),
		OccurredAt: occurred,
		RawTopics: []byte(`[
			{"index": 0, "title": "Pricing", "description": "Discussed tiered pricing"},
			{"index": 1, "title": "Onboarding", "description": "Kickoff timeline"}
		]`),
	}

	got, err := ExtractRawTopics(m)
	if err != nil {
		t.Fatalf("ExtractRawTopics() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2", len(got))
	}
	if got[0].Title != "Pricing" || got[0].TopicIndex != 0 {
		t.Errorf("got[0] = %+v, want title Pricing index 0", got[0])
	}
	if got[1].MeetingID != m.ID || !got[1].OccurredAt.Equal(occurred) {
		t.Errorf("got[1] = %+v, want meeting/occurred to carry over from the source meeting", got[1])
	}
}

func TestExtractRawTopics_InvalidJSONErrors(t *testing.T) {
	m := db.Meeting{ID: uuid.New(), RawTopics: []byte(`not json`)}
	if _, err := ExtractRawTopics(m); err == nil {
		t.Fatal("expected an error decoding malformed raw_topics")
	}
}

func TestLatestOf(t *testing.T) {
	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(24 * time.Hour)

	if got := latestOf(earlier, later); !got.Equal(later) {
		t.Errorf("latestOf(earlier, later) = %v, want %v", got, later)
	}
	if got := latestOf(later, earlier); !got.Equal(later) {
		t.Errorf("latestOf(later, earlier) = %v, want %v", got, later)
	}
}
