package ai

import (
	"context"
	"testing"
	"time"

	"github.com/meridiancrm/core/internal/db"
)

func TestDraftFollowUp_WithContactAndMeeting(t *testing.T) {
	d := NewDefaultDispatcher()
	dossier := Dossier{
		Contact: &db.Contact{FirstName: "Ada"},
		Meeting: &db.Meeting{Title: "Kickoff", OccurredAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	got, err := d.Invoke(context.Background(), "draft_follow_up", DraftInput{Dossier: dossier})
	if err != nil {
		t.Fatalf("Invoke() = %v", err)
	}
	out, ok := got.(DraftOutput)
	if !ok {
		t.Fatalf("Invoke() returned %T, want DraftOutput", got)
	}
	if out.RawConfidence != 90 {
		t.Errorf("RawConfidence = %v, want 90", out.RawConfidence)
	}
	if out.Content == "" {
		t.Error("Content is empty")
	}
}

func TestDraftFollowUp_NoContactOrMeeting(t *testing.T) {
	d := NewDefaultDispatcher()
	got, err := d.Invoke(context.Background(), "draft_follow_up", DraftInput{})
	if err != nil {
		t.Fatalf("Invoke() = %v", err)
	}
	out := got.(DraftOutput)
	if out.RawConfidence != 60 {
		t.Errorf("RawConfidence = %v, want 60", out.RawConfidence)
	}
}
