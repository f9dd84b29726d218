package ai

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/meridiancrm/core/internal/db"
)

type fakeSlackSender struct {
	channel string
	text    string
	called  bool
	err     error
}

func (f *fakeSlackSender) SendMessage(ctx context.Context, channelOrUserID, text string) (string, error) {
	f.called = true
	f.channel = channelOrUserID
	f.text = text
	return "1234.5678", f.err
}

func suggestionWithChannel(t *testing.T, kind ActionKind, channel string) db.AISuggestion {
	t.Helper()
	refs, err := json.Marshal(map[string]string{"channel": channel})
	if err != nil {
		t.Fatal(err)
	}
	return db.AISuggestion{
		ID:                uuid.New(),
		ActionKind:        string(kind),
		DraftedContent:    "heads up, deal moved to negotiation",
		RelatedEntityRefs: refs,
	}
}

func TestExecutor_Execute_SendsSlackMessage(t *testing.T) {
	sender := &fakeSlackSender{}
	exec := NewExecutor(sender)
	s := suggestionWithChannel(t, ActionSendSlackMessage, "C0123456")

	if err := exec.Execute(context.Background(), s); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !sender.called {
		t.Fatal("expected SendMessage to be called")
	}
	if sender.channel != "C0123456" {
		t.Errorf("channel = %q, want C0123456", sender.channel)
	}
	if sender.text != s.DraftedContent {
		t.Errorf("text = %q, want %q", sender.text, s.DraftedContent)
	}
}

func TestExecutor_Execute_OtherActionKindsAreNoOp(t *testing.T) {
	sender := &fakeSlackSender{}
	exec := NewExecutor(sender)
	s := suggestionWithChannel(t, ActionSendEmail, "C0123456")

	if err := exec.Execute(context.Background(), s); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if sender.called {
		t.Error("expected SendMessage not to be called for a non-slack action kind")
	}
}

func TestExecutor_Execute_NilSenderIsNoOp(t *testing.T) {
	exec := NewExecutor(nil)
	s := suggestionWithChannel(t, ActionSendSlackMessage, "C0123456")

	if err := exec.Execute(context.Background(), s); err != nil {
		t.Fatalf("Execute() error = %v, want nil for a nil sender", err)
	}
}

func TestExecutor_Execute_MissingChannelErrors(t *testing.T) {
	sender := &fakeSlackSender{}
	exec := NewExecutor(sender)
	s := db.AISuggestion{
		ID:             uuid.New(),
		ActionKind:     string(ActionSendSlackMessage),
		DraftedContent: "no channel recorded",
	}

	if err := exec.Execute(context.Background(), s); err == nil {
		t.Fatal("expected an error when no channel is recorded")
	}
	if sender.called {
		t.Error("expected SendMessage not to be called when channel resolution fails")
	}
}
