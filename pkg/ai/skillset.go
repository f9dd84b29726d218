package ai

import (
	"context"
	"fmt"
)

// DraftInput is what DraftFollowUp and SummarizeMeeting take as input: the
// dossier GenerateSuggestion already assembled, so a skill never re-queries
// the store itself.
type DraftInput struct {
	Dossier Dossier
}

// DraftOutput is what a drafting skill returns: the composed message body
// plus the raw confidence GenerateSuggestion routes on.
type DraftOutput struct {
	Content       string
	RawConfidence float64
}

// NewDefaultDispatcher registers the two stock skills used by the
// suggestion-generation path: draft_follow_up composes the outbound
// message, invoking summarize_meeting through d for the meeting recap line
// when a meeting is in scope (spec §9 "skill invocation recursion").
func NewDefaultDispatcher() *Dispatcher {
	d := NewDispatcher()
	d.Register("summarize_meeting", summarizeMeeting)
	d.Register("draft_follow_up", draftFollowUp)
	return d
}

func summarizeMeeting(_ context.Context, _ *Dispatcher, input any) (any, error) {
	in, ok := input.(DraftInput)
	if !ok {
		return nil, fmt.Errorf("summarize_meeting: unexpected input type %T", input)
	}
	if in.Dossier.Meeting == nil {
		return "", nil
	}
	return fmt.Sprintf("Per our meeting on %s: %s", in.Dossier.Meeting.OccurredAt.Format("Jan 2"), in.Dossier.Meeting.Title), nil
}

// draftFollowUp composes a follow-up message from the dossier's contact and
// meeting fields, recursing into summarize_meeting for the recap line — the
// one production call site exercising the skill dispatcher's chain-depth
// and self-recursion rules.
func draftFollowUp(ctx context.Context, d *Dispatcher, input any) (any, error) {
	in, ok := input.(DraftInput)
	if !ok {
		return nil, fmt.Errorf("draft_follow_up: unexpected input type %T", input)
	}

	greeting := "Hi there,"
	if in.Dossier.Contact != nil && in.Dossier.Contact.FirstName != "" {
		greeting = fmt.Sprintf("Hi %s,", in.Dossier.Contact.FirstName)
	}

	body := greeting
	if in.Dossier.Meeting != nil {
		recap, err := d.Invoke(ctx, "summarize_meeting", input)
		if err != nil {
			return nil, fmt.Errorf("summarizing meeting: %w", err)
		}
		if line, _ := recap.(string); line != "" {
			body = fmt.Sprintf("%s\n\n%s", body, line)
		}
	}
	body = fmt.Sprintf("%s\n\nWanted to follow up and see if you had any questions.", body)

	confidence := 60.0
	if in.Dossier.Contact != nil {
		confidence += 15
	}
	if in.Dossier.Meeting != nil {
		confidence += 15
	}

	return DraftOutput{Content: body, RawConfidence: confidence}, nil
}
