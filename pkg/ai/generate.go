package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/meridiancrm/core/internal/db"
	"github.com/meridiancrm/core/internal/telemetry"
)

// GenerateSuggestionParams carries what a skill invocation (or another
// drafting call upstream of this package) produced for one candidate
// suggestion, before context assembly, confidence routing, and persistence.
type GenerateSuggestionParams struct {
	Scope  Scope
	Action ActionKind

	// Skill names the registered skill (see NewDefaultDispatcher) that
	// drafts the content and raw confidence from the assembled dossier.
	// When empty, RawConfidence/DraftedContent are used as given instead.
	Skill          SkillName
	RawConfidence  float64
	DraftedContent string

	RelatedEntityRefs any

	// Remote, when non-nil, composites the in-scope contact against a
	// remote CRM record before the dossier is scored (spec §9 "composite
	// read-through integrations").
	Remote                                          RemoteContactFetcher
	ContactEmail, ContactFirstName, ContactLastName string

	Now      func() time.Time
	Timezone string
}

// GeneratedSuggestion is the persisted suggestion plus the dossier and
// routing decision that produced it.
type GeneratedSuggestion struct {
	Suggestion db.AISuggestion
	Dossier    Dossier
	Decision   RoutingDecision
}

// GenerateSuggestion is C4's entry point (spec §4.4.1-§4.4.3): assemble the
// context dossier, optionally read-through composite it against a remote
// CRM record, draft the content via a registered skill, route the result
// by confidence, and persist it. An auto_execute decision is dispatched
// immediately via exec; every other decision is persisted for a human to
// act on through the /feedback route.
func GenerateSuggestion(ctx context.Context, q *db.Queries, exec *Executor, dispatcher *Dispatcher, p GenerateSuggestionParams) (GeneratedSuggestion, error) {
	clock := p.Now
	if clock == nil {
		clock = time.Now
	}
	tz := p.Timezone
	if tz == "" {
		tz = "UTC"
	}

	dossier, err := AssembleDossier(ctx, q, p.Scope, clock, tz)
	if err != nil {
		return GeneratedSuggestion{}, fmt.Errorf("assembling dossier: %w", err)
	}

	if p.Remote != nil && dossier.Contact != nil && p.ContactEmail != "" {
		composite, err := FetchContactComposite(ctx, q, p.Remote, p.ContactEmail, p.ContactFirstName, p.ContactLastName)
		if err == nil && composite.Source != SourceLocal {
			merged := composite.Contact
			dossier.Contact = &merged
		}
	}

	rawConfidence := p.RawConfidence
	draftedContent := p.DraftedContent
	if p.Skill != "" {
		if dispatcher == nil {
			return GeneratedSuggestion{}, fmt.Errorf("skill %q requested but no skill dispatcher configured", p.Skill)
		}
		out, err := dispatcher.Invoke(ctx, p.Skill, DraftInput{Dossier: dossier})
		if err != nil {
			return GeneratedSuggestion{}, fmt.Errorf("invoking skill %q: %w", p.Skill, err)
		}
		draft, ok := out.(DraftOutput)
		if !ok {
			return GeneratedSuggestion{}, fmt.Errorf("skill %q returned unexpected output type %T", p.Skill, out)
		}
		draftedContent = draft.Content
		rawConfidence = draft.RawConfidence
	}

	org, err := q.GetOrgAIPreferences(ctx)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return GeneratedSuggestion{}, fmt.Errorf("fetching org ai preferences: %w", err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		org = db.OrgAIPreferences{ApprovalHistoryWeight: 0.2, LowContextPenalty: 0.3, AutoApproveThreshold: 85}
	}

	var approvalRate float64
	alwaysHITL := append([]string{}, org.AlwaysHITLActions...)
	var neverAutoSend bool
	autoApproveThreshold := float64(org.AutoApproveThreshold)

	if dossier.UserPreferences != nil {
		up := dossier.UserPreferences
		if up.TotalSuggestions > 0 {
			approvalRate = float64(up.Approvals) / float64(up.TotalSuggestions)
		}
		alwaysHITL = append(alwaysHITL, up.AlwaysHITLActions...)
		neverAutoSend = up.NeverAutoSend
		if up.AutoApproveThreshold > 0 {
			autoApproveThreshold = float64(up.AutoApproveThreshold)
		}
	}

	hitlSet := make(map[ActionKind]bool, len(alwaysHITL))
	for _, a := range alwaysHITL {
		hitlSet[ActionKind(a)] = true
	}

	decision := RouteSuggestion(p.Action, ConfidenceInputs{
		RawConfidence:         rawConfidence,
		ContextQuality:        dossier.ContextQuality,
		ApprovalRate:          approvalRate,
		ApprovalHistoryWeight: org.ApprovalHistoryWeight,
		LowContextPenalty:     org.LowContextPenalty,
		AutoApproveThreshold:  autoApproveThreshold,
		AlwaysHITLActions:     hitlSet,
		NeverAutoSend:         neverAutoSend,
	})

	var refsJSON []byte
	if p.RelatedEntityRefs != nil {
		refsJSON, err = json.Marshal(p.RelatedEntityRefs)
		if err != nil {
			return GeneratedSuggestion{}, fmt.Errorf("marshaling related entity refs: %w", err)
		}
	}

	suggestion, err := q.CreateSuggestion(ctx, db.AISuggestion{
		ActionKind:        string(p.Action),
		Confidence:        rawConfidence,
		ContextQuality:    dossier.ContextQuality,
		DraftedContent:    draftedContent,
		RoutingDecision:   string(decision),
		RelatedEntityRefs: refsJSON,
	})
	if err != nil {
		return GeneratedSuggestion{}, fmt.Errorf("persisting suggestion: %w", err)
	}

	telemetry.RoutingDecisionTotal.WithLabelValues(string(p.Action), string(decision)).Inc()

	result := GeneratedSuggestion{Suggestion: suggestion, Dossier: dossier, Decision: decision}

	if decision == RouteAutoExecute && exec != nil {
		if err := exec.Execute(ctx, suggestion); err != nil {
			return result, fmt.Errorf("auto-executing suggestion: %w", err)
		}
	}
	return result, nil
}
