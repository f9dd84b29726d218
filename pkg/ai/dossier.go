package ai

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/meridiancrm/core/internal/db"
)

// UrgencyLevel is the temporal-context field of a Context Dossier.
type UrgencyLevel string

const (
	UrgencyImmediate UrgencyLevel = "immediate"
	UrgencyToday     UrgencyLevel = "today"
	UrgencyThisWeek  UrgencyLevel = "this_week"
	UrgencyFlexible  UrgencyLevel = "flexible"
)

// TemporalContext is the "current time, timezone, business-hours flag,
// urgency_level" field of a Context Dossier (spec §4.4.1).
type TemporalContext struct {
	Now           time.Time
	Timezone      string
	BusinessHours bool
	Urgency       UrgencyLevel
}

// Dossier is the structured record assembled for one target subject before
// a suggestion is generated. Retrieval-only: every field comes from the
// internal store. ContextQuality is the fraction of requested, weighted
// fields that resolved (spec §4.4.1).
type Dossier struct {
	Contact         *db.Contact
	Deal            *db.Deal
	Meeting         *db.Meeting
	EmailHistory    []string // always empty: no email transport integration in scope
	UserPreferences *db.UserAIPreferences
	OrgPreferences  *db.OrgAIPreferences
	Temporal        TemporalContext
	ContextQuality  int
}

// fieldWeight names the importance weight of each dossier field in the
// context_quality completeness score. Weights need not sum to 1; they are
// normalized against the weights of fields actually requested.
var fieldWeight = map[string]float64{
	"contact":          0.25,
	"deal":             0.15,
	"meeting":          0.15,
	"email_history":    0.10,
	"user_preferences": 0.20,
	"org_preferences":  0.10,
	"temporal":         0.05,
}

// Scope lists which dossier fields the caller is asking for; AssembleDossier
// only resolves (and scores) what is in scope.
type Scope struct {
	ContactID *uuid.UUID
	DealID    *uuid.UUID
	MeetingID *uuid.UUID
	UserID    *uuid.UUID
}

// AssembleDossier builds a Dossier for the given scope, resolving every
// in-scope field from the internal store and computing context_quality as
// the importance-weighted fraction of fields that resolved.
func AssembleDossier(ctx context.Context, q *db.Queries, scope Scope, clock func() time.Time, tz string) (Dossier, error) {
	var d Dossier
	var totalWeight, resolvedWeight float64

	if scope.ContactID != nil {
		totalWeight += fieldWeight["contact"]
		c, err := q.GetContactByID(ctx, *scope.ContactID)
		if err == nil {
			d.Contact = &c
			resolvedWeight += fieldWeight["contact"]
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return d, err
		}
	}

	if scope.DealID != nil {
		totalWeight += fieldWeight["deal"]
		deal, err := q.GetDeal(ctx, *scope.DealID)
		if err == nil {
			d.Deal = &deal
			resolvedWeight += fieldWeight["deal"]
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return d, err
		}
	}

	if scope.MeetingID != nil {
		totalWeight += fieldWeight["meeting"]
		m, err := q.GetMeeting(ctx, *scope.MeetingID)
		if err == nil {
			d.Meeting = &m
			resolvedWeight += fieldWeight["meeting"]
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return d, err
		}
	}

	// Email history is always requested when a contact is in scope, and
	// always unresolved: there is no email transport integration to source
	// it from, so it counts against completeness honestly rather than
	// being silently dropped from the denominator.
	if scope.ContactID != nil {
		totalWeight += fieldWeight["email_history"]
	}

	if scope.UserID != nil {
		totalWeight += fieldWeight["user_preferences"]
		p, err := q.GetUserAIPreferences(ctx, *scope.UserID)
		if err == nil {
			d.UserPreferences = &p
			resolvedWeight += fieldWeight["user_preferences"]
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return d, err
		}
	}

	totalWeight += fieldWeight["org_preferences"]
	org, err := q.GetOrgAIPreferences(ctx)
	if err == nil {
		d.OrgPreferences = &org
		resolvedWeight += fieldWeight["org_preferences"]
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return d, err
	}

	totalWeight += fieldWeight["temporal"]
	now := clock()
	d.Temporal = TemporalContext{
		Now:           now,
		Timezone:      tz,
		BusinessHours: isBusinessHours(now),
		Urgency:       UrgencyFlexible,
	}
	resolvedWeight += fieldWeight["temporal"]

	if totalWeight > 0 {
		d.ContextQuality = int(resolvedWeight / totalWeight * 100)
	}
	return d, nil
}

func isBusinessHours(t time.Time) bool {
	hour := t.Hour()
	weekday := t.Weekday()
	return weekday >= time.Monday && weekday <= time.Friday && hour >= 9 && hour < 17
}
