// Package ai implements the AI Recommendation Pipeline (C4): assembling
// context for a suggestion, routing it by confidence, and learning from
// feedback.
package ai

import "math"

// ActionKind is the closed set of suggestion action kinds (spec §4.4.2),
// replacing the string-switch routing the teacher used for alert severity.
type ActionKind string

const (
	ActionSendEmail        ActionKind = "send_email"
	ActionDraftFollowUp    ActionKind = "draft_follow_up"
	ActionCreateTask       ActionKind = "create_task"
	ActionLogActivity      ActionKind = "log_activity"
	ActionUpdateDeal       ActionKind = "update_deal"
	ActionScheduleMeeting  ActionKind = "schedule_meeting"
	ActionSendSlackMessage ActionKind = "send_slack_message"
)

// autoExecutable is the set of action kinds with no externally-visible side
// effect, eligible for auto_execute when confidence clears the bar.
var autoExecutable = map[ActionKind]bool{
	ActionLogActivity: true,
	ActionCreateTask:  true,
	ActionUpdateDeal:  true,
}

// hasExternalSideEffect is the set of action kinds that reach outside the
// system (an email sent, a Slack message posted) — never_auto_send gates
// these regardless of confidence.
var hasExternalSideEffect = map[ActionKind]bool{
	ActionSendEmail:        true,
	ActionSendSlackMessage: true,
	ActionScheduleMeeting:  true,
}

// ConfidenceLevel is the closed bucket effective_confidence falls into.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// RoutingDecision is the closed set of dispositions a suggestion may reach.
type RoutingDecision string

const (
	RouteAutoExecute RoutingDecision = "auto_execute"
	RouteHITLApprove RoutingDecision = "hitl_approve"
	RouteHITLEdit    RoutingDecision = "hitl_edit"
	RouteClarify     RoutingDecision = "clarify"
)

// ConfidenceInputs is the capability bundle RouteSuggestion needs — no
// package-level mutable state, every input explicit (spec §9 "ambient
// global state" redesign flag).
type ConfidenceInputs struct {
	RawConfidence         float64 // 0-100
	ContextQuality        int     // 0-100
	ApprovalRate          float64 // 0-1, from UserAIPreferences
	ApprovalHistoryWeight float64
	LowContextPenalty     float64
	AutoApproveThreshold  float64
	AlwaysHITLActions     map[ActionKind]bool
	NeverAutoSend         bool
}

// EffectiveConfidence applies the spec §4.4.2 formula.
func EffectiveConfidence(in ConfidenceInputs) float64 {
	penalty := math.Max(0, 0.5-float64(in.ContextQuality)/100)
	return in.RawConfidence +
		in.ApprovalHistoryWeight*in.ApprovalRate -
		in.LowContextPenalty*penalty
}

// Level buckets an effective_confidence value.
func Level(effectiveConfidence float64) ConfidenceLevel {
	switch {
	case effectiveConfidence >= 80:
		return ConfidenceHigh
	case effectiveConfidence >= 50:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// RouteSuggestion is the single source of truth for the spec §4.4.2 routing
// table: one function, evaluated top-to-bottom, first matching row wins.
func RouteSuggestion(kind ActionKind, in ConfidenceInputs) RoutingDecision {
	effectiveConfidence := EffectiveConfidence(in)
	level := Level(effectiveConfidence)

	switch {
	case in.AlwaysHITLActions[kind]:
		return RouteHITLApprove
	case in.NeverAutoSend && hasExternalSideEffect[kind]:
		return RouteHITLApprove
	case in.ContextQuality < 40:
		return RouteClarify
	case level == ConfidenceHigh && autoExecutable[kind] && in.RawConfidence >= in.AutoApproveThreshold:
		return RouteAutoExecute
	case level == ConfidenceHigh:
		return RouteHITLApprove
	case level == ConfidenceMedium:
		return RouteHITLEdit
	default:
		return RouteClarify
	}
}
