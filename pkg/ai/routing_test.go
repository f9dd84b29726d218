package ai

import (
	"math"
	"testing"
)

func baseInputs() ConfidenceInputs {
	return ConfidenceInputs{
		RawConfidence:         90,
		ContextQuality:        80,
		ApprovalRate:          0.5,
		ApprovalHistoryWeight: 0.2,
		LowContextPenalty:     0.3,
		AutoApproveThreshold:  85,
		AlwaysHITLActions:     map[ActionKind]bool{},
	}
}

func TestEffectiveConfidence_NoContextPenaltyAboveHalf(t *testing.T) {
	in := baseInputs()
	got := EffectiveConfidence(in)
	want := 90 + 0.2*0.5
	if got != want {
		t.Errorf("EffectiveConfidence() = %v, want %v", got, want)
	}
}

func TestEffectiveConfidence_LowContextPenaltyApplies(t *testing.T) {
	in := baseInputs()
	in.ContextQuality = 20 // penalty term = 0.3*(0.5-0.2) = 0.09
	got := EffectiveConfidence(in)
	want := 90 + 0.2*0.5 - 0.3*(0.5-0.20)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("EffectiveConfidence() = %v, want %v", got, want)
	}
}

func TestLevel_Thresholds(t *testing.T) {
	cases := map[float64]ConfidenceLevel{
		80:   ConfidenceHigh,
		79.9: ConfidenceMedium,
		50:   ConfidenceMedium,
		49.9: ConfidenceLow,
	}
	for in, want := range cases {
		if got := Level(in); got != want {
			t.Errorf("Level(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestRouteSuggestion_AlwaysHITL(t *testing.T) {
	in := baseInputs()
	in.AlwaysHITLActions = map[ActionKind]bool{ActionSendEmail: true}
	if got := RouteSuggestion(ActionSendEmail, in); got != RouteHITLApprove {
		t.Errorf("RouteSuggestion() = %v, want hitl_approve", got)
	}
}

func TestRouteSuggestion_NeverAutoSendBlocksSideEffect(t *testing.T) {
	in := baseInputs()
	in.NeverAutoSend = true
	if got := RouteSuggestion(ActionSendSlackMessage, in); got != RouteHITLApprove {
		t.Errorf("RouteSuggestion() = %v, want hitl_approve", got)
	}
}

func TestRouteSuggestion_LowContextClarifies(t *testing.T) {
	in := baseInputs()
	in.ContextQuality = 10
	if got := RouteSuggestion(ActionLogActivity, in); got != RouteClarify {
		t.Errorf("RouteSuggestion() = %v, want clarify", got)
	}
}

func TestRouteSuggestion_AutoExecute(t *testing.T) {
	in := baseInputs()
	if got := RouteSuggestion(ActionLogActivity, in); got != RouteAutoExecute {
		t.Errorf("RouteSuggestion() = %v, want auto_execute", got)
	}
}

func TestRouteSuggestion_HighConfidenceExternalEffectNeedsApproval(t *testing.T) {
	in := baseInputs()
	if got := RouteSuggestion(ActionSendEmail, in); got != RouteHITLApprove {
		t.Errorf("RouteSuggestion() = %v, want hitl_approve", got)
	}
}

func TestRouteSuggestion_MediumConfidenceEdits(t *testing.T) {
	in := baseInputs()
	in.RawConfidence = 60
	in.ApprovalRate = 0
	if got := RouteSuggestion(ActionLogActivity, in); got != RouteHITLEdit {
		t.Errorf("RouteSuggestion() = %v, want hitl_edit", got)
	}
}
