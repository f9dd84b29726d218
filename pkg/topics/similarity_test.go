package topics

import "testing"

func TestSim_Identical(t *testing.T) {
	got := sim("Quarterly budget review", "Quarterly budget review")
	if got < 0.999 {
		t.Errorf("sim(identical) = %v, want ~1.0", got)
	}
}

func TestSim_Disjoint(t *testing.T) {
	got := sim("pricing negotiation", "onboarding schedule")
	if got != 0 {
		t.Errorf("sim(disjoint) = %v, want 0", got)
	}
}

func TestSim_EmptyTokens(t *testing.T) {
	if got := sim("", "something"); got != 0 {
		t.Errorf("sim(empty, x) = %v, want 0", got)
	}
	if got := sim("a an", "in of"); got != 0 {
		t.Errorf("sim of all-short-tokens = %v, want 0", got)
	}
}

func TestSim_PartialOverlap(t *testing.T) {
	got := sim("renewal pricing discussion", "pricing discussion notes")
	if got <= 0 || got >= 1 {
		t.Errorf("sim(partial overlap) = %v, want in (0,1)", got)
	}
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	toks := tokenize("a an at budget review")
	if _, ok := toks["at"]; ok {
		t.Error("tokenize() kept a length-2 token")
	}
	if _, ok := toks["budget"]; !ok {
		t.Error("tokenize() dropped a valid token")
	}
}
