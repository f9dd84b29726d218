package ai

import "testing"

func TestComputeEditDelta_ToneShiftMoreFormal(t *testing.T) {
	original := "hey thanks! just wanted to say hi"
	edited := "Dear team, furthermore, please find the attached report. Sincerely, regarding this matter, kindly review. Therefore accordingly."
	d := ComputeEditDelta(original, edited)
	if d.ToneShift != ToneMoreFormal {
		t.Errorf("ToneShift = %v, want more_formal", d.ToneShift)
	}
}

func TestComputeEditDelta_LengthChange(t *testing.T) {
	original := "short"
	edited := "this is a much much much longer piece of text than before for sure"
	d := ComputeEditDelta(original, edited)
	if d.LengthChange != LengthLonger {
		t.Errorf("LengthChange = %v, want longer", d.LengthChange)
	}
}

func TestComputeEditDelta_AddedCTA(t *testing.T) {
	original := "Here is the summary of our call."
	edited := "Here is the summary of our call. Let me know if you have questions."
	d := ComputeEditDelta(original, edited)
	if !d.AddedCTA {
		t.Error("AddedCTA = false, want true")
	}
	if d.RemovedCTA {
		t.Error("RemovedCTA = true, want false")
	}
}

func TestComputeEditDelta_ChangedSubject(t *testing.T) {
	original := "Subject: Quick check-in\nBody text here."
	edited := "Subject: Following up on pricing\nBody text here."
	d := ComputeEditDelta(original, edited)
	if !d.ChangedSubject {
		t.Error("ChangedSubject = false, want true")
	}
}

func TestComputeEditDelta_AddedBulletPoints(t *testing.T) {
	original := "Plain paragraph with no structure."
	edited := "Summary:\n- point one\n- point two\n- point three"
	d := ComputeEditDelta(original, edited)
	if !d.AddedBulletPoints {
		t.Error("AddedBulletPoints = false, want true")
	}
}

func TestCountSyllables_Floor(t *testing.T) {
	if n := countSyllables("a"); n < 1 {
		t.Errorf("countSyllables(a) = %d, want >=1", n)
	}
}

func TestFleschKincaidProxy_SimplerTextLowerScore(t *testing.T) {
	simple := "I see. I go. We win."
	complex := "Notwithstanding the aforementioned considerations, the organizational restructuring initiative necessitates comprehensive stakeholder deliberation."
	if fleschKincaidProxy(simple) >= fleschKincaidProxy(complex) {
		t.Error("expected simple text to score lower than complex text")
	}
}
