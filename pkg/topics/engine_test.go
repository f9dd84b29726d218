package topics

import "testing"

func TestParseMeetingSubjectRef(t *testing.T) {
	id, err := parseMeetingSubjectRef("meeting:123e4567-e89b-12d3-a456-426614174000")
	if err != nil {
		t.Fatalf("parseMeetingSubjectRef() = %v", err)
	}
	if id.String() != "123e4567-e89b-12d3-a456-426614174000" {
		t.Errorf("got %s", id)
	}
}

func TestParseMeetingSubjectRef_BadPrefix(t *testing.T) {
	if _, err := parseMeetingSubjectRef("sync:abc"); err == nil {
		t.Fatal("parseMeetingSubjectRef() = nil error, want error for wrong prefix")
	}
}
