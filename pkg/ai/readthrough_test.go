package ai

import (
	"testing"

	"github.com/meridiancrm/core/internal/db"
)

func TestSameContact_MatchesByEmailCaseInsensitive(t *testing.T) {
	a := db.Contact{Email: "Jane@Example.com", FirstName: "Jane", LastName: "Doe"}
	b := db.Contact{Email: "jane@example.com", FirstName: "Someone", LastName: "Else"}
	if !sameContact(a, b) {
		t.Error("expected contacts with matching email (any case) to be the same contact")
	}
}

func TestSameContact_MatchesByNameWhenEmailDiffers(t *testing.T) {
	a := db.Contact{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}
	b := db.Contact{Email: "jane.doe@othercorp.com", FirstName: "jane", LastName: "DOE"}
	if !sameContact(a, b) {
		t.Error("expected contacts with matching name (any case) to be the same contact")
	}
}

func TestSameContact_NoMatch(t *testing.T) {
	a := db.Contact{Email: "jane@example.com", FirstName: "Jane", LastName: "Doe"}
	b := db.Contact{Email: "john@example.com", FirstName: "John", LastName: "Smith"}
	if sameContact(a, b) {
		t.Error("expected unrelated contacts not to match")
	}
}
