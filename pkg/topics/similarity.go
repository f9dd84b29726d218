// Package topics implements the Topic Aggregation Engine (C5): clustering
// raw per-meeting topics into a tenant's canonical Global Topics.
package topics

import (
	"regexp"
	"strings"
)

var nonWord = regexp.MustCompile(`[^\w]+`)

// tokenize lowercases text, replaces non-word runs with spaces, splits on
// whitespace, and drops tokens of length ≤2.
func tokenize(text string) map[string]struct{} {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(text), " ")
	tokens := map[string]struct{}{}
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) > 2 {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

func intersectionSize(a, b map[string]struct{}) int {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	n := 0
	for tok := range small {
		if _, ok := big[tok]; ok {
			n++
		}
	}
	return n
}

// sim blends Jaccard and Overlap similarity over the token sets of a and b,
// per spec §4.5: sim = 0.4·J + 0.6·O. Returns 0 when either text tokenizes
// to the empty set.
func sim(a, b string) float64 {
	tokA := tokenize(a)
	tokB := tokenize(b)
	if len(tokA) == 0 || len(tokB) == 0 {
		return 0
	}

	inter := intersectionSize(tokA, tokB)
	union := len(tokA) + len(tokB) - inter
	minLen := len(tokA)
	if len(tokB) < minLen {
		minLen = len(tokB)
	}

	jaccard := float64(inter) / float64(union)
	overlap := float64(inter) / float64(minLen)
	return 0.4*jaccard + 0.6*overlap
}
