package ai

import (
	"regexp"
	"strings"
)

// ToneShift is the closed set of tone-shift classifications (spec §4.4.3).
type ToneShift string

const (
	ToneMoreFormal ToneShift = "more_formal"
	ToneMoreCasual ToneShift = "more_casual"
	ToneSame       ToneShift = "same"
)

// LengthChange is the closed set of length-change classifications.
type LengthChange string

const (
	LengthShorter LengthChange = "shorter"
	LengthLonger  LengthChange = "longer"
	LengthSame    LengthChange = "same"
)

var formalMarkers = []string{
	"furthermore", "therefore", "regarding", "pursuant", "accordingly",
	"sincerely", "dear", "kindly", "please find", "i would like to",
}

var casualMarkers = []string{
	"hey", "hi there", "thanks!", "just wanted", "no worries", "btw",
	"awesome", "cool", "yeah", "gonna",
}

var ctaPhrases = []string{
	"let me know", "schedule", "next step", "book a time", "reply to this",
	"set up a call", "happy to chat",
}

var personalizationPhrases = []string{
	"congrats on", "i saw that", "noticed you", "hope you", "following up on our",
}

var subjectLineRE = regexp.MustCompile(`(?im)^(Subject:|RE:|Re:)\s*(.*)$`)
var bulletLineRE = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)

func countOccurrences(text string, lexicon []string) int {
	lower := strings.ToLower(text)
	n := 0
	for _, phrase := range lexicon {
		n += strings.Count(lower, phrase)
	}
	return n
}

func hasAny(text string, lexicon []string) bool {
	return countOccurrences(text, lexicon) > 0
}

// EditDelta is the structured diff computed between a suggestion's original
// and edited content (spec §4.4.3), persisted on every "edited" feedback.
type EditDelta struct {
	ToneShift              ToneShift    `json:"tone_shift"`
	LengthChange           LengthChange `json:"length_change"`
	LengthDeltaPercent     int          `json:"length_delta_percent"`
	AddedCTA               bool         `json:"added_cta"`
	RemovedCTA             bool         `json:"removed_cta"`
	ChangedSubject         bool         `json:"changed_subject"`
	AddedPersonalization   bool         `json:"added_personalization"`
	RemovedPersonalization bool         `json:"removed_personalization"`
	AddedBulletPoints      bool         `json:"added_bullet_points"`
	SimplifiedLanguage     bool         `json:"simplified_language"`
}

// ComputeEditDelta derives the Edit Delta between an original and an edited
// draft (spec §4.4.3).
func ComputeEditDelta(original, edited string) EditDelta {
	var d EditDelta

	originalNet := countOccurrences(original, formalMarkers) - countOccurrences(original, casualMarkers)
	editedNet := countOccurrences(edited, formalMarkers) - countOccurrences(edited, casualMarkers)
	switch {
	case editedNet > originalNet+1:
		d.ToneShift = ToneMoreFormal
	case editedNet < originalNet-1:
		d.ToneShift = ToneMoreCasual
	default:
		d.ToneShift = ToneSame
	}

	if len(original) > 0 {
		delta := float64(len(edited)-len(original)) / float64(len(original))
		d.LengthDeltaPercent = roundPercent(delta * 100)
		switch {
		case delta < -0.1:
			d.LengthChange = LengthShorter
		case delta > 0.1:
			d.LengthChange = LengthLonger
		default:
			d.LengthChange = LengthSame
		}
	} else {
		d.LengthChange = LengthSame
	}

	originalCTA := hasAny(original, ctaPhrases)
	editedCTA := hasAny(edited, ctaPhrases)
	d.AddedCTA = !originalCTA && editedCTA
	d.RemovedCTA = originalCTA && !editedCTA

	d.ChangedSubject = subjectChanged(original, edited)

	originalPersonal := hasAny(original, personalizationPhrases)
	editedPersonal := hasAny(edited, personalizationPhrases)
	d.AddedPersonalization = !originalPersonal && editedPersonal
	d.RemovedPersonalization = originalPersonal && !editedPersonal

	d.AddedBulletPoints = len(bulletLineRE.FindAllString(edited, -1)) > len(bulletLineRE.FindAllString(original, -1))

	d.SimplifiedLanguage = fleschKincaidProxy(edited) < 0.9*fleschKincaidProxy(original)

	return d
}

func roundPercent(v float64) int {
	if v >= 0 {
		return int(v + 0.5)
	}
	return -int(-v + 0.5)
}

func subjectChanged(original, edited string) bool {
	origMatch := subjectLineRE.FindStringSubmatch(original)
	editMatch := subjectLineRE.FindStringSubmatch(edited)
	origSubject := ""
	if origMatch != nil {
		origSubject = strings.TrimSpace(origMatch[2])
	}
	editSubject := ""
	if editMatch != nil {
		editSubject = strings.TrimSpace(editMatch[2])
	}
	return origSubject != editSubject
}

var wordRE = regexp.MustCompile(`[A-Za-z']+`)
var sentenceRE = regexp.MustCompile(`[.!?]+`)
var vowelGroupRE = regexp.MustCompile(`(?i)[aeiouy]+`)

// fleschKincaidProxy approximates reading complexity via a vowel-group
// syllable heuristic (spec §4.4.3): 0.39·(words/sentences) +
// 11.8·(syllables/words) − 15.59.
func fleschKincaidProxy(text string) float64 {
	words := wordRE.FindAllString(text, -1)
	if len(words) == 0 {
		return 0
	}
	sentences := len(sentenceRE.FindAllString(text, -1))
	if sentences == 0 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	return 0.39*(float64(len(words))/float64(sentences)) +
		11.8*(float64(syllables)/float64(len(words))) - 15.59
}

// countSyllables uses a vowel-group heuristic with a silent-e adjustment
// and a floor of 1 (spec §4.4.3).
func countSyllables(word string) int {
	lower := strings.ToLower(word)
	groups := vowelGroupRE.FindAllString(lower, -1)
	n := len(groups)
	if strings.HasSuffix(lower, "e") && n > 1 {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}
