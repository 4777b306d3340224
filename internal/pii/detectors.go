// Package pii provides heuristic detectors for personally identifiable
// information in free-form text. Detection is regex-based: no statistical
// model, no recall/precision guarantee. Detectors never error; they only
// decline to match.
package pii

import (
	"regexp"
	"strings"
)

// Category identifies the kind of PII a detector matches.
type Category string

const (
	CategoryEmail Category = "email"
	CategoryPhone Category = "phone"
	CategoryName  Category = "name"
)

// TokenPrefix returns the reserved token prefix for the category.
// Prefixes are uppercase followed by an underscore so substituted tokens
// cannot satisfy the phone detector's digit-run predicate nor the name
// detector's capital-then-lowercase word shape (see Detectors ordering).
func (c Category) TokenPrefix() string {
	switch c {
	case CategoryEmail:
		return "EMAIL_"
	case CategoryPhone:
		return "PHONE_"
	case CategoryName:
		return "NAME_"
	}
	return ""
}

// Match is a candidate PII occurrence.
type Match struct {
	// Raw is the exact surface form found in the text.
	Raw string
	// Key is the normalized form used for deduplication and token derivation.
	Key string
}

// Detector scans text and emits candidate occurrences of one PII category.
type Detector interface {
	Category() Category
	// Detect returns one Match per raw occurrence, in text order.
	// Occurrences that fail the detector's acceptance rule are omitted.
	Detect(text string) []Match
	// Pattern returns the compiled surface pattern, used by the tokenizer
	// to replace matched spans in place.
	Pattern() *regexp.Regexp
	// Accept reports whether a surface match is a true candidate.
	// The tokenizer consults this during replacement so rejected spans
	// (e.g. digit runs outside the phone length bounds) stay verbatim.
	Accept(raw string) bool
}

var (
	emailPattern = regexp.MustCompile(`(?i)\b[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}\b`)
	phonePattern = regexp.MustCompile(`\b(?:\+?\d[\d\s\-().]{5,}\d)\b`)
	// 2-3 consecutive capitalized words; accented Latin letters including
	// Ñ/ñ are first-class so Spanish names match as one span.
	namePattern = regexp.MustCompile(`\b[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+(?:\s+[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+){1,2}\b`)

	nonDigits = regexp.MustCompile(`\D`)
)

// Detectors returns the detector chain in its fixed execution order:
// email, then phone, then name. Each stage scans the previous stage's
// output, and the token shape guarantees later stages never re-match
// text an earlier stage emitted.
func Detectors() []Detector {
	return []Detector{
		emailDetector{},
		phoneDetector{},
		nameDetector{},
	}
}

type emailDetector struct{}

func (emailDetector) Category() Category { return CategoryEmail }
func (emailDetector) Pattern() *regexp.Regexp { return emailPattern }
func (emailDetector) Accept(string) bool { return true }

func (d emailDetector) Detect(text string) []Match {
	var matches []Match
	for _, raw := range emailPattern.FindAllString(text, -1) {
		matches = append(matches, Match{Raw: raw, Key: strings.ToLower(raw)})
	}
	return matches
}

type phoneDetector struct{}

func (phoneDetector) Category() Category { return CategoryPhone }
func (phoneDetector) Pattern() *regexp.Regexp { return phonePattern }

// Accept requires 7-15 digits once separators are stripped. Shorter or
// longer runs are left untouched in the text.
func (phoneDetector) Accept(raw string) bool {
	n := len(nonDigits.ReplaceAllString(raw, ""))
	return n >= 7 && n <= 15
}

func (d phoneDetector) Detect(text string) []Match {
	var matches []Match
	for _, raw := range phonePattern.FindAllString(text, -1) {
		if !d.Accept(raw) {
			continue
		}
		matches = append(matches, Match{Raw: raw, Key: nonDigits.ReplaceAllString(raw, "")})
	}
	return matches
}

type nameDetector struct{}

func (nameDetector) Category() Category { return CategoryName }
func (nameDetector) Pattern() *regexp.Regexp { return namePattern }
func (nameDetector) Accept(string) bool { return true }

// Detect keys names by their exact matched text, case preserved. Two
// spellings differing only in case yield distinct keys; known heuristic
// limitation, kept as-is.
func (d nameDetector) Detect(text string) []Match {
	var matches []Match
	for _, raw := range namePattern.FindAllString(text, -1) {
		matches = append(matches, Match{Raw: raw, Key: raw})
	}
	return matches
}
