// Package classifier implements ragvault's rule-based query classifier:
// a pure function from a raw query (plus a couple of caller-supplied
// signals) to a QueryClass, the input the retrieval engine uses to size
// and shape its search. Pre-compiled pattern tables, no external state.
package classifier

import (
	"regexp"
	"strings"
	"unicode"
)

// QueryClass is the classifier's output, consumed by the retrieval
// engine's smart-k table.
type QueryClass string

const (
	ClassCompare        QueryClass = "COMPARE"
	ClassSectionSummary QueryClass = "SECTION_SUMMARY"
	ClassBroadSummary   QueryClass = "BROAD_SUMMARY"
	ClassFiltering      QueryClass = "FILTERING"
	ClassMultiDoc       QueryClass = "MULTI_DOC"
	ClassFactoid        QueryClass = "FACTOID"
	ClassDefault        QueryClass = "DEFAULT"
)

// sectionTerms is the section-heading vocabulary behind the
// has_section_terms signal.
var sectionTerms = []string{
	"timeline", "schedule", "goal", "goals", "requirements", "deliverables",
	"resources", "evaluation", "conclusion", "benefits", "overview",
	"introduction", "summary", "methodology", "approach", "implementation",
	"results",
}

var compareTerms = []string{"compare", " vs ", "versus", "pros and cons", "difference"}

var operatorDigit = regexp.MustCompile(`\d`)

// Input bundles the signals the classifier needs beyond the raw query
// text.
type Input struct {
	Query string

	// HasHistory reports whether prior conversation history exists.
	// The decision table itself doesn't branch on it, but it's threaded
	// through for callers that want to record it alongside the
	// classification.
	HasHistory bool

	// TargetedDocs is the count of documents the caller explicitly
	// targeted, or nil if unknown ("is_multi_doc <- targeted_docs is
	// unknown or > 1").
	TargetedDocs *int
}

// Result is the classifier's output: the class plus the signals that
// produced it, useful for logging and for the retrieval engine's
// section biasing.
type Result struct {
	Class           QueryClass
	Tokens          int
	IsLong          bool
	HasSectionTerms bool
	HasCompare      bool
	HasOperators    bool
	IsMultiDoc      bool
	MultiEntity     bool
	MatchedSections []string
}

// Classify applies the decision table, first match wins.
func Classify(in Input) Result {
	tokens := strings.Fields(in.Query)
	lower := strings.ToLower(in.Query)

	matchedSections := matchSectionTerms(lower)

	r := Result{
		Tokens:          len(tokens),
		IsLong:          len(tokens) > 12,
		HasSectionTerms: len(matchedSections) > 0,
		HasCompare:      hasCompare(lower),
		HasOperators:    hasOperators(lower),
		IsMultiDoc:      in.TargetedDocs == nil || *in.TargetedDocs > 1,
		MultiEntity:     countCapitalizedTokens(in.Query) >= 2,
		MatchedSections: matchedSections,
	}

	switch {
	case r.HasCompare || r.MultiEntity:
		r.Class = ClassCompare
	case r.HasSectionTerms && r.IsLong:
		r.Class = ClassSectionSummary
	case r.IsLong && !r.HasOperators && (r.HasSectionTerms || r.MultiEntity):
		r.Class = ClassBroadSummary
	case r.HasOperators:
		r.Class = ClassFiltering
	case r.IsMultiDoc:
		r.Class = ClassMultiDoc
	case r.Tokens <= 8 && !r.HasSectionTerms && !r.HasCompare && !r.MultiEntity:
		r.Class = ClassFactoid
	default:
		r.Class = ClassDefault
	}

	return r
}

func matchSectionTerms(lowerQuery string) []string {
	var matched []string
	for _, term := range sectionTerms {
		if strings.Contains(lowerQuery, term) {
			matched = append(matched, term)
		}
	}
	return matched
}

func hasCompare(lowerQuery string) bool {
	for _, term := range compareTerms {
		if strings.Contains(lowerQuery, term) {
			return true
		}
	}
	return false
}

func hasOperators(lowerQuery string) bool {
	operatorSubstrings := []string{">", "<", " between ", "%", " since ", " before ", " after "}
	for _, op := range operatorSubstrings {
		if strings.Contains(lowerQuery, op) {
			return true
		}
	}
	return operatorDigit.MatchString(lowerQuery)
}

// countCapitalizedTokens counts mid-query capitalized tokens, a crude
// proper-noun detector. The sentence-initial token is skipped: it is
// capitalized purely by convention, not because it names an entity;
// counting it would push every "Where was Alice born?" style question
// into the multi-entity bucket.
func countCapitalizedTokens(query string) int {
	tokens := strings.Fields(query)
	count := 0
	for i, tok := range tokens {
		if i == 0 {
			continue
		}
		tok = strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) })
		if tok == "" {
			continue
		}
		if r := []rune(tok)[0]; unicode.IsUpper(r) {
			count++
		}
	}
	return count
}
