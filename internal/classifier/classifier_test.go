package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func one(n int) *int { return &n }

func TestClassifyFactoid(t *testing.T) {
	r := Classify(Input{Query: "Where was Alice born?", TargetedDocs: one(1)})
	assert.Equal(t, ClassFactoid, r.Class)
}

func TestClassifySectionSummary(t *testing.T) {
	r := Classify(Input{
		Query:        "Please give me the full timeline and all the deliverables for this long multi year project plan",
		TargetedDocs: one(1),
	})
	assert.Equal(t, ClassSectionSummary, r.Class)
	assert.True(t, r.IsLong)
	assert.Contains(t, r.MatchedSections, "timeline")
}

func TestClassifyCompare(t *testing.T) {
	r := Classify(Input{Query: "Compare A and B performance"})
	assert.Equal(t, ClassCompare, r.Class)
}

func TestClassifyCompareByMultiEntity(t *testing.T) {
	r := Classify(Input{Query: "Discuss Alice and Bob", TargetedDocs: one(1)})
	assert.Equal(t, ClassCompare, r.Class)
	assert.True(t, r.MultiEntity)
}

func TestClassifyFiltering(t *testing.T) {
	r := Classify(Input{Query: "revenue greater than 5% since 2020", TargetedDocs: one(1)})
	assert.Equal(t, ClassFiltering, r.Class)
}

func TestClassifyMultiDocUnknownTargets(t *testing.T) {
	r := Classify(Input{Query: "what does this say"})
	assert.Equal(t, ClassMultiDoc, r.Class)
	assert.True(t, r.IsMultiDoc)
}

func TestClassifyDefault(t *testing.T) {
	r := Classify(Input{Query: "tell me something reasonably detailed about this topic please", TargetedDocs: one(1)})
	assert.Equal(t, ClassDefault, r.Class)
}

// The SECTION_SUMMARY branch (sections and long) is checked before
// BROAD_SUMMARY's own condition, which repeats the same conjunction as
// one of its two disjuncts; first-match-wins therefore gives
// SECTION_SUMMARY whenever a long query matches both.
func TestClassifySectionSummaryPrecedesBroadSummary(t *testing.T) {
	r := Classify(Input{
		Query:        "Can you walk me through a broad overview of everything covered in this entire document",
		TargetedDocs: one(1),
	})
	assert.Equal(t, ClassSectionSummary, r.Class)
}
