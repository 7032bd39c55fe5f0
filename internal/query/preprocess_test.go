package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess_GracePeriod(t *testing.T) {
	q := Preprocess("What is the grace period?")

	assert.Equal(t, "What is the grace period?", q.Original)
	assert.Equal(t, "What is the grace period for premium payment?", q.Expanded)
	assert.Equal(t, []string{"grace", "payment", "period", "premium"}, q.Keywords)
	assert.Equal(t, []string{"grace period"}, q.Phrases)
	assert.Equal(t, Factual, q.Class)
}

func TestPreprocess_RewritesAreIdempotent(t *testing.T) {
	questions := []string{
		"What is the grace period?",
		"Does the policy cover maternity?",
		"Is there a room rent limit?",
		"What is the deductible",
		"waiting period for PED",
		"Explain the waiting period and the grace period",
	}
	for _, in := range questions {
		once := Preprocess(in)
		twice := Preprocess(once.Expanded)
		assert.Equal(t, once.Expanded, twice.Expanded, "question %q", in)
	}
}

func TestPreprocess_AbbreviationsAndUppercaseKeywords(t *testing.T) {
	q := Preprocess("waiting period for PED")

	assert.Equal(t, "waiting period for Pre-existing diseases?", q.Expanded)
	assert.Contains(t, q.Keywords, "ped")
	assert.Contains(t, q.Keywords, "diseases")
	assert.Equal(t, []string{"pre-existing", "waiting period"}, q.Phrases)
	assert.Equal(t, Temporal, q.Class)
}

func TestPreprocess_LongestAbbreviationWins(t *testing.T) {
	q := Preprocess("Are ICCU charges payable?")
	assert.Equal(t, "Are Intensive Cardiac Care Unit charges payable?", q.Expanded)
	assert.Equal(t, Boolean, q.Class)
}

func TestPreprocess_QualifierAlreadyPresent(t *testing.T) {
	q := Preprocess("How long is the room rent cap")
	assert.Equal(t, "How long is the room rent cap?", q.Expanded)
	assert.Equal(t, Temporal, q.Class)
}

func TestPreprocess_Empty(t *testing.T) {
	q := Preprocess("   ")
	assert.Equal(t, "", q.Expanded)
	assert.Nil(t, q.Keywords)
	assert.Equal(t, General, q.Class)
}

func TestClassify(t *testing.T) {
	tests := map[string]Classification{
		"What is the sum insured?":            Factual,
		"How much is the co-payment?":         Factual,
		"Does this cover cataract surgery?":   Boolean,
		"Can I port my policy?":               Boolean,
		"When does cover start?":              Temporal,
		"Describe the claim settlement steps": General,
	}
	for in, want := range tests {
		assert.Equal(t, want, Preprocess(in).Class, in)
	}
}

func TestPhrases_CanonicalSpelling(t *testing.T) {
	assert.Equal(t, []string{"co-payment", "pre-existing"}, Phrases("Preexisting illness and Co payment rules"))
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"hospital", "room", "use"}, Keywords("the hospital room is in use"))
}
