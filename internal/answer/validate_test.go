package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		question string
		want     string
	}{
		{"empty", "", "What is X?", Sentinel},
		{"too short", "ab", "What is X?", Sentinel},
		{"non-answer phrase", "No information.", "Is AYUSH covered?", Sentinel},
		{"non-answer anywhere", "The document is unclear on this point.", "What is X?", Sentinel},
		{"sentinel stays", Sentinel, "What is X?", Sentinel},
		{"already determined", "Yes, covered.", "Is AYUSH covered?", "Yes, covered."},
		{"markers and citation", "**Yes**, the policy covers it [1].", "Does the policy cover it?", "Yes, the policy covers it."},
		{"page citation", "Thirty days [Page 4] from the due date.", "What is the grace period?", "Thirty days from the due date."},
		{"sources tail", "Twenty four months. Sources: clause 4.2", "What is the waiting period?", "Twenty four months."},
		{"contained marker word", "Covered after 24 months.", "What is the waiting period?", "Yes, covered after 24 months."},
		{"quotes", "The term 'hospital' means an insurer's \"facility\".", "What is a hospital?", "The term hospital means an insurer's facility."},
		{"positive indicator", "The policy covers maternity expenses.", "Does the policy cover maternity?", "Yes, the policy covers maternity expenses."},
		{"negative before positive", "Cosmetic surgery is excluded from coverage.", "Is cosmetic surgery covered?", "No, cosmetic surgery is excluded from coverage."},
		{"contraction", "It isn't covered under the plan.", "Is it covered?", "No, it isn't covered under the plan."},
		{"acronym kept", "AYUSH treatment is covered.", "Is AYUSH covered?", "Yes, AYUSH treatment is covered."},
		{"no indicator", "Thirty days from the due date.", "Is there a grace period?", "Thirty days from the due date."},
		{"not a question", "The policy covers maternity.", "Is maternity covered", "The policy covers maternity."},
		{"not boolean", "Maternity is covered after 9 months.", "What about maternity?", "Maternity is covered after 9 months."},
		{"terminal period", "Thirty days grace", "What is the grace period?", "Thirty days grace."},
		{"short keeps bare", "30 days", "What is the grace period?", "30 days"},
		{"whitespace", "  Thirty\n\tdays   grace.  ", "What?", "Thirty days grace."},
		{"truncate", "One. Two. Three. Four. Five.", "What?", "One. Two. Three. Four."},
		{"bold source note", "Thirty days from the due date. **Source**: Section 4.2", "What is the grace period?", "Thirty days from the due date."},
		{"citation wrapped in markers", "Covered for 30 days [*1*]", "Is it covered?", "Yes, covered for 30 days."},
		{"quoted citation", "Thirty days 'Source: clause 2'", "What is the grace period?", "Thirty days."},
		{"decimal not a stop", "Limit is 2.5 percent. Two. Three. Four. Five.", "What?", "Limit is 2.5 percent. Two. Three. Four."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Validate(tt.fragment, tt.question))
		})
	}
}

func TestValidate_Idempotent(t *testing.T) {
	inputs := []struct{ fragment, question string }{
		{"**Yes**, the policy covers it [1].", "Does the policy cover it?"},
		{"Cosmetic surgery is excluded.", "Is cosmetic surgery covered?"},
		{"One. Two. Three. Four. Five. Six", "What?"},
		{"Thirty days grace", "What is the grace period?"},
		{"'quoted' text with 📋 marker and `code`", "Is it covered?"},
		{"Covered. Sources: page 3", "Is it covered?"},
		{"ab", "What?"},
		{"A.B. C.D. E.F. G.H. I.J", "What?"},
		{"Thirty days from the due date. **Source**: Section 4.2", "What is the grace period?"},
		{"Covered for 30 days [*1*]", "Is it covered?"},
		{"Limit [`Page 3`] is ₹5000 `References`: annex", "What is the limit?"},
	}
	for _, in := range inputs {
		once := Validate(in.fragment, in.question)
		assert.Equal(t, once, Validate(once, in.question), "input %q", in.fragment)
	}
}

func TestValidator_Limits(t *testing.T) {
	v := Validator{MinLength: 10, MaxSentences: 2}
	assert.Equal(t, Sentinel, v.Validate("Too short", "What?"))
	assert.Equal(t, "First one. Second one.", v.Validate("First one. Second one. Third one.", "What?"))

	unlimited := Validator{MinLength: 3}
	assert.Equal(t, "A a. B b. C c. D d. E e.", unlimited.Validate("A a. B b. C c. D d. E e.", "What?"))
}
