package query

// DefaultAbbreviations maps domain abbreviations to their spelled-out form.
var DefaultAbbreviations = map[string]string{
	"PED":   "Pre-existing diseases",
	"ICU":   "Intensive Care Unit",
	"OPD":   "Out Patient Department",
	"IPD":   "Inpatient Department",
	"EMI":   "Equated Monthly Installment",
	"GST":   "Goods and Services Tax",
	"TPA":   "Third Party Administrator",
	"AYUSH": "Ayurveda Yoga Unani Siddha Homeopathy",
	"NCD":   "No Claim Discount",
	"SI":    "Sum Insured",
	"CCU":   "Cardiac Care Unit",
	"ICCU":  "Intensive Cardiac Care Unit",
}

// DefaultRewrites qualify bare terms that are ambiguous on their own.
var DefaultRewrites = []Rewrite{
	{Term: "grace period", Qualifier: "for premium payment", SkipIfFollowedBy: []string{"for"}},
	{Term: "waiting period", Qualifier: "for coverage", SkipIfFollowedBy: []string{"for"}},
	{Term: "room rent", Qualifier: "limit and restrictions", SkipIfFollowedBy: []string{"limit", "restriction", "cap"}},
	{Term: "maternity", Qualifier: "expenses and coverage", SkipIfFollowedBy: []string{"expense", "coverage", "cover", "benefit"}},
	{Term: "deductible", Qualifier: "amount and conditions", SkipIfFollowedBy: []string{"amount", "condition"}},
}

// StopWords are dropped from keyword sets.
var StopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"what", "when", "where", "does", "this", "policy", "under", "with", "from", "that",
		"have", "will", "can", "are", "the", "and", "for", "how", "why", "who", "which",
		"any", "all", "some", "may", "must", "not", "but", "his", "her", "you", "your",
		"our", "their", "has", "had", "been", "being", "do", "did", "should", "would",
		"could", "might", "shall", "ought", "there", "is", "of", "a", "an", "in", "on",
	} {
		StopWords[w] = struct{}{}
	}
}
