package scorer

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Category is a weighted list of domain vocabulary.
type Category struct {
	Name   string   `yaml:"name"`
	Weight float64  `yaml:"weight"`
	Terms  []string `yaml:"terms"`
}

// Dictionary holds every weight the keyword scorer uses.
type Dictionary struct {
	KeywordWeight       float64    `yaml:"keyword_weight"`
	PhraseWeight        float64    `yaml:"phrase_weight"`
	NumericUnitBonus    float64    `yaml:"numeric_unit_bonus"`
	ListBonus           float64    `yaml:"list_bonus"`
	TableBonus          float64    `yaml:"table_bonus"`
	FactualBonus        float64    `yaml:"factual_bonus"`
	BooleanBonus        float64    `yaml:"boolean_bonus"`
	TemporalBonus       float64    `yaml:"temporal_bonus"`
	EscalationThreshold float64    `yaml:"escalation_threshold"`
	EscalationBonus     float64    `yaml:"escalation_bonus"`
	Categories          []Category `yaml:"categories"`
}

// DefaultDictionary returns the built-in insurance and medical vocabulary.
func DefaultDictionary() Dictionary {
	return Dictionary{
		KeywordWeight:       1,
		PhraseWeight:        5,
		NumericUnitBonus:    2,
		ListBonus:           1,
		TableBonus:          2,
		FactualBonus:        1,
		BooleanBonus:        1,
		TemporalBonus:       2,
		EscalationThreshold: 8,
		EscalationBonus:     3,
		Categories: []Category{
			{Name: "insurance_core", Weight: 3, Terms: []string{"premium", "coverage", "deductible", "claim", "benefit", "exclusion", "rider", "sum", "insured"}},
			{Name: "medical_terms", Weight: 3, Terms: []string{"treatment", "hospital", "surgery", "diagnosis", "therapy", "doctor", "patient", "medical", "clinical"}},
			{Name: "financial_data", Weight: 2, Terms: []string{"amount", "limit", "payment", "cost", "fee", "charge", "expense", "rate", "percentage"}},
			{Name: "time_periods", Weight: 2, Terms: []string{"period", "waiting", "grace", "duration", "months", "years", "days", "continuous"}},
			{Name: "conditions", Weight: 2, Terms: []string{"pre-existing", "maternity", "emergency", "accident", "illness", "disease", "chronic"}},
			{Name: "coverage_types", Weight: 2, Terms: []string{"inpatient", "outpatient", "daycare", "domiciliary", "ambulance", "preventive"}},
		},
	}
}

// LoadDictionary reads a YAML dictionary. Fields absent from the file keep
// their default values; a categories list in the file replaces the default
// categories entirely.
func LoadDictionary(path string) (Dictionary, error) {
	d := DefaultDictionary()
	data, err := os.ReadFile(path)
	if err != nil {
		return Dictionary{}, eris.Wrapf(err, "scorer: read dictionary %s", path)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Dictionary{}, eris.Wrapf(err, "scorer: parse dictionary %s", path)
	}
	if err := d.Validate(); err != nil {
		return Dictionary{}, err
	}
	return d, nil
}

// Validate checks the weight ordering the scorer relies on: domain terms
// count at least double a keyword, phrases count more than any domain term.
func (d Dictionary) Validate() error {
	if d.KeywordWeight <= 0 {
		return eris.New("scorer: keyword_weight must be positive")
	}
	for _, b := range []float64{d.NumericUnitBonus, d.ListBonus, d.TableBonus, d.FactualBonus, d.BooleanBonus, d.TemporalBonus, d.EscalationBonus} {
		if b < 0 {
			return eris.New("scorer: bonuses must not be negative")
		}
	}
	var maxCategory float64
	for _, c := range d.Categories {
		if c.Weight < 2*d.KeywordWeight {
			return eris.Errorf("scorer: category %q weight %.1f is below twice the keyword weight", c.Name, c.Weight)
		}
		maxCategory = max(maxCategory, c.Weight)
	}
	if d.PhraseWeight <= maxCategory {
		return eris.Errorf("scorer: phrase_weight %.1f must exceed the largest category weight %.1f", d.PhraseWeight, maxCategory)
	}
	return nil
}
