package scorer

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/query"
)

var (
	numericUnitRe = regexp.MustCompile(`(?i)(?:[₹$] ?\d|\d+(?:[.,]\d+)* ?(?:%|₹|days?\b|months?\b|years?\b|lakhs?\b|crores?\b))`)
	durationRe    = regexp.MustCompile(`(?i)\d+ ?(?:days?|months?|years?)\b`)
	digitRe       = regexp.MustCompile(`\d`)
	listLineRe    = regexp.MustCompile(`(?m)^\s*(?:[-•*▪]|\d+[.)]|\([a-z0-9]+\))\s`)
	tableWordRe   = regexp.MustCompile(`(?i)\b(?:table|schedule|annexure|appendix)\b`)
	determinerRe  = regexp.MustCompile(`(?i)\b(?:yes|no|covered|excluded)\b`)
)

type compiledTerm struct {
	term   string
	weight float64
	re     *regexp.Regexp
}

// KeywordStrategy is the lexical, dictionary-weighted scorer. It holds no
// per-request state, so Bind returns the strategy itself.
type KeywordStrategy struct {
	dict  Dictionary
	terms []compiledTerm
}

var _ Strategy = (*KeywordStrategy)(nil)
var _ Scorer = (*KeywordStrategy)(nil)

// NewKeywordStrategy validates d and compiles its terms.
func NewKeywordStrategy(d Dictionary) (*KeywordStrategy, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	s := &KeywordStrategy{dict: d}
	for _, c := range d.Categories {
		for _, term := range c.Terms {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			s.terms = append(s.terms, compiledTerm{
				term:   term,
				weight: c.Weight,
				re:     regexp.MustCompile(`\b` + regexp.QuoteMeta(term)),
			})
		}
	}
	return s, nil
}

// DefaultKeywordStrategy uses the built-in dictionary, which always validates.
func DefaultKeywordStrategy() *KeywordStrategy {
	s, err := NewKeywordStrategy(DefaultDictionary())
	if err != nil {
		panic(err)
	}
	return s
}

func (s *KeywordStrategy) Name() string { return "keyword" }

func (s *KeywordStrategy) Bind(_ context.Context, _ []doctree.Section, _ []query.Query) (Scorer, error) {
	return s, nil
}

// Score adds, in order: one keyword weight per query keyword contained in
// the section, the category weight of each dictionary term, the phrase
// weight of each important query phrase, the unit, structure and
// question-class bonuses, and finally the escalation bonus once the running
// total passes the threshold.
func (s *KeywordStrategy) Score(section doctree.Section, queries []query.Query) doctree.ScoredSection {
	d := s.dict
	text := strings.ToLower(section.Normalized)
	matched := make(map[string]struct{})
	var score float64

	keywords, phrases, classes := unionQueries(queries)

	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			score += d.KeywordWeight
			matched[kw] = struct{}{}
		}
	}

	for _, t := range s.terms {
		if t.re.MatchString(text) {
			score += t.weight
			matched[t.term] = struct{}{}
		}
	}

	if len(phrases) > 0 {
		for _, p := range query.Phrases(text) {
			if _, ok := phrases[p]; ok {
				score += d.PhraseWeight
				matched[p] = struct{}{}
			}
		}
	}

	if numericUnitRe.MatchString(text) {
		score += d.NumericUnitBonus
	}
	if listLineRe.MatchString(section.Raw) {
		score += d.ListBonus
	}
	if tableWordRe.MatchString(text) {
		score += d.TableBonus
	}

	if classes[query.Factual] && digitRe.MatchString(text) {
		score += d.FactualBonus
	}
	if classes[query.Boolean] && determinerRe.MatchString(text) {
		score += d.BooleanBonus
	}
	if classes[query.Temporal] && durationRe.MatchString(text) {
		score += d.TemporalBonus
	}

	if score > d.EscalationThreshold {
		score += d.EscalationBonus
	}

	return doctree.ScoredSection{
		Section:      section,
		Score:        score,
		MatchedTerms: sortedKeys(matched),
	}
}

func unionQueries(queries []query.Query) ([]string, map[string]struct{}, map[query.Classification]bool) {
	kwSet := make(map[string]struct{})
	phrases := make(map[string]struct{})
	classes := make(map[query.Classification]bool)
	for _, q := range queries {
		for _, k := range q.Keywords {
			kwSet[k] = struct{}{}
		}
		for _, p := range q.Phrases {
			phrases[p] = struct{}{}
		}
		classes[q.Class] = true
	}
	return sortedKeys(kwSet), phrases, classes
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
