// Package query turns raw questions into Query values: abbreviations
// expanded, bare terms qualified, keywords extracted and a coarse class
// assigned for scoring bonuses.
package query

import (
	"regexp"
	"sort"
	"strings"
)

// Classification is the coarse question type.
type Classification int

const (
	General Classification = iota
	Factual
	Boolean
	Temporal
)

func (c Classification) String() string {
	switch c {
	case Factual:
		return "factual"
	case Boolean:
		return "boolean"
	case Temporal:
		return "temporal"
	default:
		return "general"
	}
}

// Query is a preprocessed question.
type Query struct {
	Original string
	Expanded string
	Keywords []string // Sorted, no duplicates
	Phrases  []string // Important domain phrases found in Expanded, sorted
	Class    Classification
}

// Rewrite appends Qualifier after Term unless the term is already followed
// by one of SkipIfFollowedBy.
type Rewrite struct {
	Term             string
	Qualifier        string
	SkipIfFollowedBy []string
}

var (
	wordRe      = regexp.MustCompile(`[A-Za-z]+`)
	upperRe     = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
	phraseRe    = regexp.MustCompile(`(?i)grace period|waiting period|pre.?existing|maternity|room rent|sum insured|deductible|co.?payment`)
	factualRe   = regexp.MustCompile(`\b(?:what is|how much|amount|limit)\b`)
	booleanRe   = regexp.MustCompile(`^(?:does|is|are|can|will|do|has|have)\b`)
	temporalRe  = regexp.MustCompile(`\b(?:when|how long|period)\b`)
	nonLetterRe = regexp.MustCompile(`[^a-z]+`)
)

// Preprocessor holds compiled rewrite tables. It is safe for concurrent use.
type Preprocessor struct {
	abbrevRe *regexp.Regexp
	abbrev   map[string]string
	rewrites []compiledRewrite
}

type compiledRewrite struct {
	Rewrite
	re *regexp.Regexp
}

var defaultPreprocessor = NewPreprocessor(DefaultAbbreviations, DefaultRewrites)

// NewPreprocessor compiles the abbreviation table and rewrites.
func NewPreprocessor(abbreviations map[string]string, rewrites []Rewrite) *Preprocessor {
	p := &Preprocessor{abbrev: make(map[string]string, len(abbreviations))}

	keys := make([]string, 0, len(abbreviations))
	for k, v := range abbreviations {
		p.abbrev[strings.ToLower(k)] = v
		keys = append(keys, regexp.QuoteMeta(k))
	}
	// Longer keys first so alternation prefers ICCU over ICU.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	if len(keys) > 0 {
		p.abbrevRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(keys, "|") + `)\b`)
	}

	for _, rw := range rewrites {
		p.rewrites = append(p.rewrites, compiledRewrite{
			Rewrite: rw,
			re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(rw.Term) + `\b`),
		})
	}
	return p
}

// Preprocess runs the default preprocessor.
func Preprocess(question string) Query {
	return defaultPreprocessor.Preprocess(question)
}

// PreprocessAll preprocesses each question in order.
func PreprocessAll(questions []string) []Query {
	out := make([]Query, len(questions))
	for i, q := range questions {
		out[i] = Preprocess(q)
	}
	return out
}

// Preprocess builds the Query for one question. It never fails; an empty
// question yields an empty Query of class General.
func (p *Preprocessor) Preprocess(question string) Query {
	original := strings.TrimSpace(question)
	expanded := spaceRe.ReplaceAllString(original, " ")

	if p.abbrevRe != nil {
		expanded = p.abbrevRe.ReplaceAllStringFunc(expanded, func(m string) string {
			return p.abbrev[strings.ToLower(m)]
		})
	}
	for _, rw := range p.rewrites {
		expanded = rw.apply(expanded)
	}
	if expanded != "" && !strings.HasSuffix(expanded, "?") {
		expanded += "?"
	}

	return Query{
		Original: original,
		Expanded: expanded,
		Keywords: extractKeywords(expanded, original),
		Phrases:  Phrases(expanded),
		Class:    classify(original),
	}
}

func (rw compiledRewrite) apply(text string) string {
	locs := rw.re.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return text
	}

	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		sb.WriteString(text[last:loc[1]])
		last = loc[1]
		if !rw.qualified(text[loc[1]:]) {
			sb.WriteString(" ")
			sb.WriteString(rw.Qualifier)
		}
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func (rw compiledRewrite) qualified(rest string) bool {
	rest = strings.ToLower(strings.TrimLeft(rest, " "))
	for _, q := range rw.SkipIfFollowedBy {
		if strings.HasPrefix(rest, q) {
			return true
		}
	}
	return false
}

// Keywords returns the sorted keyword set of free text: lower-cased
// alphabetic tokens of three or more letters, minus stop words.
func Keywords(text string) []string {
	return extractKeywords(text, "")
}

func extractKeywords(expanded, original string) []string {
	set := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(expanded, -1) {
		w = strings.ToLower(w)
		if len(w) < 3 {
			continue
		}
		if _, stop := StopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	for _, w := range upperRe.FindAllString(original, -1) {
		w = strings.ToLower(w)
		if _, stop := StopWords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return sortedSet(set)
}

var canonicalPhrases = map[string]string{
	"graceperiod":   "grace period",
	"waitingperiod": "waiting period",
	"preexisting":   "pre-existing",
	"roomrent":      "room rent",
	"suminsured":    "sum insured",
	"copayment":     "co-payment",
}

// Phrases returns the important domain phrases in text in canonical
// spelling, so "Pre existing" and "preexisting" both give "pre-existing".
func Phrases(text string) []string {
	set := make(map[string]struct{})
	for _, m := range phraseRe.FindAllString(text, -1) {
		key := nonLetterRe.ReplaceAllString(strings.ToLower(m), "")
		if c, ok := canonicalPhrases[key]; ok {
			key = c
		}
		set[key] = struct{}{}
	}
	return sortedSet(set)
}

func classify(question string) Classification {
	q := strings.ToLower(question)
	switch {
	case factualRe.MatchString(q):
		return Factual
	case booleanRe.MatchString(q):
		return Boolean
	case temporalRe.MatchString(q):
		return Temporal
	default:
		return General
	}
}

func sortedSet(set map[string]struct{}) []string {
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
