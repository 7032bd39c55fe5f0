package answer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sentinel fills any answer slot without usable content.
const Sentinel = "Information not specified in document"

// Validator cleans recovered answer fragments.
type Validator struct {
	MinLength    int // Shorter answers become the sentinel
	MaxSentences int // Zero disables truncation
}

// DefaultValidator returns the production limits.
func DefaultValidator() Validator {
	return Validator{MinLength: 3, MaxSentences: 4}
}

var defaultValidator = DefaultValidator()

// Validate runs DefaultValidator.
func Validate(fragment, question string) string {
	return defaultValidator.Validate(fragment, question)
}

var nonAnswers = []string{
	"not mentioned", "not specified", "not found", "unclear", "cannot determine",
	"unable to find", "no information", "not available", "not stated", "not clear",
}

var (
	sourceTailRe  = regexp.MustCompile(`(?is)\b(?:sources?|references?|citations?)\s*:.*$`)
	bracketCiteRe = regexp.MustCompile(`(?i)\s*\[(?:\d+(?:\s*[,-]\s*\d+)*|(?:page|source|ref)[^\]]*)\]`)
	markerChars   = strings.NewReplacer("📋", "", "*", "", "`", "", `"`, "", "“", "", "”", "")
	booleanQRe    = regexp.MustCompile(`(?i)\b(?:does|is|are|can|will|do|has)\b`)
	determinedRe  = regexp.MustCompile(`(?i)^(?:yes|no)\b`)
	negativeRe    = regexp.MustCompile(`(?i)(?:\b(?:not|excluded|excludes?|unavailable|never)\b|n['’]t\b)`)
	positiveRe    = regexp.MustCompile(`(?i)\b(?:cover(?:s|ed|age)?|include[sd]?|available|provided|applicable|eligible|allowed)\b`)
)

// Validate turns a raw fragment into the final answer. It is total and
// idempotent: Validate(Validate(x, q), q) == Validate(x, q).
func (v Validator) Validate(fragment, question string) string {
	s := clean(fragment)

	if len(s) < v.MinLength || isNonAnswer(s) {
		return Sentinel
	}

	if isYesNoQuestion(question) && !determinedRe.MatchString(s) {
		switch {
		case negativeRe.MatchString(s):
			s = "No, " + lowerFirst(s)
		case positiveRe.MatchString(s):
			s = "Yes, " + lowerFirst(s)
		}
	}

	if len(s) > 10 && !endsSentence(s) {
		s += "."
	}
	s = v.truncate(s)

	if len(s) < v.MinLength {
		return Sentinel
	}
	return s
}

// maxCleanPasses bounds clean's fixed-point loop.
const maxCleanPasses = 4

// clean strips markup, citations and source notes, then collapses
// whitespace. Markup can hide a citation ("**Source**:", "[*1*]") and
// removing one can expose another, so the steps repeat until the text
// stops changing.
func clean(s string) string {
	for range maxCleanPasses {
		next := markerChars.Replace(s)
		next = stripStandaloneQuotes(next)
		next = sourceTailRe.ReplaceAllString(next, "")
		next = bracketCiteRe.ReplaceAllString(next, "")
		next = strings.Join(strings.Fields(next), " ")
		if next == s {
			break
		}
		s = next
	}
	return s
}

func isNonAnswer(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range nonAnswers {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// isYesNoQuestion reports a question that ends with '?' and contains an
// auxiliary verb anywhere.
func isYesNoQuestion(q string) bool {
	q = strings.TrimSpace(q)
	return strings.HasSuffix(q, "?") && booleanQRe.MatchString(q)
}

// truncate keeps the first MaxSentences sentences. A sentence ends at '.',
// '!' or '?' followed by a space or the end of the text.
func (v Validator) truncate(s string) string {
	if v.MaxSentences <= 0 {
		return s
	}
	count := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(s) && s[i+1] != ' ' {
			continue
		}
		count++
		if count == v.MaxSentences {
			return s[:i+1]
		}
	}
	return s
}

func endsSentence(s string) bool {
	switch s[len(s)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}

// stripStandaloneQuotes drops single quotes used as quotation marks and
// keeps apostrophes inside words such as "insurer's".
func stripStandaloneQuotes(s string) string {
	if !strings.ContainsAny(s, "'‘’") {
		return s
	}
	runes := []rune(s)
	var sb strings.Builder
	for i, r := range runes {
		if r == '\'' || r == '‘' || r == '’' {
			inWord := i > 0 && i+1 < len(runes) && unicode.IsLetter(runes[i-1]) && unicode.IsLetter(runes[i+1])
			if !inWord {
				continue
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// lowerFirst lower-cases the first letter unless the first word looks like
// an acronym.
func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if !unicode.IsUpper(r) {
		return s
	}
	if next, _ := utf8.DecodeRuneInString(s[size:]); unicode.IsUpper(next) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
