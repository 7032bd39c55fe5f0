// Package normalize cleans raw extracted document text before segmentation.
// It only touches formatting: whitespace, currency notation, unit spacing and
// letter/digit confusions adjacent to numbers.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalizer applies the formatting rules. The zero value skips OCR fixes.
type Normalizer struct {
	FixOCR bool
}

// Default is the normalizer used by the pipeline.
var Default = Normalizer{FixOCR: true}

// maxPasses bounds the fixed-point loop. Each rule only shrinks or
// canonicalizes its match, so real input settles in two passes.
const maxPasses = 4

var (
	lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

	spaceRunRe  = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	lineEdgeRe  = regexp.MustCompile(`(?m)^ +| +$`)
	blankRunRe  = regexp.MustCompile(`\n{3,}`)
	currencyRe  = regexp.MustCompile(`(?i)\b(?:rs\.?|inr|rupees?) *(\d)`)
	symbolGapRe = regexp.MustCompile(`₹ +(\d)`)
	percentRe   = regexp.MustCompile(`(\d) +%`)
	unitRe      = regexp.MustCompile(`(?i)(\d) *(day|month|year)(s?)\b`)
	ocrLeadRe   = regexp.MustCompile(`\b[OlS]\d`)
	ocrTrailRe  = regexp.MustCompile(`(\d)O\b`)
)

var ocrDigit = map[byte]string{'O': "0", 'l': "1", 'S': "5"}

// Normalize runs Default.Normalize.
func Normalize(text string) string {
	return Default.Normalize(text)
}

// Normalize returns the canonical form of text. The result is a fixed point:
// normalizing it again returns it unchanged.
func (n Normalizer) Normalize(text string) string {
	out := lineEndings.Replace(norm.NFC.String(text))
	for range maxPasses {
		next := n.pass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (n Normalizer) pass(s string) string {
	s = CollapseWhitespace(s)
	s = currencyRe.ReplaceAllString(s, "₹$1")
	s = symbolGapRe.ReplaceAllString(s, "₹$1")
	s = percentRe.ReplaceAllString(s, "$1%")
	s = unitRe.ReplaceAllStringFunc(s, canonicalUnit)
	if n.FixOCR {
		s = ocrLeadRe.ReplaceAllStringFunc(s, func(m string) string {
			return ocrDigit[m[0]] + m[1:]
		})
		s = ocrTrailRe.ReplaceAllString(s, "${1}0")
	}
	return s
}

// CollapseWhitespace folds space runs to one space, trims line edges and
// keeps at most one blank line between paragraphs.
func CollapseWhitespace(s string) string {
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = lineEdgeRe.ReplaceAllString(s, "")
	s = blankRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// canonicalUnit rewrites "30Days" or "30  days" as "30 days".
func canonicalUnit(m string) string {
	sub := unitRe.FindStringSubmatch(m)
	if sub == nil {
		return m
	}
	return sub[1] + " " + strings.ToLower(sub[2]+sub[3])
}
