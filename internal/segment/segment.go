package segment

import (
	"regexp"
	"strings"

	"github.com/dgallion1/docqa/internal/doctree"
)

// markerRe matches the structural markers written by text extraction:
// "--- PAGE 3 ---", "=== PAGE 3 ===", "=== PAGE 3 [Schedule] ===" and the
// "--- SECTION 2 ---" markers produced for structured sources.
var markerRe = regexp.MustCompile(`(?:---|===) ?(?:PAGE|SECTION) (\d+)(?: \[[^\]\n]*\])? ?(?:---|===)`)

var paragraphBreakRe = regexp.MustCompile(`\n[ \t]*\n`)

// Segmenter splits normalized text into sections.
type Segmenter struct {
	// MaxSectionBytes splits spans larger than this on paragraph and then
	// sentence boundaries. Zero keeps every span whole.
	MaxSectionBytes int
}

// Segment runs a Segmenter with no size limit.
func Segment(text string) []doctree.Section {
	return Segmenter{}.Segment(text)
}

// HasMarkers reports whether text carries explicit page or section markers.
func HasMarkers(text string) bool {
	return markerRe.MatchString(text)
}

// Segment splits on structural markers when present and on blank lines
// otherwise. Whitespace-only spans are dropped; Index follows output order.
func (s Segmenter) Segment(text string) []doctree.Section {
	var spans []string
	locs := markerRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		spans = paragraphBreakRe.Split(text, -1)
	} else {
		spans = append(spans, text[:locs[0][0]])
		for i, loc := range locs {
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			spans = append(spans, text[loc[0]:end])
		}
	}

	var sections []doctree.Section
	for _, span := range spans {
		for _, part := range splitOversized(strings.TrimSpace(span), s.MaxSectionBytes) {
			flat := strings.Join(strings.Fields(markerRe.ReplaceAllString(part, " ")), " ")
			if flat == "" {
				continue
			}
			sections = append(sections, doctree.Section{
				Index:      len(sections),
				Raw:        part,
				Normalized: flat,
			})
		}
	}
	return sections
}

// IsDegenerate reports whether retrieval should be skipped and the whole
// text used as context.
func IsDegenerate(sections []doctree.Section, text string, smallDocBytes int) bool {
	return len(sections) <= 1 || len(text) <= smallDocBytes
}

// splitOversized packs paragraphs, then sentences, into parts of at most
// maxBytes. A single sentence longer than maxBytes is kept whole.
func splitOversized(text string, maxBytes int) []string {
	if maxBytes <= 0 || len(text) <= maxBytes {
		return []string{text}
	}

	var pieces []string
	for _, para := range splitByParagraphs(text) {
		if len(para) > maxBytes {
			pieces = append(pieces, pack(splitSentences(para), maxBytes, " ")...)
			continue
		}
		pieces = append(pieces, para)
	}
	return pack(pieces, maxBytes, "\n\n")
}

func pack(pieces []string, maxBytes int, sep string) []string {
	var result []string
	var current strings.Builder
	for _, p := range pieces {
		if current.Len() > 0 && current.Len()+len(sep)+len(p) > maxBytes {
			result = append(result, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// splitByParagraphs splits on blank lines.
func splitByParagraphs(text string) []string {
	var result []string
	for _, p := range paragraphBreakRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// splitSentences does basic sentence splitting.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && (text[i+1] == ' ' || text[i+1] == '\n') {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
