package selector

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/docqa/internal/doctree"
)

const separator = "\n\n"

// Selector assembles a size-bounded context from scored sections.
type Selector struct {
	MaxBytes      int // Upper bound on ContextBundle.SizeBytes
	MaxCount      int // Maximum number of sections taken
	FallbackBytes int // Prefix length used when nothing scored
}

// DefaultSelector mirrors the limits used in production.
func DefaultSelector() Selector {
	return Selector{MaxBytes: 28000, MaxCount: 25, FallbackBytes: 28000}
}

// Select takes the highest-scoring sections (ties by document order) until
// MaxCount is reached or the next section would overflow MaxBytes. When no
// section scored above zero it returns a prefix of fullText instead, so a
// non-empty document never yields an empty bundle.
func (s Selector) Select(scored []doctree.ScoredSection, fullText string) doctree.ContextBundle {
	ranked := make([]doctree.ScoredSection, 0, len(scored))
	for _, sc := range scored {
		if sc.Score > 0 {
			ranked = append(ranked, sc)
		}
	}
	if len(ranked) == 0 {
		return s.fallback(fullText)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Section.Index < ranked[j].Section.Index
	})

	var sb strings.Builder
	var indexes []int
	seen := make(map[int]struct{})

	for _, sc := range ranked {
		if s.MaxCount > 0 && len(indexes) >= s.MaxCount {
			break
		}
		if _, dup := seen[sc.Section.Index]; dup {
			continue
		}
		text := sc.Section.Raw
		add := len(text)
		if sb.Len() > 0 {
			add += len(separator)
		}
		if s.MaxBytes > 0 && sb.Len()+add > s.MaxBytes {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(text)
		indexes = append(indexes, sc.Section.Index)
		seen[sc.Section.Index] = struct{}{}
	}

	// The best section alone is over budget: keep its head rather than
	// sending nothing.
	if len(indexes) == 0 {
		top := ranked[0].Section
		text := truncateUTF8(top.Raw, s.MaxBytes)
		return doctree.ContextBundle{
			Text:           text,
			SizeBytes:      len(text),
			SectionIndexes: []int{top.Index},
		}
	}

	return doctree.ContextBundle{
		Text:           sb.String(),
		SizeBytes:      sb.Len(),
		SectionIndexes: indexes,
	}
}

// Whole wraps the entire normalized document as a bundle. Used when the
// document is small enough that selection is skipped.
func Whole(text string) doctree.ContextBundle {
	return doctree.ContextBundle{Text: text, SizeBytes: len(text), Bypassed: true}
}

func (s Selector) fallback(text string) doctree.ContextBundle {
	limit := s.FallbackBytes
	if limit <= 0 {
		limit = s.MaxBytes
	}
	if s.MaxBytes > 0 && limit > s.MaxBytes {
		limit = s.MaxBytes
	}
	prefix := strings.TrimSpace(truncateUTF8(text, limit))
	return doctree.ContextBundle{
		Text:      prefix,
		SizeBytes: len(prefix),
		Fallback:  true,
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
// n <= 0 means no limit.
func truncateUTF8(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
