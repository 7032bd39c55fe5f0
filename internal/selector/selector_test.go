package selector

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docqa/internal/doctree"
)

func scored(idx int, text string, score float64) doctree.ScoredSection {
	return doctree.ScoredSection{
		Section: doctree.Section{Index: idx, Raw: text, Normalized: text},
		Score:   score,
	}
}

func TestSelect_OrdersByScoreThenIndex(t *testing.T) {
	s := Selector{MaxBytes: 1000, MaxCount: 10}
	b := s.Select([]doctree.ScoredSection{
		scored(0, "zero", 1),
		scored(1, "one", 5),
		scored(2, "two", 5),
		scored(3, "three", 0),
	}, "full")

	assert.Equal(t, []int{1, 2, 0}, b.SectionIndexes)
	assert.Equal(t, "one\n\ntwo\n\nzero", b.Text)
	assert.Equal(t, len(b.Text), b.SizeBytes)
	assert.False(t, b.Fallback)
	assert.False(t, b.Contains(3))
}

func TestSelect_StopsAtMaxCount(t *testing.T) {
	s := Selector{MaxBytes: 1000, MaxCount: 2}
	b := s.Select([]doctree.ScoredSection{
		scored(0, "a", 3), scored(1, "b", 2), scored(2, "c", 1),
	}, "")
	assert.Equal(t, []int{0, 1}, b.SectionIndexes)
}

func TestSelect_StopsBeforeOverflow(t *testing.T) {
	s := Selector{MaxBytes: 12, MaxCount: 10}
	b := s.Select([]doctree.ScoredSection{
		scored(0, "aaaaa", 3),  // 5
		scored(1, "bbbbb", 2),  // 5+2+5 = 12
		scored(2, "c", 1),      // would be 15
	}, "")
	assert.Equal(t, []int{0, 1}, b.SectionIndexes)
	assert.LessOrEqual(t, b.SizeBytes, 12)
}

func TestSelect_SkipsDuplicateIndexes(t *testing.T) {
	s := Selector{MaxBytes: 100, MaxCount: 10}
	b := s.Select([]doctree.ScoredSection{
		scored(4, "dup", 3), scored(4, "dup", 2), scored(5, "other", 1),
	}, "")
	assert.Equal(t, []int{4, 5}, b.SectionIndexes)
}

func TestSelect_FallbackWhenNothingScores(t *testing.T) {
	doc := strings.Repeat("lorem ipsum ", 20)
	s := Selector{MaxBytes: 1000, MaxCount: 5, FallbackBytes: 30}
	b := s.Select([]doctree.ScoredSection{scored(0, "x", 0), scored(1, "y", 0)}, doc)

	assert.True(t, b.Fallback)
	assert.NotEmpty(t, b.Text)
	assert.LessOrEqual(t, b.SizeBytes, 30)
	assert.True(t, strings.HasPrefix(doc, b.Text))
	assert.Empty(t, b.SectionIndexes)
}

func TestSelect_FallbackRespectsMaxBytes(t *testing.T) {
	s := Selector{MaxBytes: 10, FallbackBytes: 100}
	b := s.Select(nil, strings.Repeat("z", 50))
	assert.Equal(t, 10, b.SizeBytes)
}

func TestSelect_OversizedTopSectionIsTruncated(t *testing.T) {
	s := Selector{MaxBytes: 7, MaxCount: 5}
	b := s.Select([]doctree.ScoredSection{scored(2, "₹₹₹₹₹", 4)}, "")

	require.Equal(t, []int{2}, b.SectionIndexes)
	assert.LessOrEqual(t, b.SizeBytes, 7)
	assert.True(t, utf8.ValidString(b.Text))
	assert.Equal(t, "₹₹", b.Text)
}

func TestSelect_Deterministic(t *testing.T) {
	in := []doctree.ScoredSection{
		scored(0, "a", 2), scored(1, "b", 2), scored(2, "c", 2), scored(3, "d", 7),
	}
	s := DefaultSelector()
	assert.Equal(t, s.Select(in, "").SectionIndexes, s.Select(in, "").SectionIndexes)
	assert.Equal(t, []int{3, 0, 1, 2}, s.Select(in, "").SectionIndexes)
}

func TestWhole(t *testing.T) {
	b := Whole("tiny doc")
	assert.True(t, b.Bypassed)
	assert.Equal(t, "tiny doc", b.Text)
	assert.Equal(t, 8, b.SizeBytes)
}
