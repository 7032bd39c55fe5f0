// Package scorer ranks document sections against a question set.
//
// Two strategies share one interface: a lexical keyword scorer boosted by
// curated domain dictionaries, and an embedding scorer backed by a
// nearest-neighbour index. The selector only sees ScoredSection values and
// never depends on which strategy produced them.
package scorer

import (
	"context"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/query"
)

// Scorer assigns a nonnegative relevance score to a section. Adding a
// matched signal never lowers the score.
type Scorer interface {
	Score(section doctree.Section, queries []query.Query) doctree.ScoredSection
}

// Strategy prepares a Scorer for one request. Strategies are built once at
// startup and shared read-only between requests.
type Strategy interface {
	Name() string
	Bind(ctx context.Context, sections []doctree.Section, queries []query.Query) (Scorer, error)
}

// ScoreAll scores every section in document order.
func ScoreAll(s Scorer, sections []doctree.Section, queries []query.Query) []doctree.ScoredSection {
	out := make([]doctree.ScoredSection, len(sections))
	for i, sec := range sections {
		out[i] = s.Score(sec, queries)
	}
	return out
}
