package scorer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dgallion1/docqa/internal/doctree"
	"github.com/dgallion1/docqa/internal/embed"
	"github.com/dgallion1/docqa/internal/query"
)

// EmbeddingStrategy scores sections by cosine similarity to the questions.
// The embedder and index factory are shared read-only; each Bind builds a
// request-scoped index over that request's sections.
type EmbeddingStrategy struct {
	embedder embed.Embedder
	indexes  embed.IndexFactory
	topK     int
	log      *zap.Logger
}

var _ Strategy = (*EmbeddingStrategy)(nil)

func NewEmbeddingStrategy(e embed.Embedder, f embed.IndexFactory, topK int, log *zap.Logger) *EmbeddingStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	if topK <= 0 {
		topK = 10
	}
	return &EmbeddingStrategy{embedder: e, indexes: f, topK: topK, log: log}
}

func (s *EmbeddingStrategy) Name() string { return "embedding" }

// Bind embeds sections and questions in one batch, indexes the section
// vectors and records, per section, the best similarity over the questions
// whose top-k it appeared in.
func (s *EmbeddingStrategy) Bind(ctx context.Context, sections []doctree.Section, queries []query.Query) (Scorer, error) {
	bound := &boundEmbedding{scores: make(map[int]float64)}
	if len(sections) == 0 {
		return bound, nil
	}

	texts := make([]string, 0, len(sections)+len(queries))
	for _, sec := range sections {
		texts = append(texts, sec.Normalized)
	}
	for _, q := range queries {
		if q.Expanded != "" {
			texts = append(texts, q.Expanded)
		}
	}
	if len(texts) == len(sections) {
		return bound, nil
	}

	vecs, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: embed sections")
	}
	if len(vecs) != len(texts) {
		return nil, eris.Errorf("scorer: got %d vectors for %d texts", len(vecs), len(texts))
	}

	items := make([]embed.Item, len(sections))
	for i, sec := range sections {
		items[i] = embed.Item{ID: sec.Index, Vector: vecs[i]}
	}
	idx, err := s.indexes.Build(ctx, items)
	if err != nil {
		return nil, eris.Wrap(err, "scorer: build index")
	}
	defer func() {
		if err := idx.Close(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn("index close failed", zap.Error(err))
		}
	}()

	for _, qv := range vecs[len(sections):] {
		hits, err := idx.Nearest(ctx, qv, s.topK)
		if err != nil {
			return nil, eris.Wrap(err, "scorer: nearest sections")
		}
		for _, h := range hits {
			if h.Score > bound.scores[h.ID] {
				bound.scores[h.ID] = h.Score
			}
		}
	}

	s.log.Debug("embedding scores bound",
		zap.Int("sections", len(sections)),
		zap.Int("queries", len(vecs)-len(sections)),
		zap.Int("scored", len(bound.scores)),
	)
	return bound, nil
}

// boundEmbedding holds the similarities computed at Bind time for the
// queries passed there.
type boundEmbedding struct {
	scores map[int]float64
}

func (b *boundEmbedding) Score(section doctree.Section, _ []query.Query) doctree.ScoredSection {
	return doctree.ScoredSection{Section: section, Score: b.scores[section.Index]}
}
