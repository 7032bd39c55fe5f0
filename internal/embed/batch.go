package embed

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
)

// Batched splits large inputs into provider-sized batches and embeds them
// concurrently. Output order matches input order.
type Batched struct {
	Embedder    Embedder
	Size        int
	Concurrency int
}

var _ Embedder = Batched{}

func (b Batched) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if b.Size <= 0 || len(texts) <= b.Size {
		return b.Embedder.Embed(ctx, texts)
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, b.Concurrency))
	for start := 0; start < len(texts); start += b.Size {
		end := min(start+b.Size, len(texts))
		g.Go(func() error {
			vecs, err := b.Embedder.Embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			if len(vecs) != end-start {
				return eris.Errorf("embed: batch %d-%d returned %d vectors", start, end, len(vecs))
			}
			copy(out[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
