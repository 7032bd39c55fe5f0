// Package embed provides text embedders and nearest-neighbour indexes for
// the embedding relevance scorer.
package embed

import (
	"context"
	"math"
)

// Embedder turns a batch of texts into fixed-length vectors, one per text,
// in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Item is a vector keyed by section index.
type Item struct {
	ID     int
	Vector []float32
}

// Neighbor is a search hit. Score is cosine similarity, higher is closer.
type Neighbor struct {
	ID    int
	Score float64
}

// Index answers k-nearest queries over the items it was built from.
type Index interface {
	Nearest(ctx context.Context, vector []float32, k int) ([]Neighbor, error)
	Close(ctx context.Context) error
}

// IndexFactory builds a request-scoped Index. Factories are created once at
// startup and shared between requests.
type IndexFactory interface {
	Build(ctx context.Context, items []Item) (Index, error)
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or the lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
