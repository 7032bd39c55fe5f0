package embed

import (
	"context"
	"sort"
)

// MemoryFactory builds brute-force in-memory indexes.
type MemoryFactory struct{}

var _ IndexFactory = MemoryFactory{}

func (MemoryFactory) Build(_ context.Context, items []Item) (Index, error) {
	cp := make([]Item, len(items))
	copy(cp, items)
	return &memoryIndex{items: cp}, nil
}

type memoryIndex struct {
	items []Item
}

// Nearest scores every item and returns the top k by similarity, ties by
// ascending ID.
func (m *memoryIndex) Nearest(_ context.Context, vector []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	results := make([]Neighbor, 0, len(m.items))
	for _, it := range m.items {
		results = append(results, Neighbor{ID: it.ID, Score: Cosine(vector, it.Vector)})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

func (m *memoryIndex) Close(context.Context) error { return nil }
