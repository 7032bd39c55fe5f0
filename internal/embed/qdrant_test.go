package embed

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// qdrantState is the collection store shared by the fake clients.
type qdrantState struct {
	mu        sync.Mutex
	created   []*qdrant.CreateCollection
	upserts   []*qdrant.UpsertPoints
	deleted   []string
	searches  int
	vectors   map[string]map[uint64][]float32
	upsertErr error
	deleteErr error
}

type fakeCollections struct {
	qdrant.CollectionsClient
	s *qdrantState
}

func (f fakeCollections) Create(_ context.Context, in *qdrant.CreateCollection, _ ...grpc.CallOption) (*qdrant.CollectionOperationResponse, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.created = append(f.s.created, in)
	f.s.vectors[in.GetCollectionName()] = map[uint64][]float32{}
	return &qdrant.CollectionOperationResponse{Result: true}, nil
}

func (f fakeCollections) Delete(_ context.Context, in *qdrant.DeleteCollection, _ ...grpc.CallOption) (*qdrant.CollectionOperationResponse, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.deleteErr != nil {
		return nil, f.s.deleteErr
	}
	f.s.deleted = append(f.s.deleted, in.GetCollectionName())
	delete(f.s.vectors, in.GetCollectionName())
	return &qdrant.CollectionOperationResponse{Result: true}, nil
}

type fakePoints struct {
	qdrant.PointsClient
	s *qdrantState
}

func (f fakePoints) Upsert(_ context.Context, in *qdrant.UpsertPoints, _ ...grpc.CallOption) (*qdrant.PointsOperationResponse, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.upserts = append(f.s.upserts, in)
	if f.s.upsertErr != nil {
		return nil, f.s.upsertErr
	}
	for _, p := range in.GetPoints() {
		f.s.vectors[in.GetCollectionName()][p.GetId().GetNum()] = p.GetVectors().GetVector().GetData()
	}
	return &qdrant.PointsOperationResponse{}, nil
}

func (f fakePoints) Search(_ context.Context, in *qdrant.SearchPoints, _ ...grpc.CallOption) (*qdrant.SearchResponse, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.searches++
	var result []*qdrant.ScoredPoint
	for id, v := range f.s.vectors[in.GetCollectionName()] {
		result = append(result, &qdrant.ScoredPoint{
			Id:    &qdrant.PointId{PointIdOptions: &qdrant.PointId_Num{Num: id}},
			Score: float32(Cosine(in.GetVector(), v)),
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].GetId().GetNum() < result[j].GetId().GetNum()
	})
	if len(result) > int(in.GetLimit()) {
		result = result[:in.GetLimit()]
	}
	return &qdrant.SearchResponse{Result: result}, nil
}

func newFakeQdrant() (*QdrantFactory, *qdrantState) {
	s := &qdrantState{vectors: map[string]map[uint64][]float32{}}
	return newQdrantFactory(fakeCollections{s: s}, fakePoints{s: s}, "test-", zap.NewNop()), s
}

func TestQdrantFactory_BuildSearchClose(t *testing.T) {
	ctx := context.Background()
	f, s := newFakeQdrant()

	items := make([]Item, 250)
	for i := range items {
		items[i] = Item{ID: i, Vector: []float32{0, 1, 0}}
	}
	items[7].Vector = []float32{1, 0, 0}
	items[42].Vector = []float32{1, 0.1, 0}

	idx, err := f.Build(ctx, items)
	require.NoError(t, err)

	require.Len(t, s.created, 1)
	name := s.created[0].GetCollectionName()
	assert.True(t, strings.HasPrefix(name, "test-"), "collection %q", name)
	params := s.created[0].GetVectorsConfig().GetParams()
	assert.EqualValues(t, 3, params.GetSize())
	assert.Equal(t, qdrant.Distance_Cosine, params.GetDistance())

	require.Len(t, s.upserts, 3, "points are upserted in batches")
	assert.Len(t, s.upserts[0].GetPoints(), 100)
	assert.Len(t, s.upserts[2].GetPoints(), 50)
	assert.True(t, s.upserts[0].GetWait())

	got, err := idx.Nearest(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 7, got[0].ID)
	assert.Equal(t, 42, got[1].ID)
	assert.InDelta(t, 1.0, got[0].Score, 1e-6)

	require.NoError(t, idx.Close(ctx))
	assert.Equal(t, []string{name}, s.deleted)
	assert.NoError(t, f.Close())
}

func TestQdrantFactory_EmptyBuildSkipsQdrant(t *testing.T) {
	ctx := context.Background()
	f, s := newFakeQdrant()

	idx, err := f.Build(ctx, nil)
	require.NoError(t, err)
	got, err := idx.Nearest(ctx, []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, s.created)
}

func TestQdrantFactory_UpsertFailureDropsCollection(t *testing.T) {
	f, s := newFakeQdrant()
	s.upsertErr = errors.New("disk full")

	_, err := f.Build(context.Background(), []Item{{ID: 0, Vector: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert into test-")
	require.Len(t, s.created, 1)
	assert.Equal(t, []string{s.created[0].GetCollectionName()}, s.deleted)
}

func TestQdrantIndex_NonPositiveK(t *testing.T) {
	ctx := context.Background()
	f, s := newFakeQdrant()
	idx, err := f.Build(ctx, []Item{{ID: 0, Vector: []float32{1}}})
	require.NoError(t, err)

	got, err := idx.Nearest(ctx, []float32{1}, 0)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, s.searches)
}

func TestQdrantIndex_CloseError(t *testing.T) {
	ctx := context.Background()
	f, s := newFakeQdrant()
	idx, err := f.Build(ctx, []Item{{ID: 0, Vector: []float32{1}}})
	require.NoError(t, err)

	s.deleteErr = errors.New("unavailable")
	err = idx.Close(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete collection test-")
}
