package embed

import (
	"context"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const qdrantUpsertBatch = 100

// QdrantFactory builds each request's index as a scratch Qdrant collection
// that is dropped when the index is closed. The gRPC connection is opened
// once and shared.
type QdrantFactory struct {
	conn        *grpc.ClientConn
	collections qdrant.CollectionsClient
	points      qdrant.PointsClient
	prefix      string
	log         *zap.Logger
}

var _ IndexFactory = (*QdrantFactory)(nil)

// NewQdrantFactory connects to the Qdrant gRPC endpoint at addr (host:6334).
func NewQdrantFactory(addr, collectionPrefix string, log *zap.Logger) (*QdrantFactory, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, eris.Wrapf(err, "embed: connect qdrant %s", addr)
	}
	f := newQdrantFactory(qdrant.NewCollectionsClient(conn), qdrant.NewPointsClient(conn), collectionPrefix, log)
	f.conn = conn
	return f, nil
}

func newQdrantFactory(collections qdrant.CollectionsClient, points qdrant.PointsClient, prefix string, log *zap.Logger) *QdrantFactory {
	if prefix == "" {
		prefix = "docqa-"
	}
	return &QdrantFactory{collections: collections, points: points, prefix: prefix, log: log}
}

// Close releases the gRPC connection.
func (f *QdrantFactory) Close() error {
	if f.conn == nil {
		return nil
	}
	return f.conn.Close()
}

func (f *QdrantFactory) Build(ctx context.Context, items []Item) (Index, error) {
	if len(items) == 0 {
		return MemoryFactory{}.Build(ctx, nil)
	}

	name := f.prefix + uuid.NewString()
	_, err := f.collections.Create(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(len(items[0].Vector)),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "embed: create collection %s", name)
	}
	idx := &qdrantIndex{factory: f, name: name}

	wait := true
	for start := 0; start < len(items); start += qdrantUpsertBatch {
		end := min(start+qdrantUpsertBatch, len(items))
		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, it := range items[start:end] {
			points = append(points, &qdrant.PointStruct{
				Id: &qdrant.PointId{
					PointIdOptions: &qdrant.PointId_Num{Num: uint64(it.ID)},
				},
				Vectors: &qdrant.Vectors{
					VectorsOptions: &qdrant.Vectors_Vector{
						Vector: &qdrant.Vector{Data: it.Vector},
					},
				},
			})
		}
		if _, err := f.points.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Wait:           &wait,
			Points:         points,
		}); err != nil {
			_ = idx.Close(context.WithoutCancel(ctx))
			return nil, eris.Wrapf(err, "embed: upsert into %s", name)
		}
	}

	f.log.Debug("qdrant index built", zap.String("collection", name), zap.Int("points", len(items)))
	return idx, nil
}

type qdrantIndex struct {
	factory *QdrantFactory
	name    string
}

func (q *qdrantIndex) Nearest(ctx context.Context, vector []float32, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}
	resp, err := q.factory.points.Search(ctx, &qdrant.SearchPoints{
		CollectionName: q.name,
		Vector:         vector,
		Limit:          uint64(k),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "embed: search %s", q.name)
	}
	out := make([]Neighbor, 0, len(resp.GetResult()))
	for _, r := range resp.GetResult() {
		out = append(out, Neighbor{
			ID:    int(r.GetId().GetNum()),
			Score: float64(r.GetScore()),
		})
	}
	return out, nil
}

func (q *qdrantIndex) Close(ctx context.Context) error {
	if _, err := q.factory.collections.Delete(ctx, &qdrant.DeleteCollection{CollectionName: q.name}); err != nil {
		q.factory.log.Warn("qdrant collection cleanup failed", zap.String("collection", q.name), zap.Error(err))
		return eris.Wrapf(err, "embed: delete collection %s", q.name)
	}
	return nil
}
