package vector

import (
	"context"
	"fmt"
	"sync"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	payloadContent   = "content"
	payloadNamespace = "namespace"
	payloadMetadata  = "metadata"
)

// QdrantConfig holds Qdrant configuration
type QdrantConfig struct {
	Addr         string `toml:"addr"`
	Collection   string `toml:"collection"`
	EmbeddingDim int    `toml:"embedding_dim"`
}

// Validate checks Qdrant configuration
func (c *QdrantConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.Collection == "" {
		return fmt.Errorf("collection is required")
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding_dim must be positive")
	}
	return nil
}

// QdrantStore implements Store over the Qdrant gRPC API.
// The collection is created on first upsert when missing.
type QdrantStore struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
	dim         int

	mu      sync.Mutex
	ensured bool
}

var _ Store = (*QdrantStore)(nil)

// NewQdrantStore creates a QdrantStore connected to the given gRPC address
func NewQdrantStore(cfg QdrantConfig) (*QdrantStore, error) {
	conn, err := grpc.NewClient(cfg.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial qdrant %s: %w", cfg.Addr, err)
	}

	return &QdrantStore{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  cfg.Collection,
		dim:         cfg.EmbeddingDim,
	}, nil
}

// EnsureCollection creates the collection if it doesn't exist
func (s *QdrantStore) EnsureCollection(ctx context.Context) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(s.dim),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert writes points keyed by record ID; IDs must be UUIDs
func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	if err := s.ensureCollectionOnce(ctx); err != nil {
		return err
	}

	points := make([]*pb.PointStruct, len(records))
	for i, r := range records {
		if len(r.Embedding) != s.dim {
			return fmt.Errorf("record %s: embedding has %d dimensions, collection expects %d", r.ID, len(r.Embedding), s.dim)
		}

		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: r.ID},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: r.Embedding},
				},
			},
			Payload: recordPayload(r),
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upsert %d points: %w", len(records), err)
	}
	return nil
}

func (s *QdrantStore) ensureCollectionOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensured {
		return nil
	}
	if err := s.EnsureCollection(ctx); err != nil {
		return err
	}
	s.ensured = true
	return nil
}

// Search performs k-NN similarity search within the query namespace
func (s *QdrantStore) Search(ctx context.Context, query Query) ([]Match, error) {
	must := []*pb.Condition{fieldMatch(payloadNamespace, query.Namespace)}
	for k, v := range query.Filter {
		must = append(must, fieldMatch(payloadMetadata+"."+k, v))
	}

	resp, err := s.points.Search(ctx, &pb.SearchPoints{
		CollectionName: s.collection,
		Vector:         query.Embedding,
		Limit:          uint64(limitOf(query)),
		Filter:         &pb.Filter{Must: must},
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	matches := make([]Match, len(resp.GetResult()))
	for i, r := range resp.GetResult() {
		matches[i] = pointMatch(r)
	}
	return matches, nil
}

// Close closes the underlying gRPC connection
func (s *QdrantStore) Close() error {
	return s.conn.Close()
}

func recordPayload(r Record) map[string]*pb.Value {
	meta := make(map[string]*pb.Value, len(r.Metadata))
	for k, v := range r.Metadata {
		meta[k] = stringValue(v)
	}

	return map[string]*pb.Value{
		payloadContent:   stringValue(r.Content),
		payloadNamespace: stringValue(r.Namespace),
		payloadMetadata:  {Kind: &pb.Value_StructValue{StructValue: &pb.Struct{Fields: meta}}},
	}
}

func pointMatch(r *pb.ScoredPoint) Match {
	m := Match{
		ID:       r.GetId().GetUuid(),
		Score:    float64(r.GetScore()),
		Metadata: make(map[string]string),
	}

	payload := r.GetPayload()
	m.Content = payload[payloadContent].GetStringValue()
	for k, v := range payload[payloadMetadata].GetStructValue().GetFields() {
		m.Metadata[k] = v.GetStringValue()
	}
	return m
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func fieldMatch(key, value string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: key,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}
