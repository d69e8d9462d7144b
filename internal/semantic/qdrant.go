package semantic

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// QdrantConfig holds connection settings for a Qdrant instance.
type QdrantConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// VectorClient wraps gRPC connections to Qdrant's collections and points
// services, scoped to memory vectors.
type VectorClient struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
}

// NewVectorClient dials the Qdrant gRPC endpoint.
func NewVectorClient(cfg QdrantConfig) (*VectorClient, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant connect %s: %w", addr, err)
	}
	return &VectorClient{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
	}, nil
}

// EnsureCollection creates the named collection if it does not already exist.
func (c *VectorClient) EnsureCollection(ctx context.Context, name string, dimension uint64) error {
	_, err := c.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
	if err == nil {
		return nil
	}
	_, err = c.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     dimension,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

// UpsertMemory stores one memory vector tagged with its owning agent.
func (c *VectorClient) UpsertMemory(ctx context.Context, collection, memoryID, agentID string, vector []float32) error {
	_, err := c.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Points: []*pb.PointStruct{
			{
				Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: memoryID}},
				Vectors: &pb.Vectors{VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vector}}},
				Payload: map[string]*pb.Value{
					"agent_id":  {Kind: &pb.Value_StringValue{StringValue: agentID}},
					"memory_id": {Kind: &pb.Value_StringValue{StringValue: memoryID}},
				},
			},
		},
	})
	return err
}

// MemoryHit is a single vector search hit.
type MemoryHit struct {
	MemoryID string
	Score    float32
}

// SearchMemories runs a nearest-neighbor search restricted to one agent's
// memories and returns the top-K hits.
func (c *VectorClient) SearchMemories(ctx context.Context, collection, agentID string, vector []float32, topK uint64) ([]MemoryHit, error) {
	resp, err := c.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         vector,
		Limit:          topK,
		WithPayload:    &pb.WithPayloadSelector{SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true}},
		Filter: &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: "agent_id",
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{Keyword: agentID},
							},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}

	hits := make([]MemoryHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		id := r.Id.GetUuid()
		if v, ok := r.Payload["memory_id"]; ok {
			if sv, ok := v.Kind.(*pb.Value_StringValue); ok {
				id = sv.StringValue
			}
		}
		hits = append(hits, MemoryHit{MemoryID: id, Score: r.Score})
	}
	return hits, nil
}

// Close tears down the underlying gRPC connection.
func (c *VectorClient) Close() error {
	return c.conn.Close()
}
