package semantic

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kindred-ai/kindred/internal/memory"
)

const defaultCollection = "kindred_memories"

// Scorer implements memory.Scorer on top of embeddings and Qdrant. Records
// are embedded and upserted at append time; queries are embedded and matched
// against the agent's vectors.
type Scorer struct {
	provider   Provider
	client     *VectorClient
	collection string
	logger     *zap.Logger
}

// NewScorer wires the embedding provider and vector client together and
// ensures the backing collection exists.
func NewScorer(ctx context.Context, provider Provider, client *VectorClient, logger *zap.Logger) (*Scorer, error) {
	s := &Scorer{
		provider:   provider,
		client:     client,
		collection: defaultCollection,
		logger:     logger,
	}
	dim := provider.Dimension()
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be configured")
	}
	if err := client.EnsureCollection(ctx, s.collection, uint64(dim)); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return s, nil
}

// Index embeds a record's content and upserts it into the collection.
func (s *Scorer) Index(ctx context.Context, rec *memory.Record) error {
	vectors, err := s.provider.Embed(ctx, []string{rec.Content})
	if err != nil {
		return fmt.Errorf("embed record: %w", err)
	}
	if len(vectors) == 0 {
		return fmt.Errorf("embed record: no vector returned")
	}
	return s.client.UpsertMemory(ctx, s.collection, rec.ID, rec.AgentID, vectors[0])
}

// Score embeds the query and maps cosine similarity hits back onto record
// IDs. Records without a hit score zero.
func (s *Scorer) Score(ctx context.Context, query string, recs []*memory.Record) (map[string]float64, error) {
	scores := make(map[string]float64, len(recs))
	for _, rec := range recs {
		scores[rec.ID] = 0
	}
	if len(recs) == 0 || query == "" {
		return scores, nil
	}

	vectors, err := s.provider.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed query: no vector returned")
	}

	hits, err := s.client.SearchMemories(ctx, s.collection, recs[0].AgentID, vectors[0], uint64(len(recs)))
	if err != nil {
		return nil, err
	}
	for _, hit := range hits {
		if _, ok := scores[hit.MemoryID]; ok {
			scores[hit.MemoryID] = clampScore(float64(hit.Score))
		}
	}
	return scores, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
