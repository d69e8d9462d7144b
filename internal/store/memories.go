package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kindred-ai/kindred/internal/memory"
)

// SaveMemory upserts a memory record. Implements memory.Persister. Upsert
// rather than insert because search bookkeeping rewrites importance and
// access fields on existing rows.
func (s *Store) SaveMemory(ctx context.Context, rec *memory.Record) error {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata for %s: %w", rec.ID, err)
	}
	var lastAccessed interface{}
	if !rec.LastAccessed.IsZero() {
		lastAccessed = rec.LastAccessed
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO memories (id, agent_id, content, type, ts, importance, last_accessed, access_count, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			importance = EXCLUDED.importance,
			last_accessed = EXCLUDED.last_accessed,
			access_count = EXCLUDED.access_count`,
		rec.ID, rec.AgentID, rec.Content, string(rec.Type), rec.Timestamp,
		rec.Importance, lastAccessed, rec.AccessCount, meta,
	)
	if err != nil {
		return fmt.Errorf("save memory %s: %w", rec.ID, err)
	}
	return nil
}

// LoadMemories returns an agent's records oldest first, for rehydrating the
// in-process store at startup.
func (s *Store) LoadMemories(ctx context.Context, agentID string) ([]*memory.Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, agent_id, content, type, ts, importance, COALESCE(last_accessed, 'epoch'::timestamptz), access_count, metadata
		FROM memories WHERE agent_id = $1 ORDER BY ts`, agentID)
	if err != nil {
		return nil, fmt.Errorf("load memories for %s: %w", agentID, err)
	}
	defer rows.Close()

	var recs []*memory.Record
	for rows.Next() {
		var rec memory.Record
		var typ string
		var meta []byte
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.Content, &typ, &rec.Timestamp,
			&rec.Importance, &rec.LastAccessed, &rec.AccessCount, &meta); err != nil {
			return nil, fmt.Errorf("scan memory: %w", err)
		}
		rec.Type = memory.RecordType(typ)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", rec.ID, err)
			}
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// CountMemories returns the number of stored records for an agent.
func (s *Store) CountMemories(ctx context.Context, agentID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM memories WHERE agent_id = $1`, agentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count memories for %s: %w", agentID, err)
	}
	return n, nil
}
