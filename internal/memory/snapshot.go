package memory

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the portable serialization of one agent's memory log.
type Snapshot struct {
	AgentID string    `json:"agent_id"`
	Records []*Record `json:"records"`
}

// Export serializes an agent's full log, oldest first, as JSON.
func (s *Store) Export(agentID string) ([]byte, error) {
	l, err := s.ledgerFor(agentID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	snap := Snapshot{AgentID: agentID, Records: make([]*Record, 0, len(l.records))}
	for _, rec := range l.records {
		snap.Records = append(snap.Records, rec.clone())
	}
	l.mu.Unlock()

	return json.Marshal(snap)
}

// Import registers the snapshot's agent if needed and replaces its log with
// the snapshot contents. Records are trusted as previously exported: order is
// kept and timestamps are not rewritten.
func (s *Store) Import(data []byte) error {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode memory snapshot: %w", err)
	}
	if snap.AgentID == "" {
		return fmt.Errorf("%w: snapshot missing agent id", ErrInvalidRecord)
	}

	s.Register(snap.AgentID)
	l, err := s.ledgerFor(snap.AgentID)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range snap.Records {
		rec.baseImportance = rec.Importance
	}
	l.records = snap.Records
	if n := len(snap.Records); n > 0 {
		l.lastTS = snap.Records[n-1].Timestamp
	}
	return nil
}

// Restore loads previously persisted records into an agent's ledger, used at
// startup to rehydrate from durable storage. Records must be oldest first.
func (s *Store) Restore(agentID string, recs []*Record) {
	s.Register(agentID)
	l, _ := s.ledgerFor(agentID)

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range recs {
		rec.baseImportance = rec.Importance
	}
	l.records = recs
	if n := len(recs); n > 0 {
		l.lastTS = recs[n-1].Timestamp
	}
}
