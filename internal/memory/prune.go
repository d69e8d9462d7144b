package memory

import "sort"

// retentionScore values a record for keeping during a prune: importance,
// recency, emotional weight and a capped access bonus.
func (s *Store) retentionScore(rec *Record) float64 {
	emotional := rec.Metadata.EmotionalImpact
	if emotional < 0 {
		emotional = -emotional
	}
	access := float64(rec.AccessCount) * 0.01
	if access > 0.1 {
		access = 0.1
	}
	return 0.4*rec.Importance +
		0.3*s.recencyFactor(s.now().Sub(rec.Timestamp)) +
		0.2*emotional +
		access
}

// PruneSweep trims an agent's log down to maxRecords, dropping the lowest
// retention scores. Kept records stay in chronological order. Returns how
// many records were removed.
func (s *Store) PruneSweep(agentID string, maxRecords int) (int, error) {
	l, err := s.ledgerFor(agentID)
	if err != nil {
		return 0, err
	}
	if maxRecords <= 0 {
		return 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	excess := len(l.records) - maxRecords
	if excess <= 0 {
		return 0, nil
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(l.records))
	for i, rec := range l.records {
		scores[i] = scored{idx: i, score: s.retentionScore(rec)}
	}
	// Lowest retention first; older loses ties.
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score < scores[j].score
		}
		return scores[i].idx < scores[j].idx
	})

	drop := make(map[int]bool, excess)
	for _, sc := range scores[:excess] {
		drop[sc.idx] = true
	}
	kept := make([]*Record, 0, maxRecords)
	for i, rec := range l.records {
		if !drop[i] {
			kept = append(kept, rec)
		}
	}
	l.records = kept
	return excess, nil
}
