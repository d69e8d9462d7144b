package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnknownAgent is returned for operations against an unregistered agent.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrInvalidRecord is returned when an append carries empty content or an
	// unknown record type.
	ErrInvalidRecord = errors.New("invalid memory record")
)

// Persister mirrors accepted records to durable storage. Persist failures are
// logged and never fail the append.
type Persister interface {
	SaveMemory(ctx context.Context, rec *Record) error
}

// DecayConfig shapes the recency factor used in search ranking: exponential
// decay with the given half-life, never dropping below the floor.
type DecayConfig struct {
	HalfLifeHours float64
	Floor         float64
}

// DefaultDecay halves recency weight weekly.
var DefaultDecay = DecayConfig{HalfLifeHours: 168, Floor: 0.05}

// SearchWeights blend the ranking signals. They should sum to 1.
type SearchWeights struct {
	Relevance  float64
	Importance float64
	Recency    float64
	Access     float64
}

// DefaultSearchWeights are the canonical ranking weights.
var DefaultSearchWeights = SearchWeights{Relevance: 0.40, Importance: 0.30, Recency: 0.20, Access: 0.10}

// ledger is one agent's append-only log.
type ledger struct {
	mu      sync.Mutex
	records []*Record
	lastTS  time.Time
}

// Store keeps per-agent memory ledgers in process. All methods are safe for
// concurrent use; Search serializes per agent because it mutates retrieval
// bookkeeping on the records it returns.
type Store struct {
	mu     sync.RWMutex
	agents map[string]*ledger

	heuristic Heuristic
	scorer    Scorer
	lexical   LexicalScorer
	persister Persister
	decay     DecayConfig
	weights   SearchWeights
	logger    *zap.Logger
	now       func() time.Time
}

// NewStore creates a memory store with the default heuristic, lexical scorer
// and decay settings.
func NewStore(logger *zap.Logger) *Store {
	return &Store{
		agents:    make(map[string]*ledger),
		heuristic: DefaultHeuristic{},
		scorer:    LexicalScorer{},
		decay:     DefaultDecay,
		weights:   DefaultSearchWeights,
		logger:    logger,
		now:       time.Now,
	}
}

// SetHeuristic replaces the importance heuristic for subsequent appends.
func (s *Store) SetHeuristic(h Heuristic) { s.heuristic = h }

// SetScorer replaces the relevance scorer for subsequent searches.
func (s *Store) SetScorer(sc Scorer) { s.scorer = sc }

// SetPersister attaches durable storage. Call before serving traffic.
func (s *Store) SetPersister(p Persister) { s.persister = p }

// SetDecay replaces the recency decay configuration.
func (s *Store) SetDecay(d DecayConfig) { s.decay = d }

// Register creates an empty ledger for an agent. Registering an existing
// agent is a no-op.
func (s *Store) Register(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[agentID]; !ok {
		s.agents[agentID] = &ledger{}
	}
}

// Forget drops an agent's ledger entirely.
func (s *Store) Forget(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, agentID)
}

func (s *Store) ledgerFor(agentID string) (*ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, agentID)
	}
	return l, nil
}

// Append adds a record to an agent's log. The stored timestamp is strictly
// greater than every earlier record's, so per-agent order is total even when
// appends land within clock resolution. Importance always comes from the
// configured heuristic.
func (s *Store) Append(ctx context.Context, agentID, content string, typ RecordType, meta Metadata) (*Record, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidRecord)
	}
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidRecord, typ)
	}
	l, err := s.ledgerFor(agentID)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:       uuid.New().String(),
		AgentID:  agentID,
		Content:  content,
		Type:     typ,
		Metadata: meta,
	}
	rec.Importance = s.heuristic.Importance(rec)
	rec.baseImportance = rec.Importance

	l.mu.Lock()
	ts := s.now()
	if !ts.After(l.lastTS) {
		ts = l.lastTS.Add(time.Nanosecond)
	}
	l.lastTS = ts
	rec.Timestamp = ts
	rec.LastAccessed = ts
	l.records = append(l.records, rec)
	l.mu.Unlock()

	if err := s.scorer.Index(ctx, rec); err != nil {
		s.logger.Warn("memory index failed", zap.String("agent_id", agentID), zap.Error(err))
	}
	if s.persister != nil {
		if err := s.persister.SaveMemory(ctx, rec); err != nil {
			s.logger.Warn("memory persist failed", zap.String("agent_id", agentID), zap.Error(err))
		}
	}
	return rec.clone(), nil
}

// List returns up to limit records, most recent first, optionally filtered
// by type (blank matches all). A non-positive limit returns everything.
// List is a pure read: no bookkeeping changes.
func (s *Store) List(agentID string, typ RecordType, limit int) ([]*Record, error) {
	l, err := s.ledgerFor(agentID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*Record
	for i := len(l.records) - 1; i >= 0; i-- {
		if typ != "" && l.records[i].Type != typ {
			continue
		}
		out = append(out, l.records[i].clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if out == nil {
		out = []*Record{}
	}
	return out, nil
}

// Count returns the number of records in an agent's log.
func (s *Store) Count(agentID string) (int, error) {
	l, err := s.ledgerFor(agentID)
	if err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records), nil
}

// Search ranks an agent's records against a query and returns the top limit
// hits, optionally restricted to one record type (blank matches all). The
// returned records have their access bookkeeping already updated: access
// count incremented, last-accessed set, and a small importance boost applied,
// all mirrored to the persister when one is attached. Ranking reads the
// append-time importance and an uncapped linear access term; every returned
// record gains the same ranking delta per hit, so two identical searches with
// no intervening append return the same order. The per-agent lock is held
// through the bookkeeping so two concurrent searches cannot interleave.
func (s *Store) Search(ctx context.Context, agentID, query string, typ RecordType, limit int) ([]*Record, error) {
	l, err := s.ledgerFor(agentID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}

	l.mu.Lock()
	pool := make([]*Record, 0, len(l.records))
	for _, rec := range l.records {
		if typ != "" && rec.Type != typ {
			continue
		}
		pool = append(pool, rec)
	}
	if len(pool) == 0 {
		l.mu.Unlock()
		return []*Record{}, nil
	}

	relevance, err := s.scorer.Score(ctx, query, pool)
	if err != nil {
		s.logger.Warn("relevance scorer failed, falling back to lexical",
			zap.String("agent_id", agentID), zap.Error(err))
		relevance, _ = s.lexical.Score(ctx, query, pool)
	}

	now := s.now()
	type ranked struct {
		rec   *Record
		score float64
		idx   int
	}
	candidates := make([]ranked, len(pool))
	for i, rec := range pool {
		score := s.weights.Relevance*relevance[rec.ID] +
			s.weights.Importance*rec.baseImportance +
			s.weights.Recency*s.recencyFactor(now.Sub(rec.Timestamp)) +
			s.weights.Access*float64(rec.AccessCount)/10
		candidates[i] = ranked{rec: rec, score: score, idx: i}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if !candidates[i].rec.Timestamp.Equal(candidates[j].rec.Timestamp) {
			return candidates[i].rec.Timestamp.After(candidates[j].rec.Timestamp)
		}
		return candidates[i].idx < candidates[j].idx
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	out := make([]*Record, 0, limit)
	for _, c := range candidates[:limit] {
		c.rec.AccessCount++
		c.rec.LastAccessed = now
		c.rec.Importance = math.Min(1.0, c.rec.Importance+0.01)
		out = append(out, c.rec.clone())
	}
	l.mu.Unlock()

	if s.persister != nil {
		for _, rec := range out {
			if err := s.persister.SaveMemory(ctx, rec); err != nil {
				s.logger.Warn("memory bookkeeping persist failed",
					zap.String("agent_id", agentID), zap.Error(err))
			}
		}
	}
	return out, nil
}

func (s *Store) recencyFactor(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	halfLife := s.decay.HalfLifeHours
	if halfLife <= 0 {
		return 1
	}
	f := math.Exp(-math.Ln2 * age.Hours() / halfLife)
	if f < s.decay.Floor {
		return s.decay.Floor
	}
	return f
}
