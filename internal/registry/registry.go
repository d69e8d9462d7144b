// Package registry tracks known agents and their trait profiles in process,
// with optional write-through to durable storage.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kindred-ai/kindred/internal/trait"
)

var (
	// ErrUnknownAgent is returned when an agent id is not registered.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrAgentExists is returned by Create when the id is already taken.
	ErrAgentExists = errors.New("agent already registered")
)

// Agent is a registered personality.
type Agent struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Profile   trait.Profile `json:"profile"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Persister mirrors agent profiles to durable storage. Failures are logged
// and never fail the in-memory write.
type Persister interface {
	SaveProfile(ctx context.Context, agent *Agent) error
}

// Registry is the in-process agent directory. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	agents    map[string]*Agent
	persister Persister
	logger    *zap.Logger
}

// New creates an empty registry.
func New(logger *zap.Logger) *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
		logger: logger,
	}
}

// SetPersister attaches durable storage. Call before serving traffic.
func (r *Registry) SetPersister(p Persister) { r.persister = p }

// Create registers a new agent. A blank id gets a generated UUID; a blank
// template starts from balanced. The update, if any, is applied on top of the
// template and validated as a whole.
func (r *Registry) Create(ctx context.Context, id, name, template string, update *trait.ProfileUpdate) (*Agent, error) {
	if name == "" {
		return nil, &trait.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if id == "" {
		id = uuid.New().String()
	}

	profile := trait.FromTemplate(template)
	if update != nil {
		var err error
		profile, err = profile.ApplyUpdate(*update)
		if err != nil {
			return nil, err
		}
	}

	r.mu.Lock()
	if _, exists := r.agents[id]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrAgentExists, id)
	}
	now := time.Now()
	agent := &Agent{ID: id, Name: name, Profile: profile, CreatedAt: now, UpdatedAt: now}
	r.agents[id] = agent
	snapshot := *agent
	r.mu.Unlock()

	r.persist(ctx, &snapshot)
	return &snapshot, nil
}

// UpdateProfile applies a partial profile update to an existing agent. The
// whole update is rejected on any invalid value.
func (r *Registry) UpdateProfile(ctx context.Context, id string, update trait.ProfileUpdate) (*Agent, error) {
	r.mu.Lock()
	agent, ok := r.agents[id]
	if !ok {
		r.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	updated, err := agent.Profile.ApplyUpdate(update)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	agent.Profile = updated
	agent.UpdatedAt = time.Now()
	snapshot := *agent
	r.mu.Unlock()

	r.persist(ctx, &snapshot)
	return &snapshot, nil
}

// Load inserts an agent as-is, used when rehydrating from storage at startup.
func (r *Registry) Load(agent *Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent
}

// Get returns a copy of a registered agent.
func (r *Registry) Get(id string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAgent, id)
	}
	snapshot := *agent
	return &snapshot, nil
}

// Exists reports whether an agent id is registered.
func (r *Registry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[id]
	return ok
}

// List returns all agents sorted by name, then id.
func (r *Registry) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		snapshot := *a
		out = append(out, &snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) persist(ctx context.Context, agent *Agent) {
	if r.persister == nil {
		return
	}
	if err := r.persister.SaveProfile(ctx, agent); err != nil {
		r.logger.Warn("profile persist failed", zap.String("agent_id", agent.ID), zap.Error(err))
	}
}
