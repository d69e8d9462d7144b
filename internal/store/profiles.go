package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kindred-ai/kindred/internal/registry"
	"github.com/kindred-ai/kindred/internal/trait"
)

// SaveProfile upserts an agent and its trait profile. Implements
// registry.Persister. Traits travel as JSON; "values" is quoted because it
// is a reserved word.
func (s *Store) SaveProfile(ctx context.Context, a *registry.Agent) error {
	traits, err := json.Marshal(a.Profile.Traits)
	if err != nil {
		return fmt.Errorf("marshal traits for %s: %w", a.ID, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO agents (id, name, traits, interests, "values", communication_style, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			traits = EXCLUDED.traits,
			interests = EXCLUDED.interests,
			"values" = EXCLUDED."values",
			communication_style = EXCLUDED.communication_style,
			updated_at = EXCLUDED.updated_at`,
		a.ID, a.Name, traits, a.Profile.Interests, a.Profile.Values,
		string(a.Profile.CommunicationStyle), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save profile %s: %w", a.ID, err)
	}
	return nil
}

// LoadAgents returns every stored agent, oldest first, for registry
// rehydration at startup.
func (s *Store) LoadAgents(ctx context.Context) ([]*registry.Agent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, traits, interests, "values", communication_style, created_at, updated_at
		FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}
	defer rows.Close()

	var agents []*registry.Agent
	for rows.Next() {
		var a registry.Agent
		var traits []byte
		var style string
		if err := rows.Scan(&a.ID, &a.Name, &traits, &a.Profile.Interests,
			&a.Profile.Values, &style, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		if err := json.Unmarshal(traits, &a.Profile.Traits); err != nil {
			return nil, fmt.Errorf("decode traits for %s: %w", a.ID, err)
		}
		a.Profile.CommunicationStyle = trait.Style(style)
		a.Profile = a.Profile.Normalize()
		agents = append(agents, &a)
	}
	return agents, rows.Err()
}
