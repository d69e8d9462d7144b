// Package relation tracks agent relationships in Neo4j. Relationship events
// recorded by the orchestrator adjust edge strength and accumulate a short
// history of what happened between an agent and a counterpart.
package relation

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

const historyCap = 20

// Relationship is one agent's bond with a counterpart.
type Relationship struct {
	AgentID        string    `json:"agent_id"`
	RelationshipID string    `json:"relationship_id"`
	Type           string    `json:"type"`
	Strength       float64   `json:"strength"` // 0-1
	History        []string  `json:"history"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Event is a relationship-affecting moment: a milestone, a conflict, a shared
// experience. Impact in [-1,1] moves edge strength.
type Event struct {
	AgentID        string  `json:"agent_id"`
	RelationshipID string  `json:"relationship_id"`
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	Impact         float64 `json:"impact"`
}

// Graph manages relationship edges stored in Neo4j.
type Graph struct {
	driver    neo4j.DriverWithContext
	decayRate float64 // strength decay per sweep
	logger    *zap.Logger
}

// NewGraph dials Neo4j and returns a relationship graph.
func NewGraph(uri, user, password string, decayRate float64, logger *zap.Logger) (*Graph, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	return &Graph{driver: driver, decayRate: decayRate, logger: logger}, nil
}

// Ping verifies the Neo4j connection.
func (g *Graph) Ping(ctx context.Context) error {
	return g.driver.VerifyConnectivity(ctx)
}

// Close shuts down the Neo4j driver.
func (g *Graph) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}

// RecordEvent merges the relationship edge and applies the event: strength
// moves by impact scaled down, clamped to [0,1], and the description joins
// the edge history.
func (g *Graph) RecordEvent(ctx context.Context, ev *Event) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MERGE (a:Agent {id: $agentId})
		 MERGE (rel:Relationship {id: $relId})
		 MERGE (a)-[r:PARTICIPATES_IN]->(rel)
		 ON CREATE SET r.strength = 0.5, r.history = [], rel.type = $type
		 SET r.strength = CASE
		       WHEN r.strength + $delta > 1.0 THEN 1.0
		       WHEN r.strength + $delta < 0.0 THEN 0.0
		       ELSE r.strength + $delta END,
		     r.history = r.history[-($cap - 1)..] + $desc,
		     r.updated_at = datetime()`,
		map[string]interface{}{
			"agentId": ev.AgentID,
			"relId":   ev.RelationshipID,
			"type":    ev.Type,
			"delta":   ev.Impact * 0.1,
			"desc":    ev.Description,
			"cap":     historyCap,
		})
	if err != nil {
		return fmt.Errorf("record relationship event: %w", err)
	}
	return nil
}

// GetRelationship returns one agent-relationship edge, or nil when none
// exists.
func (g *Graph) GetRelationship(ctx context.Context, agentID, relationshipID string) (*Relationship, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	result, err := session.Run(ctx,
		`MATCH (a:Agent {id: $agentId})-[r:PARTICIPATES_IN]->(rel:Relationship {id: $relId})
		 RETURN rel.type, r.strength, r.history`,
		map[string]interface{}{"agentId": agentID, "relId": relationshipID})
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", err)
	}
	if !result.Next(ctx) {
		return nil, nil
	}
	rec := result.Record()
	relType, _ := rec.Get("rel.type")
	strength, _ := rec.Get("r.strength")
	history, _ := rec.Get("r.history")

	var hist []string
	if h, ok := history.([]interface{}); ok {
		for _, v := range h {
			if s, ok := v.(string); ok {
				hist = append(hist, s)
			}
		}
	}

	out := &Relationship{
		AgentID:        agentID,
		RelationshipID: relationshipID,
		History:        hist,
	}
	if s, ok := relType.(string); ok {
		out.Type = s
	}
	if f, ok := strength.(float64); ok {
		out.Strength = f
	}
	return out, nil
}

// DecaySweep weakens every edge by the configured decay rate, flooring at
// zero. Run periodically so neglected relationships fade.
func (g *Graph) DecaySweep(ctx context.Context) error {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.Run(ctx,
		`MATCH (:Agent)-[r:PARTICIPATES_IN]->(:Relationship)
		 SET r.strength = CASE
		       WHEN r.strength - $decay < 0.0 THEN 0.0
		       ELSE r.strength - $decay END`,
		map[string]interface{}{"decay": g.decayRate})
	if err != nil {
		return fmt.Errorf("decay sweep: %w", err)
	}
	return nil
}
