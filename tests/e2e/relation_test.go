//go:build e2e

package e2e

import (
	"context"
	"math"
	"testing"

	"github.com/kindred-ai/kindred/internal/relation"
)

func TestRelationshipEventRoundTrip(t *testing.T) {
	ctx := context.Background()

	if err := testGraph.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	err := testGraph.RecordEvent(ctx, &relation.Event{
		AgentID:        "graph-agent",
		RelationshipID: "rel-1",
		Type:           "friends",
		Description:    "met at the spring festival",
		Impact:         1.0,
	})
	if err != nil {
		t.Fatalf("record first event: %v", err)
	}

	rel, err := testGraph.GetRelationship(ctx, "graph-agent", "rel-1")
	if err != nil {
		t.Fatalf("get relationship: %v", err)
	}
	if rel == nil {
		t.Fatal("relationship missing after event")
	}
	// New edges start at 0.5; impact 1.0 moves strength by 0.1.
	if math.Abs(rel.Strength-0.6) > 0.001 {
		t.Errorf("strength after first event: %f, want 0.6", rel.Strength)
	}
	if rel.Type != "friends" {
		t.Errorf("type lost: %q", rel.Type)
	}
	if len(rel.History) != 1 || rel.History[0] != "met at the spring festival" {
		t.Errorf("history after first event: %v", rel.History)
	}

	err = testGraph.RecordEvent(ctx, &relation.Event{
		AgentID:        "graph-agent",
		RelationshipID: "rel-1",
		Type:           "friends",
		Description:    "argued about the harvest",
		Impact:         -0.5,
	})
	if err != nil {
		t.Fatalf("record second event: %v", err)
	}

	rel, err = testGraph.GetRelationship(ctx, "graph-agent", "rel-1")
	if err != nil {
		t.Fatalf("get after second event: %v", err)
	}
	if math.Abs(rel.Strength-0.55) > 0.001 {
		t.Errorf("strength after second event: %f, want 0.55", rel.Strength)
	}
	if len(rel.History) != 2 || rel.History[1] != "argued about the harvest" {
		t.Errorf("history not appended in order: %v", rel.History)
	}
}

func TestGetRelationshipAbsentIsNil(t *testing.T) {
	rel, err := testGraph.GetRelationship(context.Background(), "graph-agent", "no-such-rel")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rel != nil {
		t.Errorf("expected nil for an absent edge, got %+v", rel)
	}
}

func TestDecaySweepWeakensEdges(t *testing.T) {
	ctx := context.Background()

	err := testGraph.RecordEvent(ctx, &relation.Event{
		AgentID:        "decay-agent",
		RelationshipID: "rel-decay",
		Type:           "friends",
		Description:    "shared a meal",
		Impact:         0,
	})
	if err != nil {
		t.Fatalf("record event: %v", err)
	}

	before, err := testGraph.GetRelationship(ctx, "decay-agent", "rel-decay")
	if err != nil {
		t.Fatalf("get before sweep: %v", err)
	}
	if err := testGraph.DecaySweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	after, err := testGraph.GetRelationship(ctx, "decay-agent", "rel-decay")
	if err != nil {
		t.Fatalf("get after sweep: %v", err)
	}
	// The graph is configured with a 0.05 decay per sweep.
	if math.Abs((before.Strength-after.Strength)-0.05) > 0.001 {
		t.Errorf("sweep moved strength %f -> %f, want a 0.05 drop", before.Strength, after.Strength)
	}
}
