package trait

import (
	"testing"
	"time"
)

func TestInteractionHumorDrift(t *testing.T) {
	e := NewEvolution()
	p := FromTemplate("balanced")

	update := e.FromInteraction(p, Interaction{Topics: []string{"humor"}, Impact: 1})
	evolved, err := p.ApplyUpdate(update)
	if err != nil {
		t.Fatalf("apply drift: %v", err)
	}
	if evolved.Score(Humor) != 51 {
		t.Errorf("expected humor 51 after a humorous exchange, got %d", evolved.Score(Humor))
	}
	if p.Score(Humor) != 50 {
		t.Errorf("drift must not mutate the input profile, got %d", p.Score(Humor))
	}
}

func TestStableTraitsResistSingleConversations(t *testing.T) {
	e := NewEvolution()
	p := FromTemplate("balanced")

	update := e.FromInteraction(p, Interaction{Topics: []string{"intellectual"}, Impact: 1})
	if len(update.Traits) != 0 {
		t.Errorf("one intellectual chat should not move high-stability traits, got %v", update.Traits)
	}
}

func TestDriftCappedPerApplication(t *testing.T) {
	e := &Evolution{
		MaxDailyChange: 0.02,
		Stability:      map[string]float64{Creativity: 0},
	}
	p := FromTemplate("balanced")

	update := e.FromExperience(p, Experience{Type: "achievement", Domain: "art", Impact: 1})
	if update.Traits[Creativity] != 52 {
		t.Errorf("creativity step should cap at 2 points, got %d", update.Traits[Creativity])
	}
}

func TestRelationshipConvergesTowardPartner(t *testing.T) {
	e := NewEvolution()
	own, err := FromTemplate("balanced").ApplyUpdate(ProfileUpdate{Traits: map[string]int{Agreeableness: 20}})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	partner, err := FromTemplate("balanced").ApplyUpdate(ProfileUpdate{Traits: map[string]int{Agreeableness: 100}})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	update := e.FromRelationship(own, partner, "romantic", 365, 1)
	if update.Traits[Agreeableness] != 23 {
		t.Errorf("expected agreeableness to converge to 23, got %d", update.Traits[Agreeableness])
	}
	for dim, v := range update.Traits {
		if dim != Agreeableness {
			t.Errorf("no other trait should move with zero gaps: %s=%d", dim, v)
		}
	}
}

func TestDriftClampsAtRangeEdge(t *testing.T) {
	e := NewEvolution()
	p, err := FromTemplate("balanced").ApplyUpdate(ProfileUpdate{Traits: map[string]int{Neuroticism: 100}})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	update := e.FromExperience(p, Experience{Type: "failure", Impact: 1})
	if _, ok := update.Traits[Neuroticism]; ok {
		t.Errorf("neuroticism already at 100 must not move, got %v", update.Traits)
	}
}

func TestEvolutionHistoryRecordsDiffs(t *testing.T) {
	e := NewEvolution()
	p := FromTemplate("balanced")

	e.FromInteraction(p, Interaction{Topics: []string{"humor"}, Impact: 1})

	all := e.History(time.Time{}, time.Time{})
	if len(all) != 1 {
		t.Fatalf("expected 1 change record, got %d", len(all))
	}
	if all[0].Kind != "interaction" || all[0].Diffs[Humor] != 1 {
		t.Errorf("unexpected change record: %+v", all[0])
	}

	future := e.History(time.Now().Add(time.Hour), time.Time{})
	if len(future) != 0 {
		t.Errorf("future window should be empty, got %d", len(future))
	}
}
