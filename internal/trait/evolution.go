package trait

import (
	"math"
	"sync"
	"time"
)

// Evolution computes bounded personality drift from what an agent lives
// through. Drift is returned as a ProfileUpdate so profiles still change only
// through ApplyUpdate; an empty update means the experience was too small to
// move any trait.
type Evolution struct {
	// Rate is the base change rate for relationship convergence.
	Rate float64
	// MaxDailyChange caps how far a single application may move one trait,
	// on a 0-1 scale of the 0-100 range.
	MaxDailyChange float64
	// Stability maps dimensions to resistance to change in [0,1]; higher
	// values dampen drift. Missing dimensions default to 0.5.
	Stability map[string]float64

	mu      sync.Mutex
	history []Change
}

// Change records one applied drift: which traits moved and by how much.
type Change struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      string         `json:"kind"`
	Diffs     map[string]int `json:"diffs"`
}

// NewEvolution returns an evolution model with the canonical defaults:
// core dispositions shift slowly, mood-adjacent traits shift faster.
func NewEvolution() *Evolution {
	return &Evolution{
		Rate:           0.05,
		MaxDailyChange: 0.1,
		Stability: map[string]float64{
			Openness:          0.7,
			Conscientiousness: 0.8,
			Extraversion:      0.6,
			Agreeableness:     0.5,
			Neuroticism:       0.4,
			Intelligence:      0.9,
			Creativity:        0.6,
			Humor:             0.5,
		},
	}
}

// Interaction describes one conversational exchange for drift purposes.
type Interaction struct {
	Sentiment  float64  // [0,1], above 0.5 reads as positive
	Topics     []string // free-form topic tags
	HumorLevel float64  // [0,1]
	Impact     float64  // [0,1], how much weight the exchange carries
}

// Experience describes a significant one-off event.
type Experience struct {
	Type        string  // achievement, failure or new_skill
	Domain      string  // for achievements: art, music, social, ...
	SkillType   string  // for new skills: creative, social, ...
	LearnedFrom bool    // for failures
	Impact      float64 // [0,1]
}

// FromInteraction derives drift from a single exchange. Positive exchanges
// nudge extraversion and agreeableness, intellectual topics nudge openness,
// humor feeds the humor trait.
func (e *Evolution) FromInteraction(p Profile, in Interaction) ProfileUpdate {
	changes := map[string]float64{}
	if in.Sentiment > 0.5 {
		changes[Extraversion] = 0.01 * in.Impact
		changes[Agreeableness] = 0.01 * in.Impact
	}
	if hasTopic(in.Topics, "intellectual") || hasTopic(in.Topics, "philosophical") {
		changes[Openness] = 0.01 * in.Impact
		changes[Intelligence] = 0.005 * in.Impact
	}
	if hasTopic(in.Topics, "humor") || in.HumorLevel > 0.5 {
		changes[Humor] = 0.02 * in.Impact
	}
	return e.apply(p, "interaction", changes)
}

// relationshipFactors weight how strongly each relationship kind pulls each
// trait toward the partner's value.
var relationshipFactors = map[string]map[string]float64{
	"friends": {
		Extraversion:  1.2,
		Agreeableness: 1.0,
		Openness:      0.8,
		Humor:         1.5,
	},
	"dating": {
		Extraversion:  1.0,
		Agreeableness: 1.2,
		Neuroticism:   0.8,
		Openness:      1.0,
	},
	"romantic": {
		Agreeableness: 1.5,
		Neuroticism:   0.7,
		Extraversion:  1.2,
		Creativity:    1.1,
	},
	"professional": {
		Conscientiousness: 1.5,
		Intelligence:      1.2,
		Neuroticism:       0.8,
		Creativity:        1.0,
	},
	"mentorship": {
		Intelligence:      1.5,
		Conscientiousness: 1.2,
		Openness:          1.0,
		Creativity:        1.1,
	},
}

// FromRelationship derives convergence drift: traits move a little toward the
// partner's values, scaled by relationship kind, duration and intensity.
// Duration saturates at one year.
func (e *Evolution) FromRelationship(p, partner Profile, kind string, durationDays int, intensity float64) ProfileUpdate {
	duration := float64(durationDays) / 365
	if duration > 1 {
		duration = 1
	}
	base := e.Rate * intensity * duration

	factors, ok := relationshipFactors[kind]
	if !ok {
		factors = map[string]float64{}
		for _, d := range Dimensions {
			factors[d] = 1.0
		}
	}

	changes := map[string]float64{}
	for dim, factor := range factors {
		gap := float64(partner.Score(dim) - p.Score(dim))
		changes[dim] = gap / 100 * base * factor
	}
	return e.apply(p, "relationship", changes)
}

// FromExperience derives drift from a milestone event. Unknown experience
// types produce no drift.
func (e *Evolution) FromExperience(p Profile, exp Experience) ProfileUpdate {
	changes := map[string]float64{}
	switch exp.Type {
	case "achievement":
		changes[Neuroticism] = -0.02 * exp.Impact
		changes[Conscientiousness] = 0.02 * exp.Impact
		switch exp.Domain {
		case "art", "music", "writing", "innovation":
			changes[Creativity] = 0.03 * exp.Impact
			changes[Openness] = 0.01 * exp.Impact
		case "social", "leadership", "communication":
			changes[Extraversion] = 0.02 * exp.Impact
			changes[Agreeableness] = 0.01 * exp.Impact
		}
	case "failure":
		changes[Neuroticism] = 0.01 * exp.Impact
		if exp.LearnedFrom {
			changes[Conscientiousness] = 0.01 * exp.Impact
			changes[Intelligence] = 0.01 * exp.Impact
		}
	case "new_skill":
		changes[Openness] = 0.02 * exp.Impact
		changes[Intelligence] = 0.02 * exp.Impact
		switch exp.SkillType {
		case "creative", "artistic":
			changes[Creativity] = 0.03 * exp.Impact
		case "social", "communication":
			changes[Extraversion] = 0.02 * exp.Impact
			changes[Agreeableness] = 0.02 * exp.Impact
		}
	}
	return e.apply(p, "experience", changes)
}

// History returns recorded changes, optionally bounded by since/until. Zero
// times leave that side unbounded.
func (e *Evolution) History(since, until time.Time) []Change {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Change, 0, len(e.history))
	for _, c := range e.history {
		if !since.IsZero() && c.Timestamp.Before(since) {
			continue
		}
		if !until.IsZero() && c.Timestamp.After(until) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// apply dampens raw changes by per-trait stability, caps them, converts to
// whole trait points and clamps to [0,100]. Traits that round to no movement
// are left out of the update.
func (e *Evolution) apply(p Profile, kind string, changes map[string]float64) ProfileUpdate {
	update := ProfileUpdate{Traits: map[string]int{}}
	diffs := map[string]int{}

	maxStep := e.MaxDailyChange * 100
	for dim, change := range changes {
		stability, ok := e.Stability[dim]
		if !ok {
			stability = 0.5
		}
		step := change * (1 - stability) * 100
		if step > maxStep {
			step = maxStep
		}
		if step < -maxStep {
			step = -maxStep
		}

		current := p.Score(dim)
		next := current + int(math.Round(step))
		if next < 0 {
			next = 0
		}
		if next > 100 {
			next = 100
		}
		if next != current {
			update.Traits[dim] = next
			diffs[dim] = next - current
		}
	}

	if len(diffs) > 0 {
		e.mu.Lock()
		e.history = append(e.history, Change{Timestamp: time.Now(), Kind: kind, Diffs: diffs})
		e.mu.Unlock()
	}
	if len(update.Traits) == 0 {
		update.Traits = nil
	}
	return update
}

func hasTopic(topics []string, want string) bool {
	for _, t := range topics {
		if t == want {
			return true
		}
	}
	return false
}
