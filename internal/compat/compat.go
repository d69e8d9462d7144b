// Package compat scores how well two trait profiles align. Compute is a pure
// function: no I/O, no shared state, deterministic for a given input pair.
package compat

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kindred-ai/kindred/internal/trait"
)

// Result is the transient outcome of a compatibility computation. It is
// returned to callers and never persisted by this engine.
type Result struct {
	OverallScore          int      `json:"overall_score"`
	TraitCompatibility    int      `json:"trait_compatibility"`
	InterestCompatibility int      `json:"interest_compatibility"`
	ValuesCompatibility   int      `json:"values_compatibility"`
	MatchQuality          string   `json:"match_quality"`
	ComplementaryTraits   []string `json:"complementary_traits"`
	SimilarTraits         []string `json:"similar_traits"`
	PotentialChallenges   []string `json:"potential_challenges"`
	SharedInterests       []string `json:"shared_interests"`
	SharedValues          []string `json:"shared_values"`
	CommunicationCompat   Label    `json:"communication_compatibility"`
}

// InvalidProfileError reports that a compatibility input failed profile
// validation. No partial result is produced.
type InvalidProfileError struct {
	Which string // "first" or "second"
	Cause error
}

func (e *InvalidProfileError) Error() string {
	return fmt.Sprintf("%s profile invalid: %v", e.Which, e.Cause)
}

func (e *InvalidProfileError) Unwrap() error { return e.Cause }

// Compute scores two profiles with the default ruleset.
func Compute(a, b trait.Profile) (*Result, error) {
	return ComputeWithRules(a, b, DefaultRules())
}

// ComputeWithRules scores two profiles under the given ruleset. Both inputs
// must satisfy profile validation; empty interest or value sets are valid and
// score the configured floor.
func ComputeWithRules(a, b trait.Profile, rules Ruleset) (*Result, error) {
	if err := a.Validate(); err != nil {
		return nil, &InvalidProfileError{Which: "first", Cause: err}
	}
	if err := b.Validate(); err != nil {
		return nil, &InvalidProfileError{Which: "second", Cause: err}
	}
	a = a.Normalize()
	b = b.Normalize()

	res := &Result{
		ComplementaryTraits: []string{},
		SimilarTraits:       []string{},
		PotentialChallenges: []string{},
	}

	res.TraitCompatibility = scoreTraits(a, b, rules, res)
	res.InterestCompatibility, res.SharedInterests = scoreOverlap(a.Interests, b.Interests, rules.InterestFloor)
	res.ValuesCompatibility, res.SharedValues = scoreOverlap(a.Values, b.Values, rules.ValuesFloor)
	res.CommunicationCompat = StyleCompatibility(a.CommunicationStyle, b.CommunicationStyle)

	commScore := rules.CommunicationScores[res.CommunicationCompat]
	overall := rules.TraitWeight*float64(res.TraitCompatibility) +
		rules.InterestWeight*float64(res.InterestCompatibility) +
		rules.ValuesWeight*float64(res.ValuesCompatibility) +
		rules.CommunicationWeight*float64(commScore)
	res.OverallScore = clampScore(int(math.Round(overall)))
	res.MatchQuality = matchQuality(res.OverallScore, rules.QualityBuckets)

	return res, nil
}

// scoreTraits classifies every canonical dimension as similar, complementary
// or challenging and aggregates the classifications into a 0-100 score.
// Iteration follows the canonical dimension order so the explanatory lists
// are deterministic.
func scoreTraits(a, b trait.Profile, rules Ruleset, res *Result) int {
	score := rules.Baseline
	for _, d := range trait.Dimensions {
		diff := a.Score(d) - b.Score(d)
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff <= rules.SimilarityThreshold:
			res.SimilarTraits = append(res.SimilarTraits, d)
			score += rules.SimilarCredit
		case rules.ComplementaryTraits[d] && diff >= rules.ComplementaryGap:
			res.ComplementaryTraits = append(res.ComplementaryTraits, d)
			score += rules.ComplementaryCredit
		case diff >= rules.ChallengeGap:
			res.PotentialChallenges = append(res.PotentialChallenges, challengeNote(d))
			score -= rules.ChallengePenalty
		}
	}
	return clampScore(score)
}

func challengeNote(dimension string) string {
	if note, ok := challengeNotes[dimension]; ok {
		return note
	}
	return "large " + dimension + " gap"
}

// scoreOverlap computes Jaccard overlap of two case-folded string sets,
// scaled to 0-100 with a floor so zero overlap is not an automatic failure.
// Shared entries keep the first set's display form, sorted for determinism.
func scoreOverlap(setA, setB []string, floor int) (int, []string) {
	folded := make(map[string]string, len(setA))
	for _, it := range setA {
		folded[strings.ToLower(it)] = it
	}

	union := make(map[string]bool, len(setA)+len(setB))
	for _, it := range setA {
		union[strings.ToLower(it)] = true
	}

	shared := []string{}
	for _, it := range setB {
		key := strings.ToLower(it)
		if display, ok := folded[key]; ok {
			shared = append(shared, display)
		}
		union[key] = true
	}
	sort.Strings(shared)

	score := 0
	if len(union) > 0 {
		score = int(math.Round(100 * float64(len(shared)) / float64(len(union))))
	}
	if score < floor {
		score = floor
	}
	return clampScore(score), shared
}

func matchQuality(score int, buckets []QualityBucket) string {
	for _, b := range buckets {
		if score >= b.Min {
			return b.Label
		}
	}
	return "Incompatible"
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
