package compat

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/kindred-ai/kindred/internal/trait"
)

func profileWith(traits map[string]int, interests, values []string, style trait.Style) trait.Profile {
	return trait.Profile{
		Traits:             traits,
		Interests:          interests,
		Values:             values,
		CommunicationStyle: style,
	}.Normalize()
}

func TestComputeSymmetry(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	interestPool := []string{"art", "math", "chess", "hiking", "music", "poetry"}
	for i := 0; i < 50; i++ {
		a := profileWith(trait.RandomTraits(r), interestPool[:r.Intn(4)], interestPool[2:2+r.Intn(3)], trait.Styles[r.Intn(len(trait.Styles))])
		b := profileWith(trait.RandomTraits(r), interestPool[r.Intn(3):4], interestPool[:r.Intn(4)], trait.Styles[r.Intn(len(trait.Styles))])

		ab, err := Compute(a, b)
		if err != nil {
			t.Fatalf("compute a,b: %v", err)
		}
		ba, err := Compute(b, a)
		if err != nil {
			t.Fatalf("compute b,a: %v", err)
		}
		if ab.OverallScore != ba.OverallScore {
			t.Fatalf("overall not symmetric: %d vs %d", ab.OverallScore, ba.OverallScore)
		}
		if ab.TraitCompatibility != ba.TraitCompatibility ||
			ab.InterestCompatibility != ba.InterestCompatibility ||
			ab.ValuesCompatibility != ba.ValuesCompatibility {
			t.Fatalf("sub-scores not symmetric: %+v vs %+v", ab, ba)
		}
		if ab.CommunicationCompat != ba.CommunicationCompat {
			t.Fatalf("communication label not symmetric: %s vs %s", ab.CommunicationCompat, ba.CommunicationCompat)
		}
	}
}

func TestSelfCompatibilityIsHigh(t *testing.T) {
	p := profileWith(trait.Templates["creative"],
		[]string{"art", "music"}, []string{"honesty", "growth"}, trait.StyleExpressive)
	res, err := Compute(p, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OverallScore < 90 {
		t.Errorf("self-compatibility should be near maximum, got %d", res.OverallScore)
	}
	if res.MatchQuality != "Exceptional" {
		t.Errorf("expected Exceptional, got %q", res.MatchQuality)
	}
}

func TestIdenticalBalancedProfilesAreExceptional(t *testing.T) {
	a := profileWith(trait.Templates["balanced"], []string{"art", "math"}, []string{"honesty"}, trait.StyleBalanced)
	b := profileWith(trait.Templates["balanced"], []string{"art", "math"}, []string{"honesty"}, trait.StyleBalanced)

	res, err := Compute(a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OverallScore < 90 {
		t.Errorf("expected overall >= 90, got %d", res.OverallScore)
	}
	if res.MatchQuality != "Exceptional" {
		t.Errorf("expected Exceptional, got %q", res.MatchQuality)
	}
	if len(res.SimilarTraits) != len(trait.Dimensions) {
		t.Errorf("all dimensions should be similar, got %v", res.SimilarTraits)
	}
}

func TestZeroInterestOverlapScoresFloor(t *testing.T) {
	rules := DefaultRules()
	a := profileWith(trait.Templates["balanced"], []string{"art"}, []string{"honesty"}, trait.StyleBalanced)
	b := profileWith(trait.Templates["balanced"], []string{"chess"}, []string{"honesty"}, trait.StyleBalanced)

	res, err := ComputeWithRules(a, b, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.InterestCompatibility != rules.InterestFloor {
		t.Errorf("expected interest floor %d, got %d", rules.InterestFloor, res.InterestCompatibility)
	}
	if res.ValuesCompatibility != 100 {
		t.Errorf("full values overlap should score 100, got %d", res.ValuesCompatibility)
	}
	if res.OverallScore <= 0 {
		t.Errorf("overall should stay positive, got %d", res.OverallScore)
	}
	if len(res.SharedInterests) != 0 {
		t.Errorf("expected no shared interests, got %v", res.SharedInterests)
	}
}

func TestEmptyInterestSetsAreValid(t *testing.T) {
	rules := DefaultRules()
	a := profileWith(trait.Templates["balanced"], nil, nil, trait.StyleBalanced)
	res, err := ComputeWithRules(a, a, rules)
	if err != nil {
		t.Fatalf("empty sets must not fail: %v", err)
	}
	if res.InterestCompatibility != rules.InterestFloor {
		t.Errorf("empty sets should score the floor %d, got %d", rules.InterestFloor, res.InterestCompatibility)
	}
}

func TestExtraversionGapIsComplementary(t *testing.T) {
	ta := trait.Templates["balanced"]
	tb := map[string]int{}
	for k, v := range ta {
		tb[k] = v
	}
	ta = map[string]int{}
	for k, v := range trait.Templates["balanced"] {
		ta[k] = v
	}
	ta[trait.Extraversion] = 90
	tb[trait.Extraversion] = 10

	res, err := Compute(profileWith(ta, nil, nil, trait.StyleBalanced), profileWith(tb, nil, nil, trait.StyleBalanced))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, d := range res.ComplementaryTraits {
		if d == trait.Extraversion {
			found = true
		}
	}
	if !found {
		t.Errorf("extraversion gap should be complementary, got %v", res.ComplementaryTraits)
	}
	if len(res.PotentialChallenges) != 0 {
		t.Errorf("complementary gap must not also be a challenge: %v", res.PotentialChallenges)
	}
}

func TestNeuroticismGapIsChallenging(t *testing.T) {
	ta := map[string]int{}
	tb := map[string]int{}
	for k, v := range trait.Templates["balanced"] {
		ta[k] = v
		tb[k] = v
	}
	ta[trait.Neuroticism] = 90
	tb[trait.Neuroticism] = 10

	res, err := Compute(profileWith(ta, nil, nil, trait.StyleBalanced), profileWith(tb, nil, nil, trait.StyleBalanced))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.PotentialChallenges) != 1 || res.PotentialChallenges[0] != "different emotional responses" {
		t.Errorf("expected neuroticism challenge note, got %v", res.PotentialChallenges)
	}
}

func TestAgreeablenessGapIsChallengingNotComplementary(t *testing.T) {
	ta := map[string]int{}
	tb := map[string]int{}
	for k, v := range trait.Templates["balanced"] {
		ta[k] = v
		tb[k] = v
	}
	ta[trait.Agreeableness] = 90
	tb[trait.Agreeableness] = 10

	res, err := Compute(profileWith(ta, nil, nil, trait.StyleBalanced), profileWith(tb, nil, nil, trait.StyleBalanced))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.ComplementaryTraits) != 0 {
		t.Errorf("agreeableness must not be complementary, got %v", res.ComplementaryTraits)
	}
	if len(res.PotentialChallenges) != 1 || res.PotentialChallenges[0] != "different conflict resolution styles" {
		t.Errorf("expected agreeableness challenge note, got %v", res.PotentialChallenges)
	}
}

func TestInvalidProfileRejected(t *testing.T) {
	bad := trait.Profile{Traits: map[string]int{trait.Openness: 150}}
	good := profileWith(trait.Templates["balanced"], nil, nil, trait.StyleBalanced)

	_, err := Compute(bad, good)
	var ipe *InvalidProfileError
	if !errors.As(err, &ipe) {
		t.Fatalf("expected InvalidProfileError, got %v", err)
	}
	if ipe.Which != "first" {
		t.Errorf("expected first profile flagged, got %q", ipe.Which)
	}
	var ve *trait.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("InvalidProfileError should wrap the ValidationError")
	}
}

func TestStyleTableSymmetricAndIdenticalAtLeastGood(t *testing.T) {
	rank := map[Label]int{LabelChallenging: 0, LabelFair: 1, LabelGood: 2, LabelExcellent: 3}
	for _, s1 := range trait.Styles {
		for _, s2 := range trait.Styles {
			if StyleCompatibility(s1, s2) != StyleCompatibility(s2, s1) {
				t.Errorf("style table not symmetric for %s/%s", s1, s2)
			}
		}
		if rank[StyleCompatibility(s1, s1)] < rank[LabelGood] {
			t.Errorf("identical style %s should be at least Good, got %s", s1, StyleCompatibility(s1, s1))
		}
	}
}

func TestMatchQualityBuckets(t *testing.T) {
	rules := DefaultRules()
	cases := []struct {
		score int
		want  string
	}{
		{95, "Exceptional"}, {90, "Exceptional"}, {80, "Strong"},
		{75, "Strong"}, {60, "Moderate"}, {45, "Weak"}, {10, "Incompatible"},
	}
	for _, tc := range cases {
		if got := matchQuality(tc.score, rules.QualityBuckets); got != tc.want {
			t.Errorf("score %d: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
