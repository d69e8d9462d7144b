package compat

import "github.com/kindred-ai/kindred/internal/trait"

// Label grades communication-style pairing quality.
type Label string

const (
	LabelExcellent   Label = "Excellent"
	LabelGood        Label = "Good"
	LabelFair        Label = "Fair"
	LabelChallenging Label = "Challenging"
)

// QualityBucket maps a minimum overall score onto a match-quality label.
type QualityBucket struct {
	Min   int
	Label string
}

// Ruleset carries every threshold and weight the engine uses. The values are
// configuration, not business law; DefaultRules documents the stable defaults
// tests rely on.
type Ruleset struct {
	// Trait pair classification.
	SimilarityThreshold int            // |delta| at or under this is similar
	ComplementaryGap    int            // |delta| at or over this is complementary, for listed dimensions
	ChallengeGap        int            // |delta| at or over this is challenging, absent a complementary rule
	ComplementaryTraits map[string]bool // dimensions where divergence is beneficial

	// Trait score aggregation.
	Baseline            int
	SimilarCredit       int
	ComplementaryCredit int
	ChallengePenalty    int

	// Overlap floors: zero overlap still scores these, diversity is not failure.
	InterestFloor int
	ValuesFloor   int

	// Overall score weights. Must sum to 1.
	TraitWeight         float64
	InterestWeight      float64
	ValuesWeight        float64
	CommunicationWeight float64

	// Numeric contribution per communication label.
	CommunicationScores map[Label]int

	// Match-quality buckets, highest minimum first.
	QualityBuckets []QualityBucket
}

// DefaultRules returns the canonical ruleset.
func DefaultRules() Ruleset {
	return Ruleset{
		SimilarityThreshold: 15,
		ComplementaryGap:    30,
		ChallengeGap:        40,
		ComplementaryTraits: map[string]bool{trait.Extraversion: true},

		Baseline:            70,
		SimilarCredit:       4,
		ComplementaryCredit: 3,
		ChallengePenalty:    6,

		InterestFloor: 20,
		ValuesFloor:   25,

		TraitWeight:         0.40,
		InterestWeight:      0.25,
		ValuesWeight:        0.25,
		CommunicationWeight: 0.10,

		CommunicationScores: map[Label]int{
			LabelExcellent:   100,
			LabelGood:        75,
			LabelFair:        50,
			LabelChallenging: 25,
		},

		QualityBuckets: []QualityBucket{
			{Min: 90, Label: "Exceptional"},
			{Min: 75, Label: "Strong"},
			{Min: 60, Label: "Moderate"},
			{Min: 40, Label: "Weak"},
			{Min: 0, Label: "Incompatible"},
		},
	}
}

// challengeNotes gives human-readable phrasing for well-known friction
// dimensions; anything else falls back to a generic gap description.
var challengeNotes = map[string]string{
	trait.Agreeableness: "different conflict resolution styles",
	trait.Neuroticism:   "different emotional responses",
}

// styleTable holds the fixed 5x5 communication compatibility lookup.
// Identical styles are always Excellent; the table is symmetric.
var styleTable = map[trait.Style]map[trait.Style]Label{
	trait.StyleDirect: {
		trait.StyleDirect:     LabelExcellent,
		trait.StyleDiplomatic: LabelFair,
		trait.StyleAnalytical: LabelGood,
		trait.StyleExpressive: LabelFair,
		trait.StyleBalanced:   LabelGood,
	},
	trait.StyleDiplomatic: {
		trait.StyleDirect:     LabelFair,
		trait.StyleDiplomatic: LabelExcellent,
		trait.StyleAnalytical: LabelFair,
		trait.StyleExpressive: LabelGood,
		trait.StyleBalanced:   LabelGood,
	},
	trait.StyleAnalytical: {
		trait.StyleDirect:     LabelGood,
		trait.StyleDiplomatic: LabelFair,
		trait.StyleAnalytical: LabelExcellent,
		trait.StyleExpressive: LabelChallenging,
		trait.StyleBalanced:   LabelFair,
	},
	trait.StyleExpressive: {
		trait.StyleDirect:     LabelFair,
		trait.StyleDiplomatic: LabelGood,
		trait.StyleAnalytical: LabelChallenging,
		trait.StyleExpressive: LabelExcellent,
		trait.StyleBalanced:   LabelGood,
	},
	trait.StyleBalanced: {
		trait.StyleDirect:     LabelGood,
		trait.StyleDiplomatic: LabelGood,
		trait.StyleAnalytical: LabelFair,
		trait.StyleExpressive: LabelGood,
		trait.StyleBalanced:   LabelExcellent,
	},
}

// StyleCompatibility looks up the pairing label for two communication styles.
func StyleCompatibility(a, b trait.Style) Label {
	if row, ok := styleTable[a]; ok {
		if l, ok := row[b]; ok {
			return l
		}
	}
	return LabelFair
}
