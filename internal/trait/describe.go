package trait

import (
	"fmt"
	"strings"
)

// descriptors map each canonical dimension to a 5-level ladder, lowest first.
var descriptors = map[string][5]string{
	Openness: {
		"closed-minded", "conventional", "moderately open",
		"open-minded", "extremely open to new experiences",
	},
	Conscientiousness: {
		"very spontaneous", "somewhat spontaneous", "balanced",
		"organized", "extremely organized and detail-oriented",
	},
	Extraversion: {
		"very introverted", "somewhat introverted", "an ambivert",
		"somewhat extraverted", "very extraverted",
	},
	Agreeableness: {
		"very critical", "somewhat critical", "balanced",
		"agreeable", "extremely agreeable and compassionate",
	},
	Neuroticism: {
		"very emotionally stable", "emotionally stable", "moderately emotionally sensitive",
		"somewhat neurotic", "highly neurotic",
	},
	Intelligence: {
		"practically minded", "of average intelligence", "of above average intelligence",
		"highly intelligent", "exceptionally intelligent",
	},
	Creativity: {
		"a conventional thinker", "somewhat creative", "moderately creative",
		"highly creative", "exceptionally creative",
	},
	Humor: {
		"very serious", "occasionally humorous", "moderately humorous",
		"blessed with a good sense of humor", "exceptionally witty",
	},
}

// Describe renders the profile's canonical trait scores as prose bullet
// points for prompt injection.
func Describe(p Profile) string {
	var b strings.Builder
	for _, d := range Dimensions {
		fmt.Fprintf(&b, "- %s: %s\n", capitalize(d), DescribeLevel(d, p.Score(d)))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// DescribeLevel maps a 0-100 score onto the dimension's descriptor ladder.
func DescribeLevel(dimension string, score int) string {
	ladder, ok := descriptors[dimension]
	if !ok {
		return fmt.Sprintf("%d/100", score)
	}
	idx := score / 25
	if idx > 4 {
		idx = 4
	}
	return ladder[idx]
}
