package trait

import "math/rand"

// Templates are predefined trait sets usable as starting points for new
// agents. Keys are template names; callers copy the map before mutating.
var Templates = map[string]map[string]int{
	"balanced": {
		Openness: 50, Conscientiousness: 50, Extraversion: 50,
		Agreeableness: 50, Neuroticism: 50, Intelligence: 50,
		Creativity: 50, Humor: 50,
	},
	"analytical": {
		Openness: 70, Conscientiousness: 80, Extraversion: 30,
		Agreeableness: 40, Neuroticism: 20, Intelligence: 90,
		Creativity: 60, Humor: 40,
	},
	"creative": {
		Openness: 90, Conscientiousness: 40, Extraversion: 60,
		Agreeableness: 70, Neuroticism: 50, Intelligence: 70,
		Creativity: 95, Humor: 75,
	},
	"social": {
		Openness: 60, Conscientiousness: 50, Extraversion: 90,
		Agreeableness: 80, Neuroticism: 30, Intelligence: 60,
		Creativity: 70, Humor: 80,
	},
	"nurturing": {
		Openness: 50, Conscientiousness: 70, Extraversion: 60,
		Agreeableness: 90, Neuroticism: 40, Intelligence: 65,
		Creativity: 60, Humor: 60,
	},
}

// FromTemplate builds a normalized profile from a named template. Unknown
// template names fall back to balanced.
func FromTemplate(name string) Profile {
	traits, ok := Templates[name]
	if !ok {
		traits = Templates["balanced"]
	}
	p := Profile{Traits: make(map[string]int, len(traits))}
	for k, v := range traits {
		p.Traits[k] = v
	}
	return p.Normalize()
}

// RandomTraits generates a random trait set for seeding or tests.
func RandomTraits(r *rand.Rand) map[string]int {
	traits := make(map[string]int, len(Dimensions))
	for _, d := range Dimensions {
		traits[d] = r.Intn(101)
	}
	return traits
}
