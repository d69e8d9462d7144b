package memory

import "strings"

// Heuristic assigns an importance score in [0,1] to a record at append time.
type Heuristic interface {
	Importance(rec *Record) float64
}

// emotionalKeywords boost importance when they appear in record content.
var emotionalKeywords = []string{
	"love", "hate", "happy", "sad", "angry", "afraid",
	"excited", "hurt", "proud", "ashamed", "grateful", "lonely",
}

// DefaultHeuristic scores records from their type, length, emotional keyword
// density and declared emotional impact.
type DefaultHeuristic struct{}

var typeBase = map[RecordType]float64{
	TypeRelationshipEvent: 0.7,
	TypeEmotional:         0.6,
	TypeInteraction:       0.5,
	TypeReflection:        0.4,
}

// Importance never panics; any internal failure falls back to 0.5.
func (DefaultHeuristic) Importance(rec *Record) (score float64) {
	defer func() {
		if recover() != nil {
			score = 0.5
		}
	}()

	score, ok := typeBase[rec.Type]
	if !ok {
		score = 0.5
	}

	// Longer content tends to carry more signal, up to a point.
	lengthBoost := float64(len(rec.Content)) / 1000
	if lengthBoost > 0.2 {
		lengthBoost = 0.2
	}
	score += lengthBoost

	content := strings.ToLower(rec.Content)
	var emotional float64
	for _, kw := range emotionalKeywords {
		if strings.Contains(content, kw) {
			emotional += 0.05
		}
	}
	if emotional > 0.15 {
		emotional = 0.15
	}
	score += emotional

	impact := rec.Metadata.EmotionalImpact
	if impact < 0 {
		impact = -impact
	}
	score += impact * 0.3

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
