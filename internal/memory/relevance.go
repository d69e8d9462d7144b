package memory

import (
	"context"
	"math"
	"strings"
)

// Scorer rates how relevant stored records are to a free-text query.
// Implementations may index records at append time; Index failures must not
// block the append path.
type Scorer interface {
	Index(ctx context.Context, rec *Record) error
	Score(ctx context.Context, query string, recs []*Record) (map[string]float64, error)
}

// LexicalScorer is the default relevance scorer: token overlap between the
// query and record content, blending Jaccard with query coverage. Substring
// hits earn partial credit so inflections still match.
type LexicalScorer struct{}

func (LexicalScorer) Index(ctx context.Context, rec *Record) error { return nil }

func (LexicalScorer) Score(ctx context.Context, query string, recs []*Record) (map[string]float64, error) {
	keywords := tokenize(query)
	scores := make(map[string]float64, len(recs))
	for _, rec := range recs {
		scores[rec.ID] = keywordRelevance(keywords, rec.Content)
	}
	return scores, nil
}

func keywordRelevance(keywords []string, content string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	target := strings.ToLower(content)
	targetWords := tokenize(target)
	targetSet := make(map[string]bool, len(targetWords))
	for _, w := range targetWords {
		targetSet[w] = true
	}

	var matched int
	var weightedScore float64
	for _, kw := range keywords {
		if targetSet[kw] {
			matched++
			weightedScore += 1.0
		} else if strings.Contains(target, kw) {
			matched++
			weightedScore += 0.7 // partial substring match
		}
	}

	if matched == 0 {
		return 0
	}

	overlap := float64(matched)
	union := float64(len(keywords) + len(targetSet) - matched)
	jaccard := overlap / math.Max(union, 1)

	coverage := weightedScore / float64(len(keywords))

	return 0.4*jaccard + 0.6*coverage
}

// tokenize splits text into lowercase word tokens, dropping single chars.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') ||
			(r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') ||
			r == '_' || r == '-' ||
			r > 127)
	})
	result := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(f)
		if len(w) > 1 {
			result = append(result, w)
		}
	}
	return result
}
