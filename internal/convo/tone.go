package convo

import (
	"strings"

	"github.com/kindred-ai/kindred/internal/memory"
	"github.com/kindred-ai/kindred/internal/trait"
)

// Tone summarizes the emotional coloring of a reply, each axis in [0,1].
type Tone struct {
	Positivity float64 `json:"positivity"`
	Intensity  float64 `json:"intensity"`
	Formality  float64 `json:"formality"`
}

// Map flattens the tone for storage as memory emotional context.
func (t Tone) Map() map[string]float64 {
	return map[string]float64{
		"positivity": t.Positivity,
		"intensity":  t.Intensity,
		"formality":  t.Formality,
	}
}

var positiveWords = []string{
	"happy", "glad", "great", "wonderful", "love", "excited", "thank",
}

var negativeWords = []string{
	"sad", "sorry", "hate", "angry", "terrible", "afraid", "worried",
}

// AssessTone derives tone from the speaker's traits, nudged by the words in
// the text itself. High agreeableness lifts positivity, neuroticism drags it;
// extraversion and neuroticism both raise intensity; conscientiousness raises
// formality while humor lowers it.
func AssessTone(p trait.Profile, text string) Tone {
	t := Tone{
		Positivity: 0.5 + float64(p.Score(trait.Agreeableness)-50)/200 - float64(p.Score(trait.Neuroticism)-50)/250,
		Intensity:  0.3 + float64(p.Score(trait.Extraversion)-50)/200 + float64(p.Score(trait.Neuroticism)-50)/250,
		Formality:  0.5 + float64(p.Score(trait.Conscientiousness)-50)/200 - float64(p.Score(trait.Humor)-50)/250,
	}

	lower := strings.ToLower(text)
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			t.Positivity += 0.05
			t.Intensity += 0.02
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			t.Positivity -= 0.05
			t.Intensity += 0.02
		}
	}

	t.Positivity = clamp01(t.Positivity)
	t.Intensity = clamp01(t.Intensity)
	t.Formality = clamp01(t.Formality)
	return t
}

// Dynamics describes how a conversation is developing.
type Dynamics struct {
	MessageCount        int     `json:"message_count"`
	UserEngagement      float64 `json:"user_engagement"`
	ResponseLengthTrend string  `json:"response_length_trend"`
	ConversationDepth   float64 `json:"conversation_depth"`
}

// AssessDynamics reads a conversation's records (any order) and summarizes
// its shape: how much is being said, how engaged the user is, and whether
// the agent's replies are growing or shrinking.
func AssessDynamics(conversationID, agentSpeaker string, recs []*memory.Record) Dynamics {
	var userLens, agentLens []int
	count := 0
	for i := len(recs) - 1; i >= 0; i-- {
		rec := recs[i]
		if rec.Metadata.ConversationID != conversationID {
			continue
		}
		count++
		if rec.Metadata.Speaker == agentSpeaker {
			agentLens = append(agentLens, len(rec.Content))
		} else {
			userLens = append(userLens, len(rec.Content))
		}
	}

	d := Dynamics{
		MessageCount:        count,
		ResponseLengthTrend: "steady",
	}

	if len(userLens) > 0 {
		var total int
		for _, l := range userLens {
			total += l
		}
		d.UserEngagement = clamp01(float64(total) / float64(len(userLens)) / 200)
	}

	if n := len(agentLens); n >= 2 {
		var earlier int
		for _, l := range agentLens[:n-1] {
			earlier += l
		}
		avg := float64(earlier) / float64(n-1)
		last := float64(agentLens[n-1])
		switch {
		case last > avg*1.2:
			d.ResponseLengthTrend = "lengthening"
		case last < avg*0.8:
			d.ResponseLengthTrend = "shortening"
		}
	}

	depth := float64(count) / 20
	d.ConversationDepth = clamp01(depth)
	return d
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
