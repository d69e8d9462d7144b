package convo

import (
	"fmt"
	"strings"

	"github.com/kindred-ai/kindred/internal/memory"
	"github.com/kindred-ai/kindred/internal/registry"
	"github.com/kindred-ai/kindred/internal/relation"
	"github.com/kindred-ai/kindred/internal/trait"
)

// BuildPrompt assembles the completion prompt: persona, optional relationship
// context, ranked memories, recent history, then the incoming message.
// Recent history arrives newest first and is rendered chronologically.
func BuildPrompt(agent *registry.Agent, rel *relation.Relationship, relevant, recent []*memory.Record, speaker, message string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s. Your personality:\n", agent.Name)
	b.WriteString(trait.Describe(agent.Profile))
	if len(agent.Profile.Interests) > 0 {
		fmt.Fprintf(&b, "Your interests: %s.\n", strings.Join(agent.Profile.Interests, ", "))
	}
	if len(agent.Profile.Values) > 0 {
		fmt.Fprintf(&b, "Your values: %s.\n", strings.Join(agent.Profile.Values, ", "))
	}
	fmt.Fprintf(&b, "Your communication style is %s.\n", agent.Profile.CommunicationStyle)

	if rel != nil {
		b.WriteString("\n[Relationship Context]\n")
		if rel.Type != "" {
			fmt.Fprintf(&b, "This is a %s relationship", rel.Type)
		} else {
			b.WriteString("You have an ongoing relationship")
		}
		fmt.Fprintf(&b, " with bond strength %.2f.\n", rel.Strength)
		if n := len(rel.History); n > 0 {
			fmt.Fprintf(&b, "Recently: %s\n", rel.History[n-1])
		}
	}

	if len(relevant) > 0 {
		b.WriteString("\n[Memory Context]\n")
		for _, rec := range relevant {
			fmt.Fprintf(&b, "- (importance %.2f) %s\n", rec.Importance, rec.Content)
		}
	}

	if len(recent) > 0 {
		b.WriteString("\n[Recent Conversation]\n")
		for i := len(recent) - 1; i >= 0; i-- {
			rec := recent[i]
			who := rec.Metadata.Speaker
			if who == "" {
				who = "user"
			}
			fmt.Fprintf(&b, "%s: %s\n", who, rec.Content)
		}
	}

	fmt.Fprintf(&b, "\n%s says: %s\n", speaker, message)
	fmt.Fprintf(&b, "Respond in character as %s.", agent.Name)
	return b.String()
}
