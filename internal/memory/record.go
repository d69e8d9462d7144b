// Package memory keeps an append-only interaction log per agent and ranks
// entries for retrieval. The in-process store is the source of truth; an
// optional persister mirrors writes to durable storage.
package memory

import (
	"time"
)

// RecordType classifies what kind of event a memory captures.
type RecordType string

const (
	TypeInteraction       RecordType = "interaction"
	TypeEmotional         RecordType = "emotional"
	TypeRelationshipEvent RecordType = "relationship_event"
	TypeReflection        RecordType = "reflection"
)

// Valid reports whether t is a member of the record type enumeration.
func (t RecordType) Valid() bool {
	switch t {
	case TypeInteraction, TypeEmotional, TypeRelationshipEvent, TypeReflection:
		return true
	}
	return false
}

// Metadata carries optional context attached to a record at append time.
type Metadata struct {
	Speaker          string             `json:"speaker,omitempty"`
	ConversationID   string             `json:"conversation_id,omitempty"`
	EmotionalContext map[string]float64 `json:"emotional_context,omitempty"`
	RelationshipID   string             `json:"relationship_id,omitempty"`
	EventType        string             `json:"event_type,omitempty"`
	EmotionalImpact  float64            `json:"emotional_impact,omitempty"`
}

// Record is one entry in an agent's memory log. Content, type, timestamp and
// metadata are immutable after append; importance, access count and last
// accessed are retrieval bookkeeping the store updates on search hits.
type Record struct {
	ID           string     `json:"id"`
	AgentID      string     `json:"agent_id"`
	Content      string     `json:"content"`
	Type         RecordType `json:"type"`
	Timestamp    time.Time  `json:"timestamp"`
	Importance   float64    `json:"importance"`
	LastAccessed time.Time  `json:"last_accessed,omitempty"`
	AccessCount  int        `json:"access_count"`
	Metadata     Metadata   `json:"metadata,omitempty"`

	// baseImportance is the importance at append or load time. Search ranks
	// on it instead of Importance: access boosts saturate at 1.0, and ranking
	// on a saturating input lets repeated identical searches reorder.
	baseImportance float64
}

func (r *Record) clone() *Record {
	out := *r
	if r.Metadata.EmotionalContext != nil {
		out.Metadata.EmotionalContext = make(map[string]float64, len(r.Metadata.EmotionalContext))
		for k, v := range r.Metadata.EmotionalContext {
			out.Metadata.EmotionalContext[k] = v
		}
	}
	return &out
}
