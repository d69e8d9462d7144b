// Package convo runs the message exchange pipeline: assemble context from the
// agent's profile and memories, request a completion, then record both sides
// of the exchange. Nothing is written unless a completion succeeds.
package convo

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kindred-ai/kindred/internal/completion"
	"github.com/kindred-ai/kindred/internal/events"
	"github.com/kindred-ai/kindred/internal/memory"
	"github.com/kindred-ai/kindred/internal/registry"
	"github.com/kindred-ai/kindred/internal/relation"
	"github.com/kindred-ai/kindred/internal/trait"
)

var (
	// ErrCompletionUnavailable means the backend failed the initial attempt
	// and the single retry.
	ErrCompletionUnavailable = errors.New("completion backend unavailable")
	// ErrEmptyMessage rejects blank incoming messages.
	ErrEmptyMessage = errors.New("message content must not be empty")
)

// Message is an incoming message for an agent. A blank ConversationID starts
// a new conversation; a blank Speaker defaults to "user".
type Message struct {
	AgentID        string `json:"agent_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	RelationshipID string `json:"relationship_id,omitempty"`
	Speaker        string `json:"speaker,omitempty"`
	Content        string `json:"content"`
}

// Response is the outcome of a successful exchange.
type Response struct {
	Reply          string   `json:"reply"`
	ConversationID string   `json:"conversation_id"`
	EmotionalTone  Tone     `json:"emotional_tone"`
	Dynamics       Dynamics `json:"dynamics"`
}

// Orchestrator drives message exchanges. Relations and emitter are optional;
// when absent those steps are skipped.
type Orchestrator struct {
	registry  *registry.Registry
	memory    *memory.Store
	completer completion.Client
	relations *relation.Graph
	emitter   *events.Emitter
	evolution *trait.Evolution

	topK         int
	recentWindow int
	retryBackoff time.Duration
	logger       *zap.Logger
}

// New creates an orchestrator over the required collaborators.
func New(reg *registry.Registry, mem *memory.Store, completer completion.Client, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		registry:     reg,
		memory:       mem,
		completer:    completer,
		evolution:    trait.NewEvolution(),
		topK:         5,
		recentWindow: 10,
		retryBackoff: 500 * time.Millisecond,
		logger:       logger,
	}
}

// SetRelations attaches the relationship graph.
func (o *Orchestrator) SetRelations(g *relation.Graph) { o.relations = g }

// SetEmitter attaches the event stream emitter.
func (o *Orchestrator) SetEmitter(e *events.Emitter) { o.emitter = e }

// SetEvolution replaces the personality drift model. Passing nil disables
// drift entirely.
func (o *Orchestrator) SetEvolution(e *trait.Evolution) { o.evolution = e }

// SendMessage runs one full exchange. On completion failure (after one retry)
// or context cancellation, no memory is written and no event is emitted.
func (o *Orchestrator) SendMessage(ctx context.Context, msg Message) (*Response, error) {
	if msg.Content == "" {
		return nil, ErrEmptyMessage
	}
	agent, err := o.registry.Get(msg.AgentID)
	if err != nil {
		return nil, err
	}

	convID := msg.ConversationID
	if convID == "" {
		convID = uuid.New().String()
	}
	speaker := msg.Speaker
	if speaker == "" {
		speaker = "user"
	}

	relevant, err := o.memory.Search(ctx, msg.AgentID, msg.Content, "", o.topK)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	recent, err := o.memory.List(msg.AgentID, "", o.recentWindow)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}

	var rel *relation.Relationship
	if o.relations != nil && msg.RelationshipID != "" {
		rel, err = o.relations.GetRelationship(ctx, msg.AgentID, msg.RelationshipID)
		if err != nil {
			o.logger.Warn("relationship lookup failed",
				zap.String("relationship_id", msg.RelationshipID), zap.Error(err))
			rel = nil
		}
	}

	prompt := BuildPrompt(agent, rel, relevant, recent, speaker, msg.Content)

	reply, err := o.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	// A cancelled request must not leave a half-recorded exchange behind.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	tone := AssessTone(agent.Profile, reply)

	if _, err := o.memory.Append(ctx, msg.AgentID, msg.Content, memory.TypeInteraction, memory.Metadata{
		Speaker:        speaker,
		ConversationID: convID,
		RelationshipID: msg.RelationshipID,
	}); err != nil {
		o.logger.Warn("record user message failed", zap.String("agent_id", msg.AgentID), zap.Error(err))
	}
	if _, err := o.memory.Append(ctx, msg.AgentID, reply, memory.TypeInteraction, memory.Metadata{
		Speaker:          agent.Name,
		ConversationID:   convID,
		RelationshipID:   msg.RelationshipID,
		EmotionalContext: tone.Map(),
	}); err != nil {
		o.logger.Warn("record reply failed", zap.String("agent_id", msg.AgentID), zap.Error(err))
	}

	history, err := o.memory.List(msg.AgentID, "", o.recentWindow*2)
	if err != nil {
		history = nil
	}
	dynamics := AssessDynamics(convID, agent.Name, history)

	o.drift(ctx, msg.AgentID, agent.Profile, trait.Interaction{
		Sentiment: tone.Positivity,
		Impact:    tone.Intensity,
	})

	o.emit(ctx, &events.Event{
		Kind:           events.KindExchange,
		AgentID:        msg.AgentID,
		ConversationID: convID,
		Summary:        truncate(reply, 140),
	})

	return &Response{
		Reply:          reply,
		ConversationID: convID,
		EmotionalTone:  tone,
		Dynamics:       dynamics,
	}, nil
}

// complete calls the backend, retrying once after a short backoff. The
// backoff respects cancellation.
func (o *Orchestrator) complete(ctx context.Context, prompt string) (string, error) {
	reply, err := o.completer.Complete(ctx, prompt)
	if err == nil {
		return reply, nil
	}
	o.logger.Warn("completion failed, retrying once", zap.Error(err))

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(o.retryBackoff):
	}

	reply, err = o.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCompletionUnavailable, err)
	}
	return reply, nil
}

// RecordRelationshipEvent stores a relationship milestone as a memory record,
// updates the graph edge when a graph is attached, and emits an event.
func (o *Orchestrator) RecordRelationshipEvent(ctx context.Context, ev relation.Event) (*memory.Record, error) {
	if ev.Description == "" {
		return nil, fmt.Errorf("%w: empty description", memory.ErrInvalidRecord)
	}
	if _, err := o.registry.Get(ev.AgentID); err != nil {
		return nil, err
	}

	rec, err := o.memory.Append(ctx, ev.AgentID, ev.Description, memory.TypeRelationshipEvent, memory.Metadata{
		RelationshipID:  ev.RelationshipID,
		EventType:       ev.Type,
		EmotionalImpact: ev.Impact,
	})
	if err != nil {
		return nil, err
	}

	if o.relations != nil {
		if err := o.relations.RecordEvent(ctx, &ev); err != nil {
			o.logger.Warn("relationship graph update failed",
				zap.String("relationship_id", ev.RelationshipID), zap.Error(err))
		}
	}

	if o.evolution != nil {
		if agent, err := o.registry.Get(ev.AgentID); err == nil {
			update := o.evolution.FromExperience(agent.Profile, trait.Experience{
				Type:   ev.Type,
				Impact: ev.Impact,
			})
			o.applyDrift(ctx, ev.AgentID, update)
		}
	}

	o.emit(ctx, &events.Event{
		Kind:           events.KindRelationshipEvent,
		AgentID:        ev.AgentID,
		RelationshipID: ev.RelationshipID,
		Summary:        truncate(ev.Description, 140),
		Score:          ev.Impact,
	})
	return rec, nil
}

// drift lets an exchange leave a small mark on the agent's personality.
// Drift is best effort and never fails the exchange.
func (o *Orchestrator) drift(ctx context.Context, agentID string, p trait.Profile, in trait.Interaction) {
	if o.evolution == nil {
		return
	}
	o.applyDrift(ctx, agentID, o.evolution.FromInteraction(p, in))
}

func (o *Orchestrator) applyDrift(ctx context.Context, agentID string, update trait.ProfileUpdate) {
	if len(update.Traits) == 0 {
		return
	}
	if _, err := o.registry.UpdateProfile(ctx, agentID, update); err != nil {
		o.logger.Warn("personality drift not applied", zap.String("agent_id", agentID), zap.Error(err))
	}
}

func (o *Orchestrator) emit(ctx context.Context, ev *events.Event) {
	if o.emitter == nil {
		return
	}
	if err := o.emitter.Publish(ctx, ev); err != nil {
		o.logger.Warn("event publish failed", zap.String("agent_id", ev.AgentID), zap.Error(err))
	}
}

// truncate shortens s to at most n bytes, cutting on a rune boundary so the
// result stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
