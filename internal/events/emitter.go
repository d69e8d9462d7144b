// Package events publishes conversation and relationship events to Redis
// Streams so external consumers (analytics, notification fan-out) can follow
// an agent's activity without polling the API.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const streamPrefix = "kindred:agent:"

// Kind labels what an event describes.
type Kind string

const (
	KindExchange          Kind = "exchange"
	KindRelationshipEvent Kind = "relationship_event"
)

// Event is one entry on an agent's stream.
type Event struct {
	ID             string    `json:"id"`
	Kind           Kind      `json:"kind"`
	AgentID        string    `json:"agent_id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	RelationshipID string    `json:"relationship_id,omitempty"`
	Summary        string    `json:"summary"`
	Score          float64   `json:"score,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Emitter writes events to per-agent Redis Streams.
type Emitter struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewEmitter connects to Redis and verifies the connection.
func NewEmitter(redisURL string, logger *zap.Logger) (*Emitter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Emitter{rdb: rdb, logger: logger}, nil
}

// Publish appends the event to its agent's stream. A blank id or timestamp
// is filled in.
func (e *Emitter) Publish(ctx context.Context, ev *Event) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	stream := streamPrefix + ev.AgentID
	_, err = e.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("publish to %s: %w", stream, err)
	}

	e.logger.Debug("published event",
		zap.String("agent_id", ev.AgentID),
		zap.String("kind", string(ev.Kind)))
	return nil
}

// Close shuts down the Redis client.
func (e *Emitter) Close() error {
	return e.rdb.Close()
}
