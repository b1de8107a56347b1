package live

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cozyhive/backend-pos/internal/store"
)

// DefaultChannel is the Redis pub/sub channel carrying dashboard updates.
const DefaultChannel = "live:events"

// Envelope is the wire form of a domain event on the pub/sub channel.
type Envelope struct {
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// RedisNotifier publishes emitted domain events to a Redis channel so every
// API instance can fan them out to its connected dashboards.
type RedisNotifier struct {
	R       *redis.Client
	Channel string
}

// Notify implements events.Notifier.
func (n RedisNotifier) Notify(ctx context.Context, event store.DomainEvent) error {
	if n.R == nil {
		return nil
	}
	channel := n.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	data, err := json.Marshal(Envelope{
		Topic:       event.Topic,
		AggregateID: store.UUIDString(event.AggregateID),
		Payload:     event.Payload,
		OccurredAt:  store.TimeValue(event.OccurredAt),
	})
	if err != nil {
		return err
	}
	return n.R.Publish(ctx, channel, data).Err()
}
