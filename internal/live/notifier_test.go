package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cozyhive/backend-pos/internal/store"
)

func TestRedisNotifierPublishesEnvelope(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, DefaultChannel)
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	raw := uuid.New()
	var aggregate pgtype.UUID
	copy(aggregate.Bytes[:], raw[:])
	aggregate.Valid = true

	notifier := RedisNotifier{R: client}
	event := store.DomainEvent{
		Topic:       "session.started",
		AggregateID: aggregate,
		Payload:     []byte(`{"name":"Omar"}`),
		OccurredAt:  pgtype.Timestamptz{Time: time.Now(), Valid: true},
	}
	require.NoError(t, notifier.Notify(ctx, event))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var envelope Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &envelope))
	require.Equal(t, "session.started", envelope.Topic)
	require.Equal(t, raw.String(), envelope.AggregateID)
	require.JSONEq(t, `{"name":"Omar"}`, string(envelope.Payload))
}

func TestRedisNotifierNilClientIsNoOp(t *testing.T) {
	notifier := RedisNotifier{}
	require.NoError(t, notifier.Notify(context.Background(), store.DomainEvent{Topic: "x"}))
}
