package events

import (
	"context"
	"encoding/json"
	"fmt"

	"oracle-market/internal/logging"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// busMessage wraps an encoded event with the publishing instance so an
// instance can ignore its own messages when relaying.
type busMessage struct {
	Origin string          `json:"origin"`
	Event  json.RawMessage `json:"event"`
}

// RedisBus shares events between instances over a Redis Pub/Sub channel.
type RedisBus struct {
	rdb     *redis.Client
	channel string
	origin  string
	logger  *zap.Logger
}

// NewRedisBus creates a bus on the given channel
func NewRedisBus(rdb *redis.Client, channel string) *RedisBus {
	return &RedisBus{
		rdb:     rdb,
		channel: channel,
		origin:  uuid.NewString(),
		logger:  logging.Named("redis-bus"),
	}
}

// Publish sends the event to the other instances
func (b *RedisBus) Publish(ctx context.Context, eventType string, data interface{}) {
	payload, err := b.encode(eventType, data)
	if err != nil {
		b.logger.Error("redis: failed to encode event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		b.logger.Warn("redis: publish failed", zap.String("channel", b.channel), zap.Error(err))
	}
}

func (b *RedisBus) encode(eventType string, data interface{}) ([]byte, error) {
	event, err := Encode(eventType, data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(busMessage{Origin: b.origin, Event: event})
}

// decode returns the event carried by payload, or nil when the payload came
// from this instance.
func (b *RedisBus) decode(payload []byte) ([]byte, error) {
	var msg busMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, err
	}
	if msg.Origin == b.origin {
		return nil, nil
	}
	return msg.Event, nil
}

// Relay delivers events published by other instances to sink until ctx is
// cancelled.
func (b *RedisBus) Relay(ctx context.Context, sink func([]byte)) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	// Verify the subscription is established by receiving the confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: subscribe %s: %w", b.channel, err)
	}
	b.logger.Info("redis: relaying events", zap.String("channel", b.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := b.decode([]byte(msg.Payload))
			if err != nil {
				b.logger.Warn("redis: malformed bus message", zap.Error(err))
				continue
			}
			if event != nil {
				sink(event)
			}
		}
	}
}
