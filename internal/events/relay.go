package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher is the part of a go-redis client the relay needs.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay forwards every dispatched event to a Redis pub/sub channel so
// that out-of-process consumers can react to them.
type RedisRelay struct {
	publisher Publisher
	channel   string
}

// NewRedisRelay creates a relay publishing on channel.
func NewRedisRelay(publisher Publisher, channel string) *RedisRelay {
	return &RedisRelay{publisher: publisher, channel: channel}
}

// Handle is an EventHandler.
func (r *RedisRelay) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	if err := r.publisher.Publish(ctx, r.channel, body).Err(); err != nil {
		return fmt.Errorf("relay event %s: %w", event.ID, err)
	}
	return nil
}

// Register subscribes the relay to every event of dispatcher.
func (r *RedisRelay) Register(dispatcher Dispatcher) {
	dispatcher.SubscribeAll(r.Handle)
}
