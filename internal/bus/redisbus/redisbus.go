// Package redisbus is the production Bus implementation, backed by Redis
// Pub/Sub (github.com/redis/go-redis/v9) — a real dependency of
// jordigilh/kubernaut adopted here because Redis channels match the
// command-topic/respond_to/event-topic shape of spec.md §6 directly, and
// because Redis Pub/Sub is itself fire-and-forget, matching §5's note that
// "the message bus is fire-and-forget".
package redisbus

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/hashmap-kz/govreg/internal/bus"
)

var _ bus.Bus = (*Bus)(nil)

// Bus adapts a *redis.Client to the bus.Bus contract.
type Bus struct {
	client *redis.Client
}

// New wraps an already-configured redis client.
func New(client *redis.Client) *Bus {
	return &Bus{client: client}
}

func (b *Bus) Publish(ctx context.Context, topic string, payload []byte) error {
	return b.client.Publish(ctx, topic, payload).Err()
}

func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan bus.Message, func(), error) {
	sub := b.client.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan bus.Message, 16)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			out <- bus.Message{Topic: msg.Channel, Data: []byte(msg.Payload)}
		}
	}()

	unsubscribe := func() {
		_ = sub.Close()
	}
	return out, unsubscribe, nil
}

func (b *Bus) Close() error {
	return b.client.Close()
}
