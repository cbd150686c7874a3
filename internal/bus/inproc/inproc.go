// Package inproc is a single-process Bus backed by Go channels: fan-out
// publish to per-topic subscriber sets guarded by a mutex, modeled on the
// callback/registration shape of r1cht4-envoyage's Registry.OnChange and the
// topic fan-out used by the perles coordinator's pubsub package. It backs
// the "serve" command when no external bus is configured, and all of the
// core's tests.
package inproc

import (
	"context"
	"sync"

	"github.com/hashmap-kz/govreg/internal/bus"
)

type subscriber struct {
	ch chan busMessage
}

type busMessage struct {
	topic string
	data  []byte
}

var _ bus.Bus = (*Bus)(nil)

// Bus is an in-process, in-memory publish/subscribe hub.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]*subscriber
	closed bool
}

// New returns a ready-to-use in-process bus.
func New() *Bus {
	return &Bus{subs: make(map[string][]*subscriber)}
}

// Publish fans payload out to every current subscriber of topic. Delivery
// is best-effort: a subscriber whose buffer is full is skipped rather than
// blocking the publisher, matching "the message bus is fire-and-forget".
func (b *Bus) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	subs := append([]*subscriber(nil), b.subs[topic]...)
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- busMessage{topic: topic, data: payload}:
		default:
		}
	}
	return nil
}

// Subscribe registers a new subscriber on topic. The returned channel is
// buffered so a slow reader does not stall the publisher.
func (b *Bus) Subscribe(_ context.Context, topic string) (<-chan bus.Message, func(), error) {
	s := &subscriber{ch: make(chan busMessage, 16)}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	out := make(chan bus.Message, 16)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case m, ok := <-s.ch:
				if !ok {
					close(out)
					return
				}
				out <- bus.Message{Topic: m.topic, Data: m.data}
			case <-done:
				close(out)
				return
			}
		}
	}()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, sub := range list {
			if sub == s {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(done)
	}

	return out, unsubscribe, nil
}

// Close releases all subscribers. Safe to call once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, s := range subs {
			close(s.ch)
		}
	}
	b.subs = nil
	return nil
}
