package inproc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	defer b.Close()

	ctx := context.Background()
	msgs, unsubscribe, err := b.Subscribe(ctx, "topic.a")
	require.NoError(t, err)
	defer unsubscribe()

	require.NoError(t, b.Publish(ctx, "topic.a", []byte("hello")))

	select {
	case m := <-msgs:
		assert.Equal(t, "topic.a", m.Topic)
		assert.Equal(t, "hello", string(m.Data))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestPublishWithNoSubscribersIsANoop(t *testing.T) {
	b := New()
	defer b.Close()
	assert.NoError(t, b.Publish(context.Background(), "nobody.listening", []byte("x")))
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	defer b.Close()

	ctx := context.Background()
	msgs, unsubscribe, err := b.Subscribe(ctx, "topic.b")
	require.NoError(t, err)
	unsubscribe()

	require.NoError(t, b.Publish(ctx, "topic.b", []byte("ignored")))

	select {
	case _, ok := <-msgs:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel was not closed after unsubscribe")
	}
}
