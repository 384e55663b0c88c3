package broker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublishUnknownQueue(t *testing.T) {
	m := NewMemory()
	defer m.Close()

	err := m.Publish(context.Background(), "nope", []byte(`{}`))
	assert.Error(t, err)
}

func TestMemoryFIFODelivery(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	require.NoError(t, m.DeclareQueue("q"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Publish(ctx, "q", []byte(fmt.Sprintf("msg-%d", i))))
	}

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	err := m.Consume(ctx, "q", func(ctx context.Context, d Delivery) Action {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(d.Body))
		if len(got) == 5 {
			close(done)
		}
		return Ack
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"msg-0", "msg-1", "msg-2", "msg-3", "msg-4"}, got)
}

func TestMemoryRequeueRedelivers(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	require.NoError(t, m.DeclareQueue("q"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Publish(ctx, "q", []byte("payload")))

	var mu sync.Mutex
	deliveries := 0
	done := make(chan struct{})
	err := m.Consume(ctx, "q", func(ctx context.Context, d Delivery) Action {
		mu.Lock()
		defer mu.Unlock()
		deliveries++
		if deliveries == 1 {
			return Requeue // simulate a transient failure
		}
		close(done)
		return Ack
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("requeued message was not redelivered")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, deliveries)
	assert.Equal(t, 0, m.Depth("q"))
}

func TestMemoryDropDiscards(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	require.NoError(t, m.DeclareQueue("q"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, m.Publish(ctx, "q", []byte("poison")))
	require.NoError(t, m.Publish(ctx, "q", []byte("good")))

	var mu sync.Mutex
	var got []string
	done := make(chan struct{})
	err := m.Consume(ctx, "q", func(ctx context.Context, d Delivery) Action {
		if string(d.Body) == "poison" {
			return Drop
		}
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(d.Body))
		close(done)
		return Ack
	})
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"good"}, got)
}

func TestMemorySingleConsumerPerQueue(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	require.NoError(t, m.DeclareQueue("q"))

	ctx := context.Background()
	h := func(ctx context.Context, d Delivery) Action { return Ack }

	require.NoError(t, m.Consume(ctx, "q", h))
	assert.Error(t, m.Consume(ctx, "q", h))
}

func TestMemoryConsumeStopsOnCancel(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	require.NoError(t, m.DeclareQueue("q"))

	ctx, cancel := context.WithCancel(context.Background())

	handled := make(chan struct{}, 1)
	require.NoError(t, m.Consume(ctx, "q", func(ctx context.Context, d Delivery) Action {
		handled <- struct{}{}
		return Ack
	}))

	cancel()
	// Give the loop a moment to observe cancellation before publishing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, m.Publish(context.Background(), "q", []byte("late")))

	select {
	case <-handled:
		t.Fatal("handler ran after context cancellation")
	case <-time.After(200 * time.Millisecond):
	}
}
