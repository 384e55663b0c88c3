package broker

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process Broker with the same at-least-once contract as
// the RabbitMQ client: FIFO per queue, serialized delivery, and Requeue
// putting the message back at the head. Used by tests and local runs.
type Memory struct {
	mu     sync.Mutex
	queues map[string]*memQueue
	closed bool
}

type memQueue struct {
	name string

	mu        sync.Mutex
	cond      *sync.Cond
	items     [][]byte
	consuming bool
	closed    bool
}

func NewMemory() *Memory {
	return &Memory{queues: make(map[string]*memQueue)}
}

func (m *Memory) DeclareQueue(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return fmt.Errorf("broker is closed")
	}
	if _, ok := m.queues[name]; !ok {
		q := &memQueue{name: name}
		q.cond = sync.NewCond(&q.mu)
		m.queues[name] = q
	}
	return nil
}

func (m *Memory) queue(name string) (*memQueue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.queues[name]
	if !ok {
		return nil, fmt.Errorf("unknown queue %q", name)
	}
	return q, nil
}

func (m *Memory) Publish(ctx context.Context, queue string, body []byte) error {
	q, err := m.queue(queue)
	if err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return fmt.Errorf("queue %q is closed", queue)
	}
	// Envelopes are immutable once published; copy so the caller can't
	// mutate what the consumer sees.
	q.items = append(q.items, append([]byte(nil), body...))
	q.cond.Signal()
	return nil
}

// Consume starts a single serialized consumer loop for the queue. A queue
// supports one consumer at a time.
func (m *Memory) Consume(ctx context.Context, queue string, h Handler) error {
	q, err := m.queue(queue)
	if err != nil {
		return err
	}

	q.mu.Lock()
	if q.consuming {
		q.mu.Unlock()
		return fmt.Errorf("queue %q already has a consumer", queue)
	}
	q.consuming = true
	q.mu.Unlock()

	go func() {
		<-ctx.Done()
		q.cond.Broadcast()
	}()
	go m.loop(ctx, q, h)
	return nil
}

func (m *Memory) loop(ctx context.Context, q *memQueue, h Handler) {
	for {
		body, ok := q.pop(ctx)
		if !ok {
			return
		}
		switch h(ctx, Delivery{Queue: q.name, Body: body}) {
		case Requeue:
			q.pushFront(body)
		default:
			// Ack and Drop both remove the message.
		}
	}
}

func (q *memQueue) pop(ctx context.Context) ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		if q.closed || ctx.Err() != nil {
			return nil, false
		}
		q.cond.Wait()
	}
	if ctx.Err() != nil {
		return nil, false
	}
	body := q.items[0]
	q.items = q.items[1:]
	return body, true
}

func (q *memQueue) pushFront(body []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([][]byte{body}, q.items...)
	q.cond.Signal()
}

// Depth reports the number of pending messages, for tests.
func (m *Memory) Depth(queue string) int {
	q, err := m.queue(queue)
	if err != nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	queues := make([]*memQueue, 0, len(m.queues))
	for _, q := range m.queues {
		queues = append(queues, q)
	}
	m.mu.Unlock()

	for _, q := range queues {
		q.mu.Lock()
		q.closed = true
		q.cond.Broadcast()
		q.mu.Unlock()
	}
	return nil
}
