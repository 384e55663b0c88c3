// Package broker provides durable queue access: declare, publish, and
// consume-with-acknowledge. Delivery is at-least-once; handlers must be
// idempotent or deduplicate.
package broker

import "context"

// Action is a handler's verdict on a delivered message.
type Action int

const (
	// Ack confirms the message was fully processed.
	Ack Action = iota
	// Drop discards the message without retry (poison messages).
	Drop
	// Requeue returns the message for redelivery.
	Requeue
)

// Delivery is one message handed to a consumer.
type Delivery struct {
	Queue string
	Body  []byte
}

// Handler is invoked once per delivered message and must return an
// explicit Action; there is no implicit acknowledgment.
type Handler func(ctx context.Context, d Delivery) Action

// Publisher enqueues a message on a named queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, body []byte) error
}

// Broker is a durable connection to the message broker.
type Broker interface {
	Publisher

	// DeclareQueue creates the queue if absent. Idempotent.
	DeclareQueue(name string) error
	// Consume registers h as the queue's handler. Messages on one queue
	// are processed serially, one in flight at a time.
	Consume(ctx context.Context, queue string, h Handler) error
	Close() error
}
