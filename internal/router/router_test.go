package router

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/event"
)

func TestHandleDispatchesByKind(t *testing.T) {
	rt := New("test-service")

	var gotOrder string
	rt.Register(event.KindOrderPlaced, func(ctx context.Context, env event.Envelope) broker.Action {
		var placed event.OrderPlaced
		require.NoError(t, env.Bind(&placed))
		gotOrder = placed.OrderID
		return broker.Ack
	})

	body, err := event.Encode(event.NewOrderPlaced("order-1", "product-1", 2))
	require.NoError(t, err)

	action := rt.Handle(context.Background(), broker.Delivery{Queue: event.QueueOrderEvents, Body: body})
	assert.Equal(t, broker.Ack, action)
	assert.Equal(t, "order-1", gotOrder)
}

func TestHandleAcksUnknownKind(t *testing.T) {
	rt := New("test-service")
	called := false
	rt.Register(event.KindOrderPlaced, func(ctx context.Context, env event.Envelope) broker.Action {
		called = true
		return broker.Ack
	})

	// A kind this consumer has never heard of must be acknowledged, not
	// requeued, so newer producers don't wedge older consumers.
	action := rt.Handle(context.Background(), broker.Delivery{
		Queue: event.QueueOrderEvents,
		Body:  []byte(`{"event":"Order Refunded","orderId":"o1"}`),
	})
	assert.Equal(t, broker.Ack, action)
	assert.False(t, called)
}

func TestHandleDropsMalformedBody(t *testing.T) {
	rt := New("test-service")

	action := rt.Handle(context.Background(), broker.Delivery{
		Queue: event.QueueOrderEvents,
		Body:  []byte(`not json at all`),
	})
	assert.Equal(t, broker.Drop, action)
}

func TestHandlePropagatesHandlerAction(t *testing.T) {
	rt := New("test-service")
	rt.Register(event.KindOrderPlaced, func(ctx context.Context, env event.Envelope) broker.Action {
		return broker.Requeue
	})

	body, err := event.Encode(event.NewOrderPlaced("order-1", "product-1", 2))
	require.NoError(t, err)

	action := rt.Handle(context.Background(), broker.Delivery{Queue: event.QueueOrderEvents, Body: body})
	assert.Equal(t, broker.Requeue, action)
}
