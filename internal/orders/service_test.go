package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/models"
	"github.com/microshop/microshop/internal/store"
)

type capturePublisher struct {
	mu     sync.Mutex
	fail   bool
	bodies map[string][][]byte
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{bodies: make(map[string][][]byte)}
}

func (p *capturePublisher) Publish(ctx context.Context, queue string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.bodies[queue] = append(p.bodies[queue], body)
	return nil
}

func (p *capturePublisher) kinds(t *testing.T, queue string) []event.Kind {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	var kinds []event.Kind
	for _, body := range p.bodies[queue] {
		env, err := event.Decode(body)
		require.NoError(t, err)
		kinds = append(kinds, env.Kind)
	}
	return kinds
}

func newService() (*Service, *store.MemoryOrders, *capturePublisher) {
	orders := store.NewMemoryOrders()
	pub := newCapturePublisher()
	return NewService(orders, pub), orders, pub
}

func envelopeOf(t *testing.T, payload any) event.Envelope {
	t.Helper()
	body, err := event.Encode(payload)
	require.NoError(t, err)
	env, err := event.Decode(body)
	require.NoError(t, err)
	return env
}

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	svc, orders, pub := newService()

	orderID, err := svc.PlaceOrder(ctx, "user-1", "product-1", 3)
	require.NoError(t, err)
	require.NotEmpty(t, orderID)

	order, err := orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, models.OrderPlaced, order.Status)
	assert.Equal(t, 3, order.Quantity)

	assert.Equal(t, []event.Kind{event.KindOrderPlaced}, pub.kinds(t, event.QueueOrderEvents))
}

func TestPlaceOrderValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newService()

	cases := []struct {
		name      string
		userID    string
		productID string
		quantity  int
	}{
		{"missing user", "", "p1", 1},
		{"missing product", "u1", "", 1},
		{"zero quantity", "u1", "p1", 0},
		{"negative quantity", "u1", "p1", -2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(ctx, tc.userID, tc.productID, tc.quantity)
			var verr *models.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	// Rejected input must cause no side effects.
	assert.Empty(t, pub.kinds(t, event.QueueOrderEvents))
}

func TestPlaceOrderSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	svc, orders, pub := newService()
	pub.fail = true

	orderID, err := svc.PlaceOrder(ctx, "user-1", "product-1", 1)
	require.NoError(t, err, "order creation does not depend on broker availability")

	order, err := orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, order.Status)
}

func TestShipOrderRequiresReservedInventory(t *testing.T) {
	ctx := context.Background()
	svc, orders, _ := newService()

	orderID, err := svc.PlaceOrder(ctx, "user-1", "product-1", 1)
	require.NoError(t, err)

	err = svc.ShipOrder(ctx, orderID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)

	order, err := orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPlaced, order.Status, "failed ship must not change status")
}

func TestShipOrderUnknownOrder(t *testing.T) {
	svc, _, _ := newService()

	err := svc.ShipOrder(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestOrderLifecycleReservedThenShipped(t *testing.T) {
	ctx := context.Background()
	svc, orders, pub := newService()

	orderID, err := svc.PlaceOrder(ctx, "user-1", "product-1", 2)
	require.NoError(t, err)

	action := svc.HandleInventoryUpdated(ctx, envelopeOf(t, event.NewInventoryUpdated(orderID, "product-1", 8)))
	assert.Equal(t, broker.Ack, action)

	order, err := orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInventoryReserved, order.Status)

	require.NoError(t, svc.ShipOrder(ctx, orderID))

	order, err = orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, order.Status)

	assert.Equal(t, []event.Kind{event.KindOrderPlaced, event.KindOrderShipped}, pub.kinds(t, event.QueueOrderEvents))
}

func TestHandleInventoryRejectedIsTerminal(t *testing.T) {
	ctx := context.Background()
	svc, orders, _ := newService()

	orderID, err := svc.PlaceOrder(ctx, "user-1", "product-1", 2)
	require.NoError(t, err)

	action := svc.HandleInventoryRejected(ctx, envelopeOf(t, event.NewInventoryRejected(orderID, "product-1", "insufficient stock")))
	assert.Equal(t, broker.Ack, action)

	order, err := orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInventoryRejected, order.Status)

	err = svc.ShipOrder(ctx, orderID)
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestHandleInventoryUpdatedRedelivery(t *testing.T) {
	ctx := context.Background()
	svc, orders, _ := newService()

	orderID, err := svc.PlaceOrder(ctx, "user-1", "product-1", 2)
	require.NoError(t, err)

	env := envelopeOf(t, event.NewInventoryUpdated(orderID, "product-1", 8))
	assert.Equal(t, broker.Ack, svc.HandleInventoryUpdated(ctx, env))
	assert.Equal(t, broker.Ack, svc.HandleInventoryUpdated(ctx, env), "redelivery is a no-op")

	order, err := orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderInventoryReserved, order.Status)
}

func TestHandleInventoryUpdatedNeverMovesBackward(t *testing.T) {
	ctx := context.Background()
	svc, orders, _ := newService()

	orderID, err := svc.PlaceOrder(ctx, "user-1", "product-1", 2)
	require.NoError(t, err)
	require.Equal(t, broker.Ack, svc.HandleInventoryUpdated(ctx, envelopeOf(t, event.NewInventoryUpdated(orderID, "product-1", 8))))
	require.NoError(t, svc.ShipOrder(ctx, orderID))

	// A stale redelivery after shipping must not regress the status.
	action := svc.HandleInventoryUpdated(ctx, envelopeOf(t, event.NewInventoryUpdated(orderID, "product-1", 8)))
	assert.Equal(t, broker.Ack, action)

	order, err := orders.FindByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderShipped, order.Status)
}

func TestHandleInventoryUpdatedUnknownOrder(t *testing.T) {
	svc, _, _ := newService()

	action := svc.HandleInventoryUpdated(context.Background(), envelopeOf(t, event.NewInventoryUpdated("missing", "p1", 3)))
	assert.Equal(t, broker.Ack, action, "unknown orders must not wedge the queue")
}

func TestHandleInventoryUpdatedWithoutOrderID(t *testing.T) {
	svc, _, _ := newService()

	action := svc.HandleInventoryUpdated(context.Background(), envelopeOf(t, event.NewInventoryUpdated("", "p1", 3)))
	assert.Equal(t, broker.Ack, action)
}
