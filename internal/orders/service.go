// Package orders owns order state transitions: it creates orders,
// publishes lifecycle events, and advances status in response to the
// inventory reconciler's verdicts.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/models"
	"github.com/microshop/microshop/internal/store"
)

type Service struct {
	orders store.OrderStore
	bus    broker.Publisher
}

func NewService(orders store.OrderStore, bus broker.Publisher) *Service {
	return &Service{
		orders: orders,
		bus:    bus,
	}
}

// PlaceOrder validates the request, persists the order in Placed status,
// and publishes Order Placed. A failed publish is logged but does not
// undo the order: it stays Placed until the catalog service sees the
// event, and the caller still gets the id.
func (s *Service) PlaceOrder(ctx context.Context, userID, productID string, quantity int) (string, error) {
	if userID == "" {
		return "", models.Validationf("user_id is required")
	}
	if productID == "" {
		return "", models.Validationf("product_id is required")
	}
	if quantity <= 0 {
		return "", models.Validationf("quantity must be greater than zero")
	}

	order := &models.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Status:    models.OrderPlaced,
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return "", fmt.Errorf("failed to save order: %w", err)
	}

	if err := s.publish(ctx, event.NewOrderPlaced(order.ID, order.ProductID, order.Quantity)); err != nil {
		log.Printf("⚠️ Failed to publish Order Placed for %s: %v", order.ID, err)
	} else {
		log.Printf("📤 Published Order Placed for %s", order.ID)
	}

	return order.ID, nil
}

// ShipOrder moves the order to Shipped. Only orders whose inventory has
// been reserved can ship; anything else is an invalid transition,
// surfaced to the caller rather than silently ignored.
func (s *Service) ShipOrder(ctx context.Context, orderID string) error {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order %s: %w", orderID, models.ErrNotFound)
	}

	if !order.Status.CanTransition(models.OrderShipped) {
		return fmt.Errorf("cannot ship order %s in status %s: %w", orderID, order.Status, models.ErrInvalidTransition)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, models.OrderInventoryReserved, models.OrderShipped); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return fmt.Errorf("order %s changed status concurrently: %w", orderID, models.ErrInvalidTransition)
		}
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if err := s.publish(ctx, event.NewOrderShipped(orderID)); err != nil {
		log.Printf("⚠️ Failed to publish Order Shipped for %s: %v", orderID, err)
	} else {
		log.Printf("📤 Published Order Shipped for %s", orderID)
	}

	return nil
}

func (s *Service) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.FindByID(ctx, orderID)
}

func (s *Service) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.orders.List(ctx)
}

// HandleInventoryUpdated advances the order to InventoryReserved. An
// order that already moved on (redelivered event) is acknowledged
// without change; the status walk never goes backward.
func (s *Service) HandleInventoryUpdated(ctx context.Context, env event.Envelope) broker.Action {
	var updated event.InventoryUpdated
	if err := env.Bind(&updated); err != nil {
		log.Printf("❌ Failed to parse Inventory Updated event: %v", err)
		return broker.Drop
	}
	if updated.OrderID == "" {
		// Inventory changes not tied to an order (catalog adjustments
		// from older producers) carry nothing to correlate.
		log.Printf("📥 Inventory Updated for product %s without order, ignoring", updated.ProductID)
		return broker.Ack
	}

	return s.advance(ctx, updated.OrderID, models.OrderInventoryReserved)
}

// HandleInventoryRejected moves the order to its terminal
// InventoryRejected status.
func (s *Service) HandleInventoryRejected(ctx context.Context, env event.Envelope) broker.Action {
	var rejected event.InventoryRejected
	if err := env.Bind(&rejected); err != nil {
		log.Printf("❌ Failed to parse Inventory Rejected event: %v", err)
		return broker.Drop
	}
	if rejected.OrderID == "" {
		log.Printf("❌ Inventory Rejected event without order id, ignoring")
		return broker.Ack
	}

	log.Printf("📥 Inventory rejected for order %s: %s", rejected.OrderID, rejected.Reason)
	return s.advance(ctx, rejected.OrderID, models.OrderInventoryRejected)
}

func (s *Service) advance(ctx context.Context, orderID string, to models.OrderStatus) broker.Action {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		log.Printf("⚠️ Failed to load order %s: %v", orderID, err)
		return broker.Requeue
	}
	if order == nil {
		// Orders are persisted before Order Placed is published, so this
		// event references something we never owned. Requeueing would
		// loop forever.
		log.Printf("❌ Event for unknown order %s, ignoring", orderID)
		return broker.Ack
	}

	if order.Status == to {
		return broker.Ack // redelivery, already applied
	}
	if !order.Status.CanTransition(to) {
		log.Printf("📥 Order %s is %s, not moving to %s", orderID, order.Status, to)
		return broker.Ack
	}

	if err := s.orders.UpdateStatus(ctx, orderID, order.Status, to); err != nil {
		if errors.Is(err, models.ErrConflict) {
			// Lost a race; redeliver and re-evaluate against the new status.
			return broker.Requeue
		}
		log.Printf("⚠️ Failed to update order %s: %v", orderID, err)
		return broker.Requeue
	}

	log.Printf("✅ Order %s is now %s", orderID, to)
	return broker.Ack
}

func (s *Service) publish(ctx context.Context, payload any) error {
	body, err := event.Encode(payload)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, event.QueueOrderEvents, body)
}
