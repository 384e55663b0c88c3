// Package inventory consumes order-placement events and applies the
// conditional stock deduction, publishing the outcome back to the order
// service. The deduction is keyed by order id, so redelivered events
// deduct at most once.
package inventory

import (
	"context"
	"errors"
	"log"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/models"
	"github.com/microshop/microshop/internal/store"
)

type Reconciler struct {
	products store.ProductStore
	bus      broker.Publisher
}

func NewReconciler(products store.ProductStore, bus broker.Publisher) *Reconciler {
	return &Reconciler{
		products: products,
		bus:      bus,
	}
}

// HandleOrderPlaced deducts the ordered quantity from the product's
// inventory and publishes Inventory Updated, or Inventory Rejected when
// the product is missing or stock is short. The envelope is acknowledged
// only after both the deduction and the publish succeeded; any transient
// failure requeues it for redelivery.
func (r *Reconciler) HandleOrderPlaced(ctx context.Context, env event.Envelope) broker.Action {
	var placed event.OrderPlaced
	if err := env.Bind(&placed); err != nil {
		log.Printf("❌ Failed to parse Order Placed event: %v", err)
		return broker.Drop
	}
	if placed.OrderID == "" || placed.ProductID == "" || placed.Quantity <= 0 {
		log.Printf("❌ Malformed Order Placed event: %+v", placed)
		return broker.Drop
	}

	log.Printf("📦 Processing order %s: product %s x%d", placed.OrderID, placed.ProductID, placed.Quantity)

	deduction, err := r.products.DeductForOrder(ctx, placed.OrderID, placed.ProductID, placed.Quantity)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return r.reject(ctx, placed, "product not found")
	case errors.Is(err, models.ErrInsufficientStock):
		return r.reject(ctx, placed, "insufficient stock")
	case errors.Is(err, models.ErrConflict):
		// Raced another delivery of the same order; the next delivery
		// sees the recorded reservation.
		return broker.Requeue
	case err != nil:
		log.Printf("⚠️ Failed to deduct inventory for order %s: %v", placed.OrderID, err)
		return broker.Requeue
	}

	if !deduction.Applied {
		log.Printf("📦 Order %s already deducted, republishing result", placed.OrderID)
	} else {
		log.Printf("✅ Reduced inventory: product %s by %d, now %d", placed.ProductID, placed.Quantity, deduction.NewInventory)
	}

	updated := event.NewInventoryUpdated(placed.OrderID, placed.ProductID, deduction.NewInventory)
	if err := r.publish(ctx, updated); err != nil {
		// The deduction is recorded under the order id; requeue so the
		// redelivery republishes without deducting again.
		log.Printf("⚠️ Failed to publish Inventory Updated for order %s: %v", placed.OrderID, err)
		return broker.Requeue
	}

	return broker.Ack
}

func (r *Reconciler) reject(ctx context.Context, placed event.OrderPlaced, reason string) broker.Action {
	log.Printf("❌ Rejecting order %s: %s", placed.OrderID, reason)

	rejected := event.NewInventoryRejected(placed.OrderID, placed.ProductID, reason)
	if err := r.publish(ctx, rejected); err != nil {
		log.Printf("⚠️ Failed to publish Inventory Rejected for order %s: %v", placed.OrderID, err)
		return broker.Requeue
	}

	return broker.Ack
}

func (r *Reconciler) publish(ctx context.Context, payload any) error {
	body, err := event.Encode(payload)
	if err != nil {
		return err
	}
	return r.bus.Publish(ctx, event.QueueProductEvents, body)
}
