// Package store is the document-store boundary for the core: find by id,
// save, and the atomic conditional writes the inventory invariant needs.
// FindByID returns (nil, nil) when the id does not resolve.
package store

import (
	"context"

	"github.com/microshop/microshop/internal/models"
)

// Deduction is the outcome of DeductForOrder. Applied is false when the
// order id was already processed; NewInventory then carries the inventory
// recorded when the deduction first went through, so the caller can
// republish the same result on redelivery.
type Deduction struct {
	Applied      bool
	NewInventory int
}

type ProductStore interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Save(ctx context.Context, p *models.Product) error

	// DeductForOrder atomically subtracts quantity from the product's
	// inventory, keyed by order id so a redelivered event deducts at most
	// once. Returns models.ErrNotFound or models.ErrInsufficientStock when
	// the deduction cannot be applied; inventory never goes below zero.
	DeductForOrder(ctx context.Context, orderID, productID string, quantity int) (Deduction, error)

	// AdjustInventory atomically adds delta (negative = reduce) and returns
	// the new level. models.ErrInsufficientStock if the result would be
	// negative.
	AdjustInventory(ctx context.Context, productID string, delta int) (int, error)
}

type OrderStore interface {
	FindByID(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context) ([]models.Order, error)
	Save(ctx context.Context, o *models.Order) error

	// UpdateStatus moves the order from one status to another as a single
	// conditional write. models.ErrConflict if the order is no longer in
	// the from status.
	UpdateStatus(ctx context.Context, id string, from, to models.OrderStatus) error
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Save(ctx context.Context, u *models.User) error
}
