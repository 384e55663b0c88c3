// Package catalog manages products and manual inventory adjustments,
// announcing changes on the product_events queue.
package catalog

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/microshop/microshop/internal/broker"
	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/models"
	"github.com/microshop/microshop/internal/store"
)

type Service struct {
	products store.ProductStore
	bus      broker.Publisher
}

func NewService(products store.ProductStore, bus broker.Publisher) *Service {
	return &Service{
		products: products,
		bus:      bus,
	}
}

func (s *Service) CreateProduct(ctx context.Context, name string, price float64, inventory int) (*models.Product, error) {
	if name == "" {
		return nil, models.Validationf("name is required")
	}
	if price <= 0 {
		return nil, models.Validationf("price must be greater than zero")
	}
	if inventory < 0 {
		return nil, models.Validationf("inventory cannot be negative")
	}

	product := &models.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Inventory: inventory,
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	if err := s.publish(ctx, event.NewProductCreated(product.ID)); err != nil {
		log.Printf("⚠️ Failed to publish Product Created for %s: %v", product.ID, err)
	}

	return product, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.List(ctx)
}

// UpdateProduct applies a partial update to name, price, or inventory.
func (s *Service) UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %s: %w", id, models.ErrNotFound)
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, models.Validationf("price must be greater than zero")
		}
		product.Price = *req.Price
	}
	if req.Inventory != nil {
		if *req.Inventory < 0 {
			return nil, models.Validationf("inventory cannot be negative")
		}
		product.Inventory = *req.Inventory
	}

	if err := s.products.Save(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}

	if err := s.publish(ctx, event.NewProductUpdated(product.ID)); err != nil {
		log.Printf("⚠️ Failed to publish Product Updated for %s: %v", product.ID, err)
	}

	return product, nil
}

// AdjustInventory adds delta to the product's inventory (negative =
// reduce) as an atomic conditional write; the result never goes below
// zero.
func (s *Service) AdjustInventory(ctx context.Context, id string, delta int) (int, error) {
	if delta == 0 {
		return 0, models.Validationf("quantity must not be zero")
	}

	newInventory, err := s.products.AdjustInventory(ctx, id, delta)
	if err != nil {
		return 0, err
	}

	if err := s.publish(ctx, event.NewProductUpdated(id)); err != nil {
		log.Printf("⚠️ Failed to publish Product Updated for %s: %v", id, err)
	}

	log.Printf("✅ Inventory for product %s adjusted by %d, now %d", id, delta, newInventory)
	return newInventory, nil
}

func (s *Service) publish(ctx context.Context, payload any) error {
	body, err := event.Encode(payload)
	if err != nil {
		return err
	}
	return s.bus.Publish(ctx, event.QueueProductEvents, body)
}
