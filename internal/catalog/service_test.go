package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/microshop/microshop/internal/event"
	"github.com/microshop/microshop/internal/models"
	"github.com/microshop/microshop/internal/store"
)

type capturePublisher struct {
	published []event.Envelope
}

func (p *capturePublisher) Publish(_ context.Context, _ string, body []byte) error {
	env, err := event.Decode(body)
	if err != nil {
		return err
	}
	p.published = append(p.published, env)
	return nil
}

func newService() (*Service, *store.MemoryProducts, *capturePublisher) {
	products := store.NewMemoryProducts()
	bus := &capturePublisher{}
	return NewService(products, bus), products, bus
}

func TestCreateProductValidation(t *testing.T) {
	tests := []struct {
		name      string
		product   string
		price     float64
		inventory int
	}{
		{"empty name", "", 1.00, 5},
		{"zero price", "widget", 0, 5},
		{"negative price", "widget", -1.50, 5},
		{"negative inventory", "widget", 1.00, -1},
	}

	svc, _, _ := newService()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tt.product, tt.price, tt.inventory)
			var verr *models.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreateProductPublishesProductCreated(t *testing.T) {
	svc, products, bus := newService()

	product, err := svc.CreateProduct(context.Background(), "widget", 9.99, 3)
	require.NoError(t, err)
	require.NotEmpty(t, product.ID)

	stored, err := products.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 3, stored.Inventory)

	require.Len(t, bus.published, 1)
	assert.Equal(t, event.KindProductCreated, bus.published[0].Kind)
}

func TestUpdateProductPartial(t *testing.T) {
	svc, _, _ := newService()
	product, err := svc.CreateProduct(context.Background(), "widget", 9.99, 3)
	require.NoError(t, err)

	price := 12.50
	updated, err := svc.UpdateProduct(context.Background(), product.ID, models.UpdateProductRequest{Price: &price})
	require.NoError(t, err)

	assert.Equal(t, "widget", updated.Name)
	assert.Equal(t, 12.50, updated.Price)
	assert.Equal(t, 3, updated.Inventory)
}

func TestUpdateProductUnknownID(t *testing.T) {
	svc, _, _ := newService()
	_, err := svc.UpdateProduct(context.Background(), "nope", models.UpdateProductRequest{})
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestAdjustInventory(t *testing.T) {
	svc, _, bus := newService()
	product, err := svc.CreateProduct(context.Background(), "widget", 9.99, 10)
	require.NoError(t, err)

	got, err := svc.AdjustInventory(context.Background(), product.ID, -4)
	require.NoError(t, err)
	assert.Equal(t, 6, got)

	_, err = svc.AdjustInventory(context.Background(), product.ID, 0)
	var verr *models.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AdjustInventory(context.Background(), product.ID, -100)
	assert.True(t, errors.Is(err, models.ErrInsufficientStock))

	// Create + one successful adjustment each announce on product_events.
	assert.Len(t, bus.published, 2)
}
