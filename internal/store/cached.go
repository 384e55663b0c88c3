package store

import (
	"context"
	"fmt"
	"log"

	"github.com/microshop/microshop/internal/cache"
	"github.com/microshop/microshop/internal/models"
)

// CachedProducts wraps a ProductStore with a Redis read-through cache.
// Every inventory write invalidates the product's entry so readers never
// see a stale level for long.
type CachedProducts struct {
	store ProductStore
	cache *cache.RedisCache
}

func NewCachedProducts(store ProductStore, cache *cache.RedisCache) *CachedProducts {
	return &CachedProducts{
		store: store,
		cache: cache,
	}
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

func allProductsKey() string {
	return "products:all"
}

func (r *CachedProducts) FindByID(ctx context.Context, id string) (*models.Product, error) {
	cacheKey := productKey(id)

	// Try cache first
	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		return &product, nil
	}

	if err != cache.Nil {
		log.Printf("⚠️ Cache error: %v", err)
	}

	p, err := r.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p == nil {
		return nil, nil
	}

	if err := r.cache.Set(ctx, cacheKey, p); err != nil {
		log.Printf("⚠️ Failed to cache product: %v", err)
	}

	return p, nil
}

func (r *CachedProducts) List(ctx context.Context) ([]models.Product, error) {
	cacheKey := allProductsKey()

	var products []models.Product
	err := r.cache.Get(ctx, cacheKey, &products)
	if err == nil {
		return products, nil
	}

	products, err = r.store.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, cacheKey, products); err != nil {
		log.Printf("⚠️ Failed to cache products: %v", err)
	}

	return products, nil
}

func (r *CachedProducts) Save(ctx context.Context, p *models.Product) error {
	if err := r.store.Save(ctx, p); err != nil {
		return err
	}

	r.invalidate(ctx, p.ID)
	return nil
}

func (r *CachedProducts) DeductForOrder(ctx context.Context, orderID, productID string, quantity int) (Deduction, error) {
	d, err := r.store.DeductForOrder(ctx, orderID, productID, quantity)
	if err != nil {
		return d, err
	}

	r.invalidate(ctx, productID)
	return d, nil
}

func (r *CachedProducts) AdjustInventory(ctx context.Context, productID string, delta int) (int, error) {
	newInventory, err := r.store.AdjustInventory(ctx, productID, delta)
	if err != nil {
		return 0, err
	}

	r.invalidate(ctx, productID)
	return newInventory, nil
}

func (r *CachedProducts) invalidate(ctx context.Context, productID string) {
	if err := r.cache.Delete(ctx, productKey(productID)); err != nil {
		log.Printf("⚠️ Failed to invalidate cache for product %s: %v", productID, err)
	}
	if err := r.cache.Delete(ctx, allProductsKey()); err != nil {
		log.Printf("⚠️ Failed to invalidate products cache: %v", err)
	}
}
