package models

import "time"

type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Inventory int       `json:"inventory"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateProductRequest struct {
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price" binding:"required"`
	Inventory int     `json:"inventory"`
}

// UpdateProductRequest carries a partial update; nil fields are left alone.
type UpdateProductRequest struct {
	Name      *string  `json:"name"`
	Price     *float64 `json:"price"`
	Inventory *int     `json:"inventory"`
}

// AdjustInventoryRequest carries a delta: negative = reduce, positive = add.
type AdjustInventoryRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}
