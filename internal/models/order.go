package models

import "time"

type OrderStatus string

const (
	OrderPlaced            OrderStatus = "Placed"
	OrderInventoryReserved OrderStatus = "InventoryReserved"
	OrderInventoryRejected OrderStatus = "InventoryRejected"
	OrderShipped           OrderStatus = "Shipped"
)

// transitions is the order state machine. InventoryRejected and Shipped
// are terminal; there is no path backward from any status.
var transitions = map[OrderStatus][]OrderStatus{
	OrderPlaced:            {OrderInventoryReserved, OrderInventoryRejected},
	OrderInventoryReserved: {OrderShipped},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type PlaceOrderRequest struct {
	UserID    string `json:"user_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}
