// Package event defines the wire format for all inter-service events:
// a flat UTF-8 JSON object with a mandatory "event" field naming the kind
// plus kind-specific fields. Envelopes are immutable once published.
package event

// Kind identifies an event on the wire.
type Kind string

const (
	KindOrderPlaced        Kind = "Order Placed"
	KindOrderShipped       Kind = "Order Shipped"
	KindInventoryUpdated   Kind = "Inventory Updated"
	KindInventoryRejected  Kind = "Inventory Rejected"
	KindProductCreated     Kind = "Product Created"
	KindProductUpdated     Kind = "Product Updated"
	KindUserRegistered     Kind = "User Registered"
	KindUserProfileUpdated Kind = "User Profile Updated"
)

// Durable queue names. Multiple kinds share a queue; consumers filter
// by the event field.
const (
	QueueOrderEvents   = "order_events"
	QueueProductEvents = "product_events"
	QueueUserEvents    = "user_events"
)

// OrderPlaced is published by the order service when an order is created.
type OrderPlaced struct {
	Event     Kind   `json:"event"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func NewOrderPlaced(orderID, productID string, quantity int) OrderPlaced {
	return OrderPlaced{Event: KindOrderPlaced, OrderID: orderID, ProductID: productID, Quantity: quantity}
}

// OrderShipped is published by the order service on a ship request.
type OrderShipped struct {
	Event   Kind   `json:"event"`
	OrderID string `json:"orderId"`
}

func NewOrderShipped(orderID string) OrderShipped {
	return OrderShipped{Event: KindOrderShipped, OrderID: orderID}
}

// InventoryUpdated is published by the inventory reconciler after a
// successful deduction. OrderID lets the order service correlate the
// update back to the order that caused it.
type InventoryUpdated struct {
	Event        Kind   `json:"event"`
	OrderID      string `json:"orderId"`
	ProductID    string `json:"productId"`
	NewInventory int    `json:"newInventory"`
}

func NewInventoryUpdated(orderID, productID string, newInventory int) InventoryUpdated {
	return InventoryUpdated{Event: KindInventoryUpdated, OrderID: orderID, ProductID: productID, NewInventory: newInventory}
}

// InventoryRejected is published when a deduction cannot be applied.
type InventoryRejected struct {
	Event     Kind   `json:"event"`
	OrderID   string `json:"orderId"`
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
}

func NewInventoryRejected(orderID, productID, reason string) InventoryRejected {
	return InventoryRejected{Event: KindInventoryRejected, OrderID: orderID, ProductID: productID, Reason: reason}
}

type ProductCreated struct {
	Event     Kind   `json:"event"`
	ProductID string `json:"productId"`
}

func NewProductCreated(productID string) ProductCreated {
	return ProductCreated{Event: KindProductCreated, ProductID: productID}
}

type ProductUpdated struct {
	Event     Kind   `json:"event"`
	ProductID string `json:"productId"`
}

func NewProductUpdated(productID string) ProductUpdated {
	return ProductUpdated{Event: KindProductUpdated, ProductID: productID}
}

type UserRegistered struct {
	Event  Kind   `json:"event"`
	UserID string `json:"userId"`
}

func NewUserRegistered(userID string) UserRegistered {
	return UserRegistered{Event: KindUserRegistered, UserID: userID}
}

type UserProfileUpdated struct {
	Event  Kind   `json:"event"`
	UserID string `json:"userId"`
}

func NewUserProfileUpdated(userID string) UserProfileUpdated {
	return UserProfileUpdated{Event: KindUserProfileUpdated, UserID: userID}
}
