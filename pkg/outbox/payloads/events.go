package payloads

import (
	"github.com/google/uuid"
)

// ProductLikedEvent is emitted when a user likes a product.
type ProductLikedEvent struct {
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
}

// ProductUnlikedEvent is emitted when a user removes a like.
type ProductUnlikedEvent struct {
	ProductID uuid.UUID `json:"productId"`
	UserID    uuid.UUID `json:"userId"`
}

// ProductViewedEvent is emitted on every tracked product detail view.
type ProductViewedEvent struct {
	ProductID uuid.UUID `json:"productId"`
}

// OrderItemPayload is one product line inside an order event.
type OrderItemPayload struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int64     `json:"quantity"`
}

// OrderCreatedEvent is emitted when an order is placed, carrying every line.
type OrderCreatedEvent struct {
	OrderID uuid.UUID          `json:"orderId"`
	UserID  uuid.UUID          `json:"userId"`
	Items   []OrderItemPayload `json:"items"`
}
