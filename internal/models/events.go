package models

import "time"

// Event types
const (
	EventTypeOrderCreated   = "ORDER_CREATED"
	EventTypeOrderShipped   = "ORDER_SHIPPED"
	EventTypeOrderDelivered = "ORDER_DELIVERED"
	EventTypeReviewUpserted = "REVIEW_UPSERTED"
	EventTypeReviewDeleted  = "REVIEW_DELETED"
	EventTypeStockDepleted  = "STOCK_DEPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItemData represents line item data carried in events
type OrderItemData struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// OrderCreatedEvent published when an order is placed at checkout
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    int64           `json:"order_id"`
	UserID     string          `json:"user_id"`
	TotalPrice float64         `json:"total_price"`
	Items      []OrderItemData `json:"items"`
}

// OrderShippedEvent published after the shipment transition commits; the
// stock worker uses the item list to refresh the Redis stock mirror.
type OrderShippedEvent struct {
	BaseEvent
	OrderID int64           `json:"order_id"`
	UserID  string          `json:"user_id"`
	Items   []OrderItemData `json:"items"`
}

// OrderDeliveredEvent published when an order reaches its terminal status
type OrderDeliveredEvent struct {
	BaseEvent
	OrderID     int64     `json:"order_id"`
	UserID      string    `json:"user_id"`
	DeliveredAt time.Time `json:"delivered_at"`
}

// ReviewUpsertedEvent published after a review write and rating recompute
type ReviewUpsertedEvent struct {
	BaseEvent
	ProductID    int64   `json:"product_id"`
	UserID       string  `json:"user_id"`
	Rating       int     `json:"rating"`
	Ratings      float64 `json:"ratings"`
	NumOfReviews int     `json:"num_of_reviews"`
}

// StockDepletedEvent published by the stock worker when a shipped product
// hits zero stock
type StockDepletedEvent struct {
	BaseEvent
	ProductID int64 `json:"product_id"`
}
