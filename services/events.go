package services

import (
	"github.com/asaskevich/EventBus"
)

// Event bus topics. Controllers and services publish; the realtime
// service subscribes and fans out to connected websocket sessions.
const (
	TopicOrderCreated    = "order.created"
	TopicOrderStatus     = "order.status"
	TopicLowStock        = "product.lowstock"
	TopicProductView     = "product.view"
	TopicAnalyticsUpdate = "analytics.tracked"
	TopicNotification    = "notification.created"
)

// OrderCreatedEvent is published after a checkout commits
type OrderCreatedEvent struct {
	OrderID      uint    `json:"order_id"`
	OrderNumber  string  `json:"order_number"`
	UserID       uint    `json:"user_id"`
	CustomerName string  `json:"customer_name"`
	Total        float64 `json:"total"`
	ItemCount    int     `json:"item_count"`
}

// OrderStatusEvent is published after an admin status transition
type OrderStatusEvent struct {
	OrderID      uint   `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	UserID       uint   `json:"user_id"`
	CustomerName string `json:"customer_name"`
	Status       string `json:"status"`
	Location     string `json:"location,omitempty"`
	Description  string `json:"description,omitempty"`
}

// LowStockEvent is published when a product's stock falls to the
// alert threshold or below
type LowStockEvent struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
}

// ProductViewEvent is published when a product detail page is viewed
type ProductViewEvent struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	ViewCount int    `json:"view_count"`
}

// AnalyticsEventPayload is published when an analytics event is recorded
type AnalyticsEventPayload struct {
	Type   string `json:"type"`
	UserID *uint  `json:"user_id,omitempty"`
}

// NotificationEvent is published when a user notification is created
type NotificationEvent struct {
	NotificationID uint   `json:"notification_id"`
	UserID         uint   `json:"user_id"`
	Type           string `json:"type"`
	Title          string `json:"title"`
	Message        string `json:"message"`
}

var bus = EventBus.New()

// Bus returns the process-wide event bus
func Bus() EventBus.Bus {
	return bus
}

// SetBus replaces the process-wide event bus (used by tests)
func SetBus(b EventBus.Bus) {
	bus = b
}
