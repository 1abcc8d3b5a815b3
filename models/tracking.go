package models

import (
	"time"
)

// allowedTransitions defines the forward path of the fulfillment state
// machine. "cancelled" is additionally reachable from every non-terminal
// state; "delivered" and "cancelled" are terminal.
var allowedTransitions = map[string]string{
	OrderStatusPlaced:         OrderStatusConfirmed,
	OrderStatusConfirmed:      OrderStatusProcessing,
	OrderStatusProcessing:     OrderStatusShipped,
	OrderStatusShipped:        OrderStatusOutForDelivery,
	OrderStatusOutForDelivery: OrderStatusDelivered,
}

// CanTransition reports whether a tracking record may move from one
// status to another.
func CanTransition(from, to string) bool {
	if from == OrderStatusDelivered || from == OrderStatusCancelled {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return allowedTransitions[from] == to
}

// ValidStatus reports whether the value is a known fulfillment status.
func ValidStatus(status string) bool {
	switch status {
	case OrderStatusPlaced, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled:
		return true
	}
	return false
}

// Tracking is the one-to-one fulfillment companion of an order. Its
// timeline is append-only; entries are never edited or removed.
type Tracking struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	OrderID           uint            `gorm:"uniqueIndex;not null" json:"order_id"`
	TrackingNumber    string          `gorm:"uniqueIndex;not null" json:"tracking_number"`
	Status            string          `gorm:"not null;default:'order_placed'" json:"status"`
	Carrier           string          `json:"carrier,omitempty"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	ActualDelivery    *time.Time      `json:"actual_delivery,omitempty"`
	Timeline          []TrackingEvent `gorm:"foreignKey:TrackingID" json:"timeline"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Tracking model
func (Tracking) TableName() string {
	return "trackings"
}

// TrackingEvent is one entry in a tracking timeline
type TrackingEvent struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TrackingID  uint      `gorm:"not null;index" json:"tracking_id"`
	Status      string    `gorm:"not null" json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for the TrackingEvent model
func (TrackingEvent) TableName() string {
	return "tracking_events"
}
