package models

import (
	"time"
)

// Notification types
const (
	NotificationOrderUpdate = "order_update"
	NotificationPromotion   = "promotion"
	NotificationSystem      = "system"
	NotificationWelcome     = "welcome"
)

// Notification is a per-user message created as a side effect of order
// lifecycle changes. ReadAt is unset until the user marks it read and is
// never cleared afterwards.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"not null" json:"type"`
	Title     string     `gorm:"not null" json:"title"`
	Message   string     `gorm:"not null" json:"message"`
	OrderID   *uint      `gorm:"index" json:"order_id,omitempty"`
	ProductID *uint      `json:"product_id,omitempty"`
	Priority  string     `gorm:"default:'medium'" json:"priority"` // low, medium, high, urgent
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Notification model
func (Notification) TableName() string {
	return "notifications"
}
