package models

import (
	"time"
)

// Analytics event types
const (
	EventPageView    = "page_view"
	EventProductView = "product_view"
	EventCartAdd     = "cart_add"
	EventCartRemove  = "cart_remove"
	EventPurchase    = "purchase"
	EventSearch      = "search"
	EventUserAction  = "user_action"
)

// AnalyticsEvent is an append-only log entry. Events are never mutated
// or deleted by the running system.
type AnalyticsEvent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"not null;index:idx_analytics_type_time" json:"type"`
	UserID     *uint     `gorm:"index" json:"user_id,omitempty"`
	SessionID  string    `json:"session_id,omitempty"`
	ProductID  *uint     `gorm:"index" json:"product_id,omitempty"`
	OrderID    *uint     `json:"order_id,omitempty"`
	Page       string    `json:"page,omitempty"`
	SearchTerm string    `json:"search_term,omitempty"`
	Category   string    `json:"category,omitempty"`
	Price      float64   `json:"price,omitempty"`
	Quantity   int       `json:"quantity,omitempty"`
	Revenue    float64   `json:"revenue,omitempty"`
	Duration   int       `json:"duration,omitempty"`
	CreatedAt  time.Time `gorm:"index:idx_analytics_type_time" json:"created_at"`
}

// TableName specifies the table name for the AnalyticsEvent model
func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}

// SalesMetric is a per-day rollup maintained by the metrics job
type SalesMetric struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Date              time.Time `gorm:"uniqueIndex;not null" json:"date"`
	TotalRevenue      float64   `gorm:"not null;default:0" json:"total_revenue"`
	TotalOrders       int       `gorm:"not null;default:0" json:"total_orders"`
	AverageOrderValue float64   `gorm:"not null;default:0" json:"average_order_value"`
	NewCustomers      int       `gorm:"not null;default:0" json:"new_customers"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName specifies the table name for the SalesMetric model
func (SalesMetric) TableName() string {
	return "sales_metrics"
}
