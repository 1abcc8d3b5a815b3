package models

import (
	"time"

	"gorm.io/gorm"
)

// Order status values. The order status mirrors the tracking status
// lifecycle; transitions are validated by the tracking state machine.
const (
	OrderStatusPlaced         = "order_placed"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
)

// Payment method values
const (
	PaymentMethodCOD  = "COD"
	PaymentMethodCard = "Card"
	PaymentMethodUPI  = "UPI"
)

// Payment status values
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

// ShippingAddress is embedded in an order and frozen at checkout
type ShippingAddress struct {
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Pincode     string `json:"pincode"`
	Phone       string `json:"phone"`
}

// Pricing is the breakdown fixed at order creation
type Pricing struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// Order is an immutable snapshot of a purchase. Item data is copied from
// the catalog at checkout so later product edits do not rewrite history;
// only OrderStatus (and payment fields) change after creation.
type Order struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID          uint            `gorm:"not null;index" json:"user_id"`
	User            User            `gorm:"foreignKey:UserID" json:"user"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	Tracking        *Tracking       `gorm:"foreignKey:OrderID" json:"tracking,omitempty"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_" json:"shipping_address"`
	PaymentMethod   string          `gorm:"not null" json:"payment_method"`
	PaymentStatus   string          `gorm:"not null;default:'pending'" json:"payment_status"`
	TransactionID   string          `json:"transaction_id,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	Pricing         Pricing         `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	OrderStatus     string          `gorm:"not null;default:'order_placed';index" json:"order_status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderItem is a frozen copy of a purchased line
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	OrderID   uint    `gorm:"not null;index" json:"order_id"`
	ProductID uint    `gorm:"not null;index" json:"product_id"`
	Name      string  `gorm:"not null" json:"name"`
	Price     float64 `gorm:"not null" json:"price"`
	Image     string  `json:"image"`
	Quantity  int     `gorm:"not null" json:"quantity"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
}

// TableName specifies the table name for the OrderItem model
func (OrderItem) TableName() string {
	return "order_items"
}
