package models

import (
	"time"
)

// Cart is the single mutable pre-purchase entity, one per user.
// Totals are recomputed on every mutation rather than maintained
// incrementally.
type Cart struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Items      []CartItem `gorm:"foreignKey:CartID" json:"items"`
	TotalItems int        `gorm:"not null;default:0" json:"total_items"`
	TotalPrice float64    `gorm:"not null;default:0" json:"total_price"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName specifies the table name for the Cart model
func (Cart) TableName() string {
	return "carts"
}

// CartItem is one line in a cart. At most one line exists per
// (product, size, color) tuple; additions merge quantities.
type CartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CartID    uint      `gorm:"not null;index" json:"cart_id"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Size      string    `json:"size"`
	Color     string    `json:"color"`
	Price     float64   `gorm:"not null" json:"price"` // unit price captured at add time
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the CartItem model
func (CartItem) TableName() string {
	return "cart_items"
}

// Recompute derives TotalItems and TotalPrice from the current lines.
func (c *Cart) Recompute() {
	totalItems := 0
	totalPrice := 0.0
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalPrice += item.Price * float64(item.Quantity)
	}
	c.TotalItems = totalItems
	c.TotalPrice = totalPrice
}

// FindItem returns the index of the line matching the variant key, or -1.
func (c *Cart) FindItem(productID uint, size, color string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Size == size && item.Color == color {
			return i
		}
	}
	return -1
}
