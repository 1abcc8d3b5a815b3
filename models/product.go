package models

import (
	"time"

	"gorm.io/gorm"
)

// LowStockThreshold is the stock level at or below which admin alerts fire.
const LowStockThreshold = 10

// Product represents a catalog item. Products are never hard-deleted;
// they are retired by setting IsActive to false so historic orders keep
// a valid reference.
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null;index" json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`
	SKU           string         `gorm:"uniqueIndex;not null" json:"sku"`
	Description   string         `json:"description"`
	Price         float64        `gorm:"not null;check:price >= 0" json:"price"`
	OriginalPrice float64        `json:"original_price"`
	Discount      float64        `gorm:"default:0" json:"discount"`
	Stock         int            `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	Category      string         `gorm:"not null;index" json:"category"` // topwear, bottomwear, outerwear, accessories, footwear
	Gender        string         `gorm:"not null;index" json:"gender"`   // men, women, kids, unisex
	Material      string         `json:"material"`
	Fit           string         `json:"fit"`
	Brand         string         `gorm:"default:'GENWEAR'" json:"brand"`
	ThumbnailURL  string         `json:"thumbnail_url"`
	ImageURL      string         `json:"image_url"`
	Colors        []ProductColor `gorm:"foreignKey:ProductID" json:"colors"`
	Sizes         []ProductSize  `gorm:"foreignKey:ProductID" json:"sizes"`
	// No default tag: gorm omits zero-value fields that carry one on
	// Create, which would silently store inactive products as active.
	IsActive      bool           `gorm:"not null;index" json:"is_active"`
	IsNewArrival  bool           `gorm:"not null;default:false" json:"is_new_arrival"`
	IsFeatured    bool           `gorm:"not null;default:false" json:"is_featured"`
	ViewCount     int            `gorm:"not null;default:0" json:"view_count"`
	SalesCount    int            `gorm:"not null;default:0" json:"sales_count"`
	RatingAverage float64        `gorm:"default:0" json:"rating_average"`
	RatingCount   int            `gorm:"default:0" json:"rating_count"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// ProductColor is a selectable color variant of a product
type ProductColor struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"not null" json:"name"`
	Hex       string `json:"hex"`
}

// TableName specifies the table name for the ProductColor model
func (ProductColor) TableName() string {
	return "product_colors"
}

// ProductSize is a selectable size variant of a product with its own stock
type ProductSize struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Size      string `gorm:"not null" json:"size"`
	Stock     int    `gorm:"not null;default:0" json:"stock"`
}

// TableName specifies the table name for the ProductSize model
func (ProductSize) TableName() string {
	return "product_sizes"
}
