package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/middleware"
	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/services"
)

// ProductRequest represents the request body for creating or updating a product
type ProductRequest struct {
	Name          string                `json:"name" binding:"required"`
	Slug          string                `json:"slug" binding:"required"`
	SKU           string                `json:"sku" binding:"required"`
	Description   string                `json:"description"`
	Price         float64               `json:"price" binding:"required,gt=0"`
	OriginalPrice float64               `json:"original_price"`
	Discount      float64               `json:"discount"`
	Stock         int                   `json:"stock" binding:"gte=0"`
	Category      string                `json:"category" binding:"required"`
	Gender        string                `json:"gender" binding:"required"`
	Material      string                `json:"material"`
	Fit           string                `json:"fit"`
	Brand         string                `json:"brand"`
	ThumbnailURL  string                `json:"thumbnail_url"`
	ImageURL      string                `json:"image_url"`
	Colors        []models.ProductColor `json:"colors"`
	Sizes         []models.ProductSize  `json:"sizes"`
	IsActive      *bool                 `json:"is_active"`
	IsNewArrival  bool                  `json:"is_new_arrival"`
	IsFeatured    bool                  `json:"is_featured"`
}

// ListProducts handles GET /api/products - filtered, searched, sorted catalog page.
// Filters combine as a conjunction and only active products are returned.
func ListProducts(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.Product{}).Where("is_active = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if gender := c.Query("gender"); gender != "" {
		query = query.Where("gender = ?", gender)
	}
	if material := c.Query("material"); material != "" {
		query = query.Where("material = ?", material)
	}
	if fit := c.Query("fit"); fit != "" {
		query = query.Where("fit = ?", fit)
	}
	if brand := c.Query("brand"); brand != "" {
		query = query.Where("brand = ?", brand)
	}
	if raw := c.Query("min_price"); raw != "" {
		query = query.Where("price >= ?", cast.ToFloat64(raw))
	}
	if raw := c.Query("max_price"); raw != "" {
		query = query.Where("price <= ?", cast.ToFloat64(raw))
	}
	if cast.ToBool(c.Query("new_arrivals")) {
		query = query.Where("is_new_arrival = ?", true)
	}
	if cast.ToBool(c.Query("featured")) {
		query = query.Where("is_featured = ?", true)
	}
	if cast.ToBool(c.Query("in_stock")) {
		query = query.Where("stock > 0")
	}
	if color := c.Query("color"); color != "" {
		query = query.Where("products.id IN (?)",
			db.Model(&models.ProductColor{}).Select("product_id").Where("LOWER(name) = ?", strings.ToLower(color)))
	}
	if size := c.Query("size"); size != "" {
		query = query.Where("products.id IN (?)",
			db.Model(&models.ProductSize{}).Select("product_id").Where("size = ?", size))
	}

	search := strings.TrimSpace(c.Query("search"))
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
		recordSearchEvent(c, search)
	}

	switch c.Query("sort") {
	case "price_asc":
		query = query.Order("price ASC")
	case "price_desc":
		query = query.Order("price DESC")
	case "popular":
		query = query.Order("sales_count DESC")
	case "rating":
		query = query.Order("rating_average DESC")
	default:
		query = query.Order("created_at DESC")
	}

	page := cast.ToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit := cast.ToInt(c.DefaultQuery("limit", "12"))
	if limit < 1 || limit > 100 {
		limit = 12
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to count products",
			},
		})
		return
	}

	var products []models.Product
	if err := query.Preload("Colors").Preload("Sizes").
		Offset((page - 1) * limit).Limit(limit).
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"products": products,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

// recordSearchEvent logs a catalog search for analytics. Best-effort.
func recordSearchEvent(c *gin.Context, term string) {
	event := models.AnalyticsEvent{
		Type:       models.EventSearch,
		SearchTerm: term,
	}
	if user, err := middleware.GetUser(c); err == nil {
		uid := user.ID
		event.UserID = &uid
	}
	config.GetDB().Create(&event)
}

// GetTrendingProducts handles GET /api/products/trending - most viewed and
// best selling active products
func GetTrendingProducts(c *gin.Context) {
	limit := cast.ToInt(c.DefaultQuery("limit", "8"))
	if limit < 1 || limit > 50 {
		limit = 8
	}

	var products []models.Product
	if err := config.GetDB().
		Where("is_active = ?", true).
		Order("sales_count DESC, view_count DESC").
		Limit(limit).
		Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch trending products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    products,
	})
}

// GetSearchSuggestions handles GET /api/products/suggestions - prefix matches
// on name, brand and category for the search box. Terms under two characters
// return an empty list.
func GetSearchSuggestions(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if len(term) < 2 {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    []string{},
		})
		return
	}

	prefix := strings.ToLower(term) + "%"
	var names []string
	if err := config.GetDB().Model(&models.Product{}).
		Where("is_active = ?", true).
		Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(category) LIKE ?", prefix, prefix, prefix).
		Order("sales_count DESC").
		Limit(10).
		Pluck("name", &names).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch suggestions",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    names,
	})
}

// GetProduct handles GET /api/products/:slug - product detail by slug or
// numeric ID. Each hit increments the view counter and records a product
// view event.
func GetProduct(c *gin.Context) {
	db := config.GetDB()
	key := c.Param("slug")

	var product models.Product
	query := db.Preload("Colors").Preload("Sizes").Where("is_active = ?", true)
	if id := cast.ToUint(key); id > 0 {
		query = query.Where("id = ? OR slug = ?", id, key)
	} else {
		query = query.Where("slug = ?", key)
	}
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PRODUCT_NOT_FOUND",
					"message": "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch product",
			},
		})
		return
	}

	db.Model(&product).UpdateColumn("view_count", gorm.Expr("view_count + 1"))

	event := models.AnalyticsEvent{
		Type:      models.EventProductView,
		ProductID: &product.ID,
		Category:  product.Category,
		Price:     product.Price,
	}
	if user, err := middleware.GetUser(c); err == nil {
		uid := user.ID
		event.UserID = &uid
	}
	db.Create(&event)

	services.Bus().Publish(services.TopicProductView, services.ProductViewEvent{
		ProductID: product.ID,
		Name:      product.Name,
		ViewCount: product.ViewCount + 1,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// CreateProduct handles POST /api/admin/products - adds a catalog item (admin only)
func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	product := models.Product{
		Name:          req.Name,
		Slug:          req.Slug,
		SKU:           req.SKU,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Discount:      req.Discount,
		Stock:         req.Stock,
		Category:      req.Category,
		Gender:        req.Gender,
		Material:      req.Material,
		Fit:           req.Fit,
		ThumbnailURL:  req.ThumbnailURL,
		ImageURL:      req.ImageURL,
		Colors:        req.Colors,
		Sizes:         req.Sizes,
		IsActive:      true,
		IsNewArrival:  req.IsNewArrival,
		IsFeatured:    req.IsFeatured,
	}
	if req.Brand != "" {
		product.Brand = req.Brand
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := config.GetDB().Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create product",
			},
		})
		return
	}

	maybeAlertLowStock(&product)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    product,
	})
}

// UpdateProduct handles PUT /api/admin/products/:id - edits a catalog item (admin only)
func UpdateProduct(c *gin.Context) {
	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	updates := map[string]interface{}{
		"name":           req.Name,
		"slug":           req.Slug,
		"sku":            req.SKU,
		"description":    req.Description,
		"price":          req.Price,
		"original_price": req.OriginalPrice,
		"discount":       req.Discount,
		"stock":          req.Stock,
		"category":       req.Category,
		"gender":         req.Gender,
		"material":       req.Material,
		"fit":            req.Fit,
		"thumbnail_url":  req.ThumbnailURL,
		"image_url":      req.ImageURL,
		"is_new_arrival": req.IsNewArrival,
		"is_featured":    req.IsFeatured,
	}
	if req.Brand != "" {
		updates["brand"] = req.Brand
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := db.Model(&product).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update product",
			},
		})
		return
	}

	if err := db.Preload("Colors").Preload("Sizes").First(&product, product.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load product details",
			},
		})
		return
	}

	maybeAlertLowStock(&product)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    product,
	})
}

// DeleteProduct handles DELETE /api/admin/products/:id - retires a product.
// The row stays so order history keeps its reference.
func DeleteProduct(c *gin.Context) {
	db := config.GetDB()

	var product models.Product
	if err := db.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "PRODUCT_NOT_FOUND",
				"message": "Product not found",
			},
		})
		return
	}

	if err := db.Model(&product).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Product deactivated",
		},
	})
}

func maybeAlertLowStock(product *models.Product) {
	if product.Stock > models.LowStockThreshold {
		return
	}
	services.Bus().Publish(services.TopicLowStock, services.LowStockEvent{
		ProductID: product.ID,
		Name:      product.Name,
		SKU:       product.SKU,
		Stock:     product.Stock,
	})
}
