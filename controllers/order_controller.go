package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/middleware"
	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/services"
)

// CreateOrderRequest represents the request body for checkout
type CreateOrderRequest struct {
	Items           []services.CheckoutItem `json:"items" binding:"required,min=1,dive"`
	ShippingAddress models.ShippingAddress  `json:"shipping_address" binding:"required"`
	PaymentMethod   string                  `json:"payment_method" binding:"required,oneof=COD Card UPI"`
	Shipping        float64                 `json:"shipping" binding:"gte=0"`
	Discount        float64                 `json:"discount" binding:"gte=0"`
}

// UpdateOrderStatusRequest represents the request body for a status transition
type UpdateOrderStatusRequest struct {
	Status            string     `json:"status" binding:"required"`
	Location          string     `json:"location"`
	Description       string     `json:"description"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// CreateOrder handles POST /api/orders - places an order from the request
// items. Stock, pricing and cart clearing are settled in one transaction;
// a failed line fails the whole request.
func CreateOrder(c *gin.Context) {
	user, err := middleware.GetUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	var req CreateOrderRequest
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

	order, tracking, err := services.PlaceOrder(config.GetDB(), user, services.CheckoutInput{
		Items:           req.Items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Shipping:        req.Shipping,
		Discount:        req.Discount,
	})
	if err != nil {
		var stockErr *services.InsufficientStockError
		switch {
		case errors.As(err, &stockErr):
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_STOCK",
					"message": stockErr.Error(),
					"details": gin.H{
						"product":   stockErr.ProductName,
						"available": stockErr.Available,
						"requested": stockErr.Requested,
					},
				},
			})
		case errors.Is(err, services.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "PRODUCT_NOT_FOUND",
					"message": "One or more products are unavailable",
				},
			})
		case errors.Is(err, services.ErrEmptyOrder):
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "EMPTY_ORDER",
					"message": "Order must contain at least one item",
				},
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DATABASE_ERROR",
					"message": "Failed to place order",
				},
			})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"order":    order,
			"tracking": tracking,
		},
	})
}

// GetMyOrders handles GET /api/orders/myorders - the user's order history
// with tracking, newest first, optionally filtered by status
func GetMyOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	query := config.GetDB().
		Preload("Items").
		Preload("Tracking").
		Where("user_id = ?", userID)
	if status := c.Query("status"); status != "" {
		query = query.Where("order_status = ?", status)
	}

	var orders []models.Order
	if err := query.
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// GetOrder handles GET /api/orders/:id - a single order with its tracking.
// Customers can only read their own orders; admins can read any.
func GetOrder(c *gin.Context) {
	user, err := middleware.GetUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("Items").Preload("User").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if order.UserID != user.ID && !user.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have access to this order",
			},
		})
		return
	}

	var tracking models.Tracking
	if err := db.Preload("Timeline", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("created_at ASC")
	}).Where("order_id = ?", order.ID).First(&tracking).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"order": order,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":    order,
			"tracking": tracking,
		},
	})
}

// ListOrders handles GET /api/admin/orders - paginated order list with
// optional status and date filters (admin only). Dates are YYYY-MM-DD and
// the range is inclusive.
func ListOrders(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.Order{})

	if status := c.Query("status"); status != "" {
		query = query.Where("order_status = ?", status)
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := time.Parse("2006-01-02", raw); err == nil {
			query = query.Where("created_at >= ?", from)
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := time.Parse("2006-01-02", raw); err == nil {
			query = query.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
	}

	page := cast.ToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	limit := cast.ToInt(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to count orders",
			},
		})
		return
	}

	var orders []models.Order
	if err := query.Preload("Items").Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"orders": orders,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

// UpdateOrderStatus handles PUT /api/admin/orders/:id/status - advances an
// order through the fulfillment sequence (admin only). Transitions outside
// the defined sequence are rejected with 400.
func UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
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

	db := config.GetDB()
	var order models.Order
	if err := db.Preload("User").First(&order, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	tracking, err := services.UpdateOrderStatus(db, &order, req.Status, req.Location, req.Description, req.EstimatedDelivery)
	if err != nil {
		var transitionErr *services.InvalidTransitionError
		if errors.As(err, &transitionErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TRANSITION",
					"message": transitionErr.Error(),
					"details": gin.H{
						"from": transitionErr.From,
						"to":   transitionErr.To,
					},
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order status",
			},
		})
		return
	}

	if err := db.Preload("Items").First(&order, order.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to load order details",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"order":    order,
			"tracking": tracking,
		},
	})
}

// TrackOrder handles GET /api/track/:trackingNumber - public tracking
// lookup. No account information is exposed.
func TrackOrder(c *gin.Context) {
	var tracking models.Tracking
	err := config.GetDB().
		Preload("Timeline", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC")
		}).
		Where("tracking_number = ?", c.Param("trackingNumber")).
		First(&tracking).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TRACKING_NOT_FOUND",
				"message": "No shipment found for this tracking number",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"tracking_number":    tracking.TrackingNumber,
			"status":             tracking.Status,
			"carrier":            tracking.Carrier,
			"estimated_delivery": tracking.EstimatedDelivery,
			"actual_delivery":    tracking.ActualDelivery,
			"timeline":           tracking.Timeline,
		},
	})
}
