package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/models"
)

// GetAdminDashboard handles GET /api/admin/dashboard - headline counts for
// the admin home screen (admin only)
func GetAdminDashboard(c *gin.Context) {
	db := config.GetDB()

	var totalOrders int64
	db.Model(&models.Order{}).Count(&totalOrders)

	var totalRevenue float64
	db.Model(&models.Order{}).
		Select("COALESCE(SUM(pricing_total), 0)").
		Where("order_status <> ?", models.OrderStatusCancelled).
		Scan(&totalRevenue)

	var totalCustomers int64
	db.Model(&models.User{}).Where("role = ?", "customer").Count(&totalCustomers)

	var totalProducts int64
	db.Model(&models.Product{}).Where("is_active = ?", true).Count(&totalProducts)

	var pendingOrders int64
	db.Model(&models.Order{}).
		Where("order_status IN ?", []string{models.OrderStatusPlaced, models.OrderStatusConfirmed, models.OrderStatusProcessing}).
		Count(&pendingOrders)

	var lowStockProducts []models.Product
	db.Where("is_active = ? AND stock <= ?", true, models.LowStockThreshold).
		Order("stock ASC").
		Limit(20).
		Find(&lowStockProducts)

	var recentOrders []models.Order
	db.Preload("User").Order("created_at DESC").Limit(10).Find(&recentOrders)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_orders":    totalOrders,
			"total_revenue":   totalRevenue,
			"total_customers": totalCustomers,
			"total_products":  totalProducts,
			"pending_orders":  pendingOrders,
			"low_stock":       lowStockProducts,
			"recent_orders":   recentOrders,
		},
	})
}

// ListCustomers handles GET /api/admin/customers - paginated customer list
// with optional name or email search (admin only)
func ListCustomers(c *gin.Context) {
	db := config.GetDB()
	query := db.Model(&models.User{}).Where("role = ?", "customer")

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			pattern, pattern, pattern,
		)
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
				"message": "Failed to count customers",
			},
		})
		return
	}

	var customers []models.User
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch customers",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"customers": customers,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

// GetCustomerProfile handles GET /api/admin/customers/:id - one customer
// with order aggregates and recent orders (admin only)
func GetCustomerProfile(c *gin.Context) {
	db := config.GetDB()

	var customer models.User
	if err := db.Where("role = ?", "customer").First(&customer, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CUSTOMER_NOT_FOUND",
				"message": "Customer not found",
			},
		})
		return
	}

	var orderCount int64
	db.Model(&models.Order{}).Where("user_id = ?", customer.ID).Count(&orderCount)

	var totalSpent float64
	db.Model(&models.Order{}).
		Select("COALESCE(SUM(pricing_total), 0)").
		Where("user_id = ? AND order_status <> ?", customer.ID, models.OrderStatusCancelled).
		Scan(&totalSpent)

	var recentOrders []models.Order
	db.Preload("Items").
		Where("user_id = ?", customer.ID).
		Order("created_at DESC").
		Limit(10).
		Find(&recentOrders)

	var lastOrderAt *time.Time
	if len(recentOrders) > 0 {
		lastOrderAt = &recentOrders[0].CreatedAt
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"customer":      customer,
			"order_count":   orderCount,
			"total_spent":   totalSpent,
			"last_order_at": lastOrderAt,
			"recent_orders": recentOrders,
		},
	})
}

// BlockCustomerRequest represents the request body for the block toggle
type BlockCustomerRequest struct {
	Blocked bool `json:"blocked"`
}

// SetCustomerBlocked handles PUT /api/admin/customers/:id/block - blocks or
// unblocks a customer account. Admin accounts cannot be blocked.
func SetCustomerBlocked(c *gin.Context) {
	var req BlockCustomerRequest
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
	var customer models.User
	if err := db.First(&customer, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CUSTOMER_NOT_FOUND",
				"message": "Customer not found",
			},
		})
		return
	}

	if customer.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Admin accounts cannot be blocked",
			},
		})
		return
	}

	if err := db.Model(&customer).Update("is_blocked", req.Blocked).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update customer",
			},
		})
		return
	}
	customer.IsBlocked = req.Blocked

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    customer,
	})
}
