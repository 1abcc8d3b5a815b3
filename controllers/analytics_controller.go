package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocarina/gocsv"
	"github.com/spf13/cast"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/middleware"
	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/services"
)

// TrackEventRequest represents the request body for recording an analytics event
type TrackEventRequest struct {
	Type       string  `json:"type" binding:"required"`
	SessionID  string  `json:"session_id"`
	ProductID  *uint   `json:"product_id"`
	Page       string  `json:"page"`
	SearchTerm string  `json:"search_term"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	Quantity   int     `json:"quantity"`
	Duration   int     `json:"duration"`
}

// TrackEvent handles POST /api/analytics/track - appends one event to the
// analytics log. Anonymous events are accepted; logged-in callers are
// attributed automatically.
func TrackEvent(c *gin.Context) {
	var req TrackEventRequest
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

	switch req.Type {
	case models.EventPageView, models.EventProductView, models.EventCartAdd,
		models.EventCartRemove, models.EventSearch, models.EventUserAction:
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_EVENT_TYPE",
				"message": "Unknown analytics event type",
			},
		})
		return
	}

	event := models.AnalyticsEvent{
		Type:       req.Type,
		SessionID:  req.SessionID,
		ProductID:  req.ProductID,
		Page:       req.Page,
		SearchTerm: req.SearchTerm,
		Category:   req.Category,
		Price:      req.Price,
		Quantity:   req.Quantity,
		Duration:   req.Duration,
	}
	if user, err := middleware.GetUser(c); err == nil {
		uid := user.ID
		event.UserID = &uid
	}

	if err := config.GetDB().Create(&event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to record event",
			},
		})
		return
	}

	services.Bus().Publish(services.TopicAnalyticsUpdate, services.AnalyticsEventPayload{
		Type:   event.Type,
		UserID: event.UserID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    event,
	})
}

// periodStart resolves the ?period= query into a window start time.
// Supported values: 7d (default), 30d, 90d, 24h.
func periodStart(c *gin.Context) time.Time {
	now := time.Now()
	switch c.DefaultQuery("period", "7d") {
	case "24h":
		return now.Add(-24 * time.Hour)
	case "30d":
		return now.AddDate(0, 0, -30)
	case "90d":
		return now.AddDate(0, 0, -90)
	default:
		return now.AddDate(0, 0, -7)
	}
}

// GetAnalyticsDashboard handles GET /api/admin/analytics/dashboard -
// aggregated metrics for the selected period (admin only)
func GetAnalyticsDashboard(c *gin.Context) {
	db := config.GetDB()
	since := periodStart(c)

	var revenue float64
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(pricing_total), 0)").
		Where("created_at >= ?", since).
		Where("order_status <> ?", models.OrderStatusCancelled).
		Scan(&revenue).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to compute revenue",
			},
		})
		return
	}

	var orderCount int64
	db.Model(&models.Order{}).Where("created_at >= ?", since).Count(&orderCount)

	var pageViews int64
	db.Model(&models.AnalyticsEvent{}).
		Where("type = ? AND created_at >= ?", models.EventPageView, since).
		Count(&pageViews)

	var productViews int64
	db.Model(&models.AnalyticsEvent{}).
		Where("type = ? AND created_at >= ?", models.EventProductView, since).
		Count(&productViews)

	var searches int64
	db.Model(&models.AnalyticsEvent{}).
		Where("type = ? AND created_at >= ?", models.EventSearch, since).
		Count(&searches)

	// Conversion rate is purchases over product views for the period.
	conversionRate := 0.0
	if productViews > 0 {
		conversionRate = float64(orderCount) / float64(productViews) * 100
	}

	type topProduct struct {
		ProductID uint   `json:"product_id"`
		Name      string `json:"name"`
		Views     int64  `json:"views"`
	}
	var topViewed []topProduct
	db.Model(&models.AnalyticsEvent{}).
		Select("analytics_events.product_id, products.name, COUNT(*) AS views").
		Joins("JOIN products ON products.id = analytics_events.product_id").
		Where("analytics_events.type = ? AND analytics_events.created_at >= ?", models.EventProductView, since).
		Group("analytics_events.product_id, products.name").
		Order("views DESC").
		Limit(10).
		Scan(&topViewed)

	type topSearch struct {
		SearchTerm string `json:"search_term"`
		Count      int64  `json:"count"`
	}
	var topSearches []topSearch
	db.Model(&models.AnalyticsEvent{}).
		Select("search_term, COUNT(*) AS count").
		Where("type = ? AND created_at >= ? AND search_term <> ''", models.EventSearch, since).
		Group("search_term").
		Order("count DESC").
		Limit(10).
		Scan(&topSearches)

	type dailyPoint struct {
		Day     string  `json:"day"`
		Revenue float64 `json:"revenue"`
		Orders  int64   `json:"orders"`
	}
	var daily []dailyPoint
	db.Model(&models.Order{}).
		Select("DATE(created_at) AS day, COALESCE(SUM(pricing_total), 0) AS revenue, COUNT(*) AS orders").
		Where("created_at >= ?", since).
		Where("order_status <> ?", models.OrderStatusCancelled).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&daily)

	activeUsers := 0
	if rt := services.Realtime(); rt != nil {
		activeUsers = rt.ClientCount()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"period_start":    since,
			"revenue":         revenue,
			"orders":          orderCount,
			"page_views":      pageViews,
			"product_views":   productViews,
			"searches":        searches,
			"conversion_rate": conversionRate,
			"daily":           daily,
			"active_users":    activeUsers,
			"top_products":    topViewed,
			"top_searches":    topSearches,
		},
	})
}

// GetProductAnalytics handles GET /api/admin/analytics/products - daily
// view series per product for the selected period, optionally narrowed to
// one product with ?product_id= (admin only)
func GetProductAnalytics(c *gin.Context) {
	db := config.GetDB()
	since := periodStart(c)

	query := db.Model(&models.AnalyticsEvent{}).
		Select("analytics_events.product_id, products.name, DATE(analytics_events.created_at) AS day, COUNT(*) AS views").
		Joins("JOIN products ON products.id = analytics_events.product_id").
		Where("analytics_events.type = ? AND analytics_events.created_at >= ?", models.EventProductView, since)
	if raw := c.Query("product_id"); raw != "" {
		query = query.Where("analytics_events.product_id = ?", cast.ToUint(raw))
	}

	type productDay struct {
		ProductID uint   `json:"product_id"`
		Name      string `json:"name"`
		Day       string `json:"day"`
		Views     int64  `json:"views"`
	}
	var series []productDay
	if err := query.
		Group("analytics_events.product_id, products.name, DATE(analytics_events.created_at)").
		Order("day ASC, views DESC").
		Scan(&series).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to aggregate product views",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"period_start": since,
			"series":       series,
		},
	})
}

// customerRow is the aggregate used for the customer analytics buckets
type customerRow struct {
	UserID     uint    `json:"user_id"`
	OrderCount int64   `json:"order_count"`
	TotalSpent float64 `json:"total_spent"`
}

// GetCustomerAnalytics handles GET /api/admin/analytics/customers -
// lifetime value distribution of the customer base (admin only)
func GetCustomerAnalytics(c *gin.Context) {
	db := config.GetDB()

	var rows []customerRow
	if err := db.Model(&models.Order{}).
		Select("user_id, COUNT(*) AS order_count, COALESCE(SUM(pricing_total), 0) AS total_spent").
		Where("order_status <> ?", models.OrderStatusCancelled).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to aggregate customer orders",
			},
		})
		return
	}

	// Lifetime value buckets by total spend.
	buckets := map[string]int{
		"0-100":     0,
		"100-500":   0,
		"500-1000":  0,
		"1000-5000": 0,
		"5000+":     0,
	}
	repeatCustomers := 0
	for _, row := range rows {
		switch {
		case row.TotalSpent < 100:
			buckets["0-100"]++
		case row.TotalSpent < 500:
			buckets["100-500"]++
		case row.TotalSpent < 1000:
			buckets["500-1000"]++
		case row.TotalSpent < 5000:
			buckets["1000-5000"]++
		default:
			buckets["5000+"]++
		}
		if row.OrderCount > 1 {
			repeatCustomers++
		}
	}

	averageLTV := 0.0
	if len(rows) > 0 {
		totalSpend := 0.0
		for _, row := range rows {
			totalSpend += row.TotalSpent
		}
		averageLTV = totalSpend / float64(len(rows))
	}

	var totalCustomers int64
	db.Model(&models.User{}).Where("role = ?", "customer").Count(&totalCustomers)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_customers":       totalCustomers,
			"customers_with_orders": len(rows),
			"repeat_customers":      repeatCustomers,
			"average_ltv":           averageLTV,
			"ltv_buckets":           buckets,
		},
	})
}

// salesReportRow is one CSV line of the sales report
type salesReportRow struct {
	Date              string  `csv:"date"`
	TotalRevenue      float64 `csv:"total_revenue"`
	TotalOrders       int     `csv:"total_orders"`
	AverageOrderValue float64 `csv:"average_order_value"`
	NewCustomers      int     `csv:"new_customers"`
}

// GetSalesReport handles GET /api/admin/analytics/sales-report - the daily
// sales rollup for the selected period as a CSV download (admin only)
func GetSalesReport(c *gin.Context) {
	since := periodStart(c)

	var metrics []models.SalesMetric
	if err := config.GetDB().
		Where("date >= ?", since).
		Order("date ASC").
		Find(&metrics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch sales metrics",
			},
		})
		return
	}

	rows := make([]salesReportRow, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, salesReportRow{
			Date:              m.Date.Format("2006-01-02"),
			TotalRevenue:      m.TotalRevenue,
			TotalOrders:       m.TotalOrders,
			AverageOrderValue: m.AverageOrderValue,
			NewCustomers:      m.NewCustomers,
		})
	}

	csvData, err := gocsv.MarshalString(&rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": "Failed to build CSV report",
			},
		})
		return
	}

	filename := "sales-report-" + time.Now().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", []byte(csvData))
}
