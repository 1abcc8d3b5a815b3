package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/controllers"
	"github.com/genwear/genwear-api/middleware"
	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/services"
	"github.com/genwear/genwear-api/utils"
)

func main() {
	log.Println("Starting GENWEAR API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.InitLogger(cfg.LogLevel, cfg.LogFile, cfg.IsProduction())
	defer logger.Sync()

	if err := config.ConnectDatabase(); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.ProductColor{},
		&models.ProductSize{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.Tracking{},
		&models.TrackingEvent{},
		&models.Notification{},
		&models.AnalyticsEvent{},
		&models.SalesMetric{},
	); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	logger.Info("database migration completed")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional: without it realtime events stay instance-local.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, continuing without backplane", zap.Error(err))
			redisClient = nil
		}
	}

	realtime := services.NewRealtimeService(db, redisClient)
	services.SetRealtime(realtime)
	go realtime.Run(ctx)

	metrics := services.NewMetricsService(db)
	if err := metrics.Start(); err != nil {
		logger.Fatal("failed to start metrics scheduler", zap.Error(err))
	}
	defer metrics.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := setupRouter(cfg)

	addr := ":" + cfg.Port
	logger.Info("server listening", zap.String("addr", addr))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

// setupRouter builds the Gin engine with CORS and every route group.
func setupRouter(cfg *config.Config) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.ClientURL != "" {
		corsConfig.AllowOrigins = []string{cfg.ClientURL}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheck)
	router.GET("/ws", controllers.HandleWebSocket)

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", controllers.Register)
			auth.POST("/login", controllers.Login)
			auth.GET("/me", middleware.Authenticate(), controllers.Me)
		}

		products := api.Group("/products")
		{
			products.GET("", middleware.OptionalAuthenticate(), controllers.ListProducts)
			products.GET("/trending", controllers.GetTrendingProducts)
			products.GET("/suggestions", controllers.GetSearchSuggestions)
			products.GET("/:slug", middleware.OptionalAuthenticate(), controllers.GetProduct)
		}

		cart := api.Group("/cart", middleware.Authenticate())
		{
			cart.GET("", controllers.GetCart)
			cart.DELETE("", controllers.ClearCart)
			cart.POST("/items", controllers.AddToCart)
			cart.PUT("/items/:id", controllers.UpdateCartItem)
			cart.DELETE("/items/:id", controllers.RemoveCartItem)
		}

		orders := api.Group("/orders", middleware.Authenticate())
		{
			orders.POST("", controllers.CreateOrder)
			orders.GET("/myorders", controllers.GetMyOrders)
			orders.GET("/:id", controllers.GetOrder)
		}

		api.GET("/track/:trackingNumber", controllers.TrackOrder)

		notifications := api.Group("/notifications", middleware.Authenticate())
		{
			notifications.GET("", controllers.GetNotifications)
			notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			notifications.PUT("/:id/read", controllers.MarkNotificationRead)
		}

		api.POST("/analytics/track", middleware.OptionalAuthenticate(), controllers.TrackEvent)

		admin := api.Group("/admin", middleware.Authenticate(), middleware.RequireAdmin())
		{
			admin.GET("/dashboard", controllers.GetAdminDashboard)

			admin.POST("/products", controllers.CreateProduct)
			admin.PUT("/products/:id", controllers.UpdateProduct)
			admin.DELETE("/products/:id", controllers.DeleteProduct)

			admin.GET("/orders", controllers.ListOrders)
			admin.PUT("/orders/:id/status", controllers.UpdateOrderStatus)

			admin.GET("/customers", controllers.ListCustomers)
			admin.GET("/customers/:id", controllers.GetCustomerProfile)
			admin.PUT("/customers/:id/block", controllers.SetCustomerBlocked)

			admin.GET("/analytics/dashboard", controllers.GetAnalyticsDashboard)
			admin.GET("/analytics/products", controllers.GetProductAnalytics)
			admin.GET("/analytics/customers", controllers.GetCustomerAnalytics)
			admin.GET("/analytics/sales-report", controllers.GetSalesReport)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "GENWEAR API is running",
	})
}
