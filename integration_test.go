package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/services"
)

func setupIntegrationTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

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
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	cfg := &config.Config{
		JWTSecret: "test-secret-that-is-long-enough-for-hs256",
		GoEnv:     "test",
	}
	config.SetConfig(cfg)

	gin.SetMode(gin.TestMode)
	return db, setupRouter(cfg)
}

func doJSON(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestStorefrontFlow walks one customer from registration through checkout
// and an admin through fulfillment to delivery.
func TestStorefrontFlow(t *testing.T) {
	db, router := setupIntegrationTest(t)

	product := models.Product{
		Name: "Integration Hoodie", Slug: "integration-hoodie", SKU: "GW-INT-1",
		Price: 125, Stock: 10, Category: "topwear", Gender: "unisex", IsActive: true,
	}
	db.Create(&product)

	adminHash, _ := services.HashPassword("adminpassword")
	admin := models.User{FirstName: "Ops", LastName: "Admin", Email: "ops@genwear.test", Password: adminHash, Role: "admin"}
	db.Create(&admin)

	// Register a customer.
	w := doJSON(router, http.MethodPost, "/api/auth/register", "", map[string]interface{}{
		"first_name": "Iris",
		"last_name":  "Vale",
		"email":      "iris@example.com",
		"password":   "supersecret",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var registerResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &registerResp))
	customerToken := registerResp["data"].(map[string]interface{})["token"].(string)

	// Log the admin in.
	w = doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]interface{}{
		"email":    admin.Email,
		"password": "adminpassword",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	var loginResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &loginResp))
	adminToken := loginResp["data"].(map[string]interface{})["token"].(string)

	// Browse the catalog anonymously.
	w = doJSON(router, http.MethodGet, "/api/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Add two units to the cart.
	w = doJSON(router, http.MethodPost, "/api/cart/items", customerToken, map[string]interface{}{
		"product_id": product.ID,
		"quantity":   2,
		"size":       "M",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Check out.
	w = doJSON(router, http.MethodPost, "/api/orders", customerToken, map[string]interface{}{
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 2, "size": "M"},
		},
		"shipping_address": map[string]interface{}{
			"address_line": "44 Harbor Lane",
			"city":         "Mumbai",
			"state":        "MH",
			"pincode":      "400001",
			"phone":        "8888888888",
		},
		"payment_method": "COD",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var checkoutResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &checkoutResp))
	data := checkoutResp["data"].(map[string]interface{})
	orderData := data["order"].(map[string]interface{})
	orderID := uint(orderData["id"].(float64))
	pricing := orderData["pricing"].(map[string]interface{})
	assert.Equal(t, float64(280), pricing["total"])
	trackingNumber := data["tracking"].(map[string]interface{})["tracking_number"].(string)

	// Stock dropped and the cart is empty.
	var reloadedProduct models.Product
	db.First(&reloadedProduct, product.ID)
	assert.Equal(t, 8, reloadedProduct.Stock)
	w = doJSON(router, http.MethodGet, "/api/cart", customerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var cartResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &cartResp))
	assert.Equal(t, float64(0), cartResp["data"].(map[string]interface{})["total_items"])

	// Admin walks the order to delivered.
	for _, status := range []string{"confirmed", "processing", "shipped", "out_for_delivery", "delivered"} {
		w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/admin/orders/%d/status", orderID), adminToken, map[string]interface{}{
			"status": status,
		})
		assert.Equal(t, http.StatusOK, w.Code, "transition to %s", status)
	}

	// The customer cannot use admin endpoints.
	w = doJSON(router, http.MethodGet, "/api/admin/orders", customerToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Public tracking shows the delivered shipment.
	w = doJSON(router, http.MethodGet, "/api/track/"+trackingNumber, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var trackResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &trackResp))
	trackData := trackResp["data"].(map[string]interface{})
	assert.Equal(t, "delivered", trackData["status"])
	assert.NotNil(t, trackData["actual_delivery"])
	timeline := trackData["timeline"].([]interface{})
	assert.Len(t, timeline, 6)

	// The order lifecycle left notifications behind.
	w = doJSON(router, http.MethodGet, "/api/notifications", customerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var notifResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &notifResp))
	notifications := notifResp["data"].(map[string]interface{})["notifications"].([]interface{})
	// Welcome, order placed, and five status updates.
	assert.Len(t, notifications, 7)
}
