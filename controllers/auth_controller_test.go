package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/middleware"
	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/services"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	// An in-memory sqlite database exists per connection, so the pool must
	// stay at one connection.
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

	return db
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

func setupTestConfig() {
	config.SetConfig(&config.Config{
		JWTSecret: "test-secret-that-is-long-enough-for-hs256",
		GoEnv:     "test",
	})
}

// mockAuthMiddleware places an account in the context the same way the
// real Authenticate middleware does
func mockAuthMiddleware(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.SetUser(c, user)
		c.Next()
	}
}

func createTestCustomer(t *testing.T, db *gorm.DB, email string) *models.User {
	hash, err := services.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		FirstName: "Test",
		LastName:  "Customer",
		Email:     email,
		Password:  hash,
		Role:      "customer",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test customer: %v", err)
	}
	return &user
}

func createTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	hash, err := services.HashPassword("password123")
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	admin := models.User{
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@genwear.test",
		Password:  hash,
		Role:      "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("Failed to create test admin: %v", err)
	}
	return &admin
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	setupTestConfig()

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		checkResponse  func(t *testing.T, response map[string]interface{})
	}{
		{
			name: "Successfully register customer",
			requestBody: map[string]interface{}{
				"first_name": "Ava",
				"last_name":  "Stone",
				"email":      "ava@example.com",
				"password":   "supersecret",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				assert.True(t, response["success"].(bool))
				data := response["data"].(map[string]interface{})
				assert.NotEmpty(t, data["token"])
				user := data["user"].(map[string]interface{})
				assert.Equal(t, "ava@example.com", user["email"])
				assert.Equal(t, "customer", user["role"])
				// Password hash must never appear in responses.
				_, exposed := user["password"]
				assert.False(t, exposed)
			},
		},
		{
			name: "Email is normalized to lower case",
			requestBody: map[string]interface{}{
				"first_name": "Ben",
				"last_name":  "Hale",
				"email":      "Ben@Example.COM",
				"password":   "supersecret",
			},
			expectedStatus: http.StatusCreated,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				data := response["data"].(map[string]interface{})
				user := data["user"].(map[string]interface{})
				assert.Equal(t, "ben@example.com", user["email"])
			},
		},
		{
			name: "Fail with duplicate email",
			requestBody: map[string]interface{}{
				"first_name": "Ava",
				"last_name":  "Clone",
				"email":      "ava@example.com",
				"password":   "supersecret",
			},
			expectedStatus: http.StatusConflict,
			expectedError:  "EMAIL_TAKEN",
		},
		{
			name: "Fail with short password",
			requestBody: map[string]interface{}{
				"first_name": "Cal",
				"last_name":  "Reed",
				"email":      "cal@example.com",
				"password":   "short",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name: "Fail with invalid email",
			requestBody: map[string]interface{}{
				"first_name": "Cal",
				"last_name":  "Reed",
				"email":      "not-an-email",
				"password":   "supersecret",
			},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/register", Register)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestRegister_CreatesWelcomeNotification(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	setupTestConfig()

	router := setupTestRouter()
	router.POST("/register", Register)

	body, _ := json.Marshal(map[string]interface{}{
		"first_name": "Dana",
		"last_name":  "Wells",
		"email":      "dana@example.com",
		"password":   "supersecret",
	})
	req, _ := http.NewRequest(http.MethodPost, "/register", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var notifications []models.Notification
	db.Find(&notifications)
	assert.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationWelcome, notifications[0].Type)
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	setupTestConfig()

	customer := createTestCustomer(t, db, "login@example.com")

	blocked := createTestCustomer(t, db, "blocked@example.com")
	db.Model(blocked).Update("is_blocked", true)

	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name: "Successfully login",
			requestBody: map[string]interface{}{
				"email":    customer.Email,
				"password": "password123",
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Fail with wrong password",
			requestBody: map[string]interface{}{
				"email":    customer.Email,
				"password": "wrongpassword",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "INVALID_CREDENTIALS",
		},
		{
			name: "Fail with unknown email",
			requestBody: map[string]interface{}{
				"email":    "nobody@example.com",
				"password": "password123",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "INVALID_CREDENTIALS",
		},
		{
			name: "Fail with blocked account",
			requestBody: map[string]interface{}{
				"email":    blocked.Email,
				"password": "password123",
			},
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "ACCOUNT_BLOCKED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupTestRouter()
			router.POST("/login", Login)

			body, _ := json.Marshal(tt.requestBody)
			req, _ := http.NewRequest(http.MethodPost, "/login", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			assert.NoError(t, err)

			if tt.expectedError != "" {
				assert.False(t, response["success"].(bool))
				errorData := response["error"].(map[string]interface{})
				assert.Equal(t, tt.expectedError, errorData["code"])
			} else {
				data := response["data"].(map[string]interface{})
				assert.NotEmpty(t, data["token"])
			}
		})
	}
}

func TestMe(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	setupTestConfig()

	customer := createTestCustomer(t, db, "me@example.com")

	router := setupTestRouter()
	router.GET("/me", mockAuthMiddleware(customer), Me)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.True(t, response["success"].(bool))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, customer.Email, data["email"])
}
