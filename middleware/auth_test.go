package middleware

import (
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

const testSecret = "test-secret-that-is-long-enough-for-hs256"

func setupAuthTest(t *testing.T) (*gorm.DB, *gin.Engine) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	config.SetDB(db)
	config.SetConfig(&config.Config{JWTSecret: testSecret, GoEnv: "test"})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	return db, router
}

func issueToken(t *testing.T, user *models.User) string {
	token, err := services.NewTokenService(testSecret).GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return token
}

func TestAuthenticate(t *testing.T) {
	db, router := setupAuthTest(t)

	user := models.User{FirstName: "Auth", LastName: "User", Email: "auth@example.com", Password: "x", Role: "customer"}
	db.Create(&user)

	blocked := models.User{FirstName: "Blocked", LastName: "User", Email: "blocked@example.com", Password: "x", Role: "customer", IsBlocked: true}
	db.Create(&blocked)

	router.GET("/protected", Authenticate(), func(c *gin.Context) {
		u, err := GetUser(c)
		assert.NoError(t, err)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": u.Email})
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{"Valid token", "Bearer " + issueToken(t, &user), http.StatusOK},
		{"Missing header", "", http.StatusUnauthorized},
		{"Malformed header", "Token abc", http.StatusUnauthorized},
		{"Garbage token", "Bearer not.a.token", http.StatusUnauthorized},
		{"Blocked account", "Bearer " + issueToken(t, &blocked), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthenticate_DeletedAccount(t *testing.T) {
	db, router := setupAuthTest(t)

	user := models.User{FirstName: "Ghost", LastName: "User", Email: "ghost@example.com", Password: "x", Role: "customer"}
	db.Create(&user)
	token := issueToken(t, &user)
	db.Delete(&user)

	router.GET("/protected", Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthenticate(t *testing.T) {
	db, router := setupAuthTest(t)

	user := models.User{FirstName: "Opt", LastName: "User", Email: "opt@example.com", Password: "x", Role: "customer"}
	db.Create(&user)

	router.GET("/open", OptionalAuthenticate(), func(c *gin.Context) {
		if u, err := GetUser(c); err == nil {
			c.JSON(http.StatusOK, gin.H{"email": u.Email})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": nil})
	})

	// Anonymous requests pass straight through.
	req, _ := http.NewRequest(http.MethodGet, "/open", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "null")

	// A valid token attributes the request.
	req, _ = http.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer "+issueToken(t, &user))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "opt@example.com")

	// A bad token degrades to anonymous instead of failing.
	req, _ = http.NewRequest(http.MethodGet, "/open", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "null")
}

func TestRequireAdmin(t *testing.T) {
	db, router := setupAuthTest(t)

	admin := models.User{FirstName: "Admin", LastName: "User", Email: "admin@example.com", Password: "x", Role: "admin"}
	db.Create(&admin)
	customer := models.User{FirstName: "Cust", LastName: "User", Email: "cust@example.com", Password: "x", Role: "customer"}
	db.Create(&customer)

	router.GET("/admin", Authenticate(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name           string
		user           *models.User
		expectedStatus int
	}{
		{"Admin passes", &admin, http.StatusOK},
		{"Customer is forbidden", &customer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+issueToken(t, tt.user))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
