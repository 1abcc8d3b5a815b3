package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/services"
)

const (
	contextUserKey   = "current_user"
	contextClaimsKey = "token_claims"
)

// Authenticate validates the bearer token, loads the account and aborts
// with 401 when the token is missing, invalid or the account is blocked.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c)
		if !ok {
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// OptionalAuthenticate resolves the account when a valid bearer token is
// present but lets anonymous requests through. Used on public endpoints
// that attribute analytics to logged-in callers.
func OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		svc := services.NewTokenService(config.GetConfig().JWTSecret)
		claims, err := svc.ValidateToken(token)
		if err != nil {
			c.Next()
			return
		}

		var user models.User
		if err := config.GetDB().First(&user, claims.UserID).Error; err == nil && !user.IsBlocked {
			c.Set(contextUserKey, &user)
			c.Set(contextClaimsKey, claims)
		}
		c.Next()
	}
}

// RequireAdmin aborts with 403 unless the authenticated account has the
// admin role. It must run after Authenticate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUser(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Authentication required",
				},
			})
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "FORBIDDEN",
					"message": "Admin access required",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func resolveUser(c *gin.Context) (*models.User, bool) {
	token := bearerToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_TOKEN",
				"message": "Authorization header with bearer token is required",
			},
		})
		return nil, false
	}

	svc := services.NewTokenService(config.GetConfig().JWTSecret)
	claims, err := svc.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TOKEN",
				"message": "Failed to validate token",
			},
		})
		return nil, false
	}

	var user models.User
	if err := config.GetDB().First(&user, claims.UserID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "USER_NOT_FOUND",
				"message": "Account for this token no longer exists",
			},
		})
		return nil, false
	}

	if user.IsBlocked {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ACCOUNT_BLOCKED",
				"message": "This account has been blocked",
			},
		})
		return nil, false
	}

	c.Set(contextClaimsKey, claims)
	return &user, true
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUser extracts the authenticated account from the Gin context
func GetUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil, &AuthError{Code: "MISSING_USER", Message: "User not found in context"}
	}

	user, ok := value.(*models.User)
	if !ok {
		return nil, &AuthError{Code: "INVALID_USER", Message: "User in context has unexpected type"}
	}
	return user, nil
}

// GetUserID extracts the authenticated account ID from the Gin context
func GetUserID(c *gin.Context) (uint, error) {
	user, err := GetUser(c)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// SetUser stores an account in the Gin context (used by tests)
func SetUser(c *gin.Context, user *models.User) {
	c.Set(contextUserKey, user)
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
