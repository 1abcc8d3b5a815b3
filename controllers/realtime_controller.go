package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/services"
	"github.com/genwear/genwear-api/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		cfg := config.GetConfig()
		return cfg.ClientURL == "" || origin == cfg.ClientURL
	},
}

// HandleWebSocket handles GET /ws - upgrades the connection and hands it to
// the realtime hub. A token may be passed as a query parameter since
// browsers cannot set headers on websocket requests; anonymous sessions
// are allowed but cannot join the admin room.
func HandleWebSocket(c *gin.Context) {
	rt := services.Realtime()
	if rt == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "REALTIME_UNAVAILABLE",
				"message": "Realtime service is not running",
			},
		})
		return
	}

	var userID uint
	var role string
	if token := c.Query("token"); token != "" {
		svc := services.NewTokenService(config.GetConfig().JWTSecret)
		if claims, err := svc.ValidateToken(token); err == nil {
			userID = claims.UserID
			role = claims.Role
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Logger().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	rt.HandleConnection(conn, userID, role)
}
