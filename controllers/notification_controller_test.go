package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/genwear/genwear-api/config"
	"github.com/genwear/genwear-api/models"
)

func TestGetNotifications(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	setupTestConfig()

	customer := createTestCustomer(t, db, "notif@example.com")
	other := createTestCustomer(t, db, "notif-other@example.com")

	readAt := time.Now().Add(-time.Hour)
	db.Create(&models.Notification{UserID: customer.ID, Type: models.NotificationOrderUpdate, Title: "A", Message: "a"})
	db.Create(&models.Notification{UserID: customer.ID, Type: models.NotificationOrderUpdate, Title: "B", Message: "b", ReadAt: &readAt})
	db.Create(&models.Notification{UserID: other.ID, Type: models.NotificationSystem, Title: "C", Message: "c"})

	router := setupTestRouter()
	router.GET("/notifications", mockAuthMiddleware(customer), GetNotifications)

	t.Run("All notifications with unread count", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		notifications := data["notifications"].([]interface{})
		assert.Len(t, notifications, 2)
		assert.Equal(t, float64(1), data["unread_count"])
	})

	t.Run("Unread only filter", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/notifications?unread_only=true", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var response map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		data := response["data"].(map[string]interface{})
		notifications := data["notifications"].([]interface{})
		assert.Len(t, notifications, 1)
		assert.Equal(t, "A", notifications[0].(map[string]interface{})["title"])
	})
}

func TestMarkNotificationRead(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	setupTestConfig()

	customer := createTestCustomer(t, db, "notif-read@example.com")
	other := createTestCustomer(t, db, "notif-read-other@example.com")

	notification := models.Notification{UserID: customer.ID, Type: models.NotificationOrderUpdate, Title: "Order", Message: "placed"}
	db.Create(&notification)

	router := setupTestRouter()
	router.PUT("/notifications/:id/read", mockAuthMiddleware(customer), MarkNotificationRead)

	markRead := func() *httptest.ResponseRecorder {
		req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/notifications/%d/read", notification.ID), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := markRead()
	assert.Equal(t, http.StatusOK, w.Code)

	var reloaded models.Notification
	db.First(&reloaded, notification.ID)
	assert.NotNil(t, reloaded.ReadAt)
	firstReadAt := *reloaded.ReadAt

	// Marking again keeps the original stamp.
	time.Sleep(10 * time.Millisecond)
	w = markRead()
	assert.Equal(t, http.StatusOK, w.Code)

	db.First(&reloaded, notification.ID)
	assert.Equal(t, firstReadAt.UnixNano(), reloaded.ReadAt.UnixNano())

	// Another user's notification is invisible.
	otherRouter := setupTestRouter()
	otherRouter.PUT("/notifications/:id/read", mockAuthMiddleware(other), MarkNotificationRead)
	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("/notifications/%d/read", notification.ID), nil)
	rec := httptest.NewRecorder()
	otherRouter.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	db := setupTestDB(t)
	config.SetDB(db)
	setupTestConfig()

	customer := createTestCustomer(t, db, "notif-all@example.com")

	for i := 0; i < 3; i++ {
		db.Create(&models.Notification{UserID: customer.ID, Type: models.NotificationSystem, Title: fmt.Sprintf("N%d", i), Message: "m"})
	}

	router := setupTestRouter()
	router.PUT("/notifications/read-all", mockAuthMiddleware(customer), MarkAllNotificationsRead)

	req, _ := http.NewRequest(http.MethodPut, "/notifications/read-all", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["marked_read"])

	var unread int64
	db.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", customer.ID).Count(&unread)
	assert.Equal(t, int64(0), unread)
}
