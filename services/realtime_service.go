package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/utils"
)

// redisChannel is the pub/sub channel shared by all API instances.
const redisChannel = "genwear:realtime"

// Client is one connected websocket session.
type Client struct {
	ID      string
	UserID  uint
	Role    string
	IsAdmin bool
	Conn    *websocket.Conn

	mu sync.Mutex // guards concurrent writes to Conn
}

func (c *Client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// ServerEvent is the wire format pushed to connected sessions.
type ServerEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// envelope is the cross-instance format carried over Redis pub/sub.
type envelope struct {
	Event  string          `json:"event"`
	Scope  string          `json:"scope"` // "all", "admin" or "user"
	UserID uint            `json:"user_id,omitempty"`
	Data   json.RawMessage `json:"data"`
}

// RealtimeService fans out order, stock and analytics events to
// connected admin and customer sessions. The session map is
// instance-local; when a Redis client is configured, events travel
// through pub/sub so a user connected to any instance still receives
// them.
type RealtimeService struct {
	db    *gorm.DB
	redis *redis.Client

	clients    map[string]*Client
	admins     map[string]bool
	register   chan *Client
	unregister chan *Client
	emit       chan envelope
	done       chan struct{}
	mu         sync.RWMutex
}

var realtimeService *RealtimeService

// Realtime returns the process-wide realtime service
func Realtime() *RealtimeService {
	return realtimeService
}

// SetRealtime replaces the process-wide realtime service (used by tests)
func SetRealtime(s *RealtimeService) {
	realtimeService = s
}

// NewRealtimeService builds the service. redisClient may be nil for
// single-instance deployments.
func NewRealtimeService(db *gorm.DB, redisClient *redis.Client) *RealtimeService {
	return &RealtimeService{
		db:         db,
		redis:      redisClient,
		clients:    make(map[string]*Client),
		admins:     make(map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		emit:       make(chan envelope, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub loop, the event bus subscriptions and, when
// configured, the Redis subscriber. It blocks until ctx is cancelled.
func (s *RealtimeService) Run(ctx context.Context) {
	s.subscribeBus()
	if s.redis != nil {
		go s.runRedisSubscriber(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			s.closeAllClients()
			close(s.done)
			return
		case client := <-s.register:
			s.handleRegister(client)
		case client := <-s.unregister:
			s.handleUnregister(client)
		case env := <-s.emit:
			s.deliver(env)
		}
	}
}

// Wait blocks until the service has stopped.
func (s *RealtimeService) Wait() {
	<-s.done
}

func (s *RealtimeService) subscribeBus() {
	bus := Bus()
	_ = bus.Subscribe(TopicOrderCreated, func(e OrderCreatedEvent) {
		s.EmitToAdmins("new-order", e)
	})
	_ = bus.Subscribe(TopicOrderStatus, func(e OrderStatusEvent) {
		s.EmitToUser(e.UserID, fmt.Sprintf("order-update-%d", e.UserID), e)
		s.EmitToAdmins("order-status-changed", e)
	})
	_ = bus.Subscribe(TopicLowStock, func(e LowStockEvent) {
		s.EmitToAdmins("low-stock-alert", e)
	})
	_ = bus.Subscribe(TopicProductView, func(e ProductViewEvent) {
		s.EmitToAdmins("product-view", e)
	})
	_ = bus.Subscribe(TopicAnalyticsUpdate, func(e AnalyticsEventPayload) {
		s.EmitToAdmins("analytics-update", e)
	})
	_ = bus.Subscribe(TopicNotification, func(e NotificationEvent) {
		s.EmitToUser(e.UserID, fmt.Sprintf("notification-%d", e.UserID), e)
	})
}

// HandleConnection registers the session and pumps inbound messages
// until the connection closes. It is called from the /ws handler.
func (s *RealtimeService) HandleConnection(conn *websocket.Conn, userID uint, role string) {
	client := &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		Conn:   conn,
	}
	s.register <- client
	defer func() {
		s.unregister <- client
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleClientMessage(client, raw)
	}
}

// clientMessage is the wire format received from sessions.
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (s *RealtimeService) handleClientMessage(client *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		utils.Logger().Debug("dropping malformed realtime message", zap.String("client", client.ID))
		return
	}

	switch msg.Event {
	case "user-online":
		s.broadcastUserCount()
	case "join-admin":
		// Only sessions authenticated as admin may join the admin room.
		if client.Role != "admin" {
			return
		}
		s.mu.Lock()
		client.IsAdmin = true
		s.admins[client.ID] = true
		s.mu.Unlock()
	case "track-page":
		s.trackPage(client, msg.Data)
	case "track-product-view":
		s.trackProductView(client, msg.Data)
	}
}

func (s *RealtimeService) trackPage(client *Client, data json.RawMessage) {
	var payload struct {
		Page     string `json:"page"`
		Referrer string `json:"referrer"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return
	}

	event := models.AnalyticsEvent{
		Type:      models.EventPageView,
		SessionID: client.ID,
		Page:      payload.Page,
		Duration:  payload.Duration,
	}
	if client.UserID != 0 {
		uid := client.UserID
		event.UserID = &uid
	}
	if err := s.db.Create(&event).Error; err != nil {
		utils.Logger().Warn("failed to record page view", zap.Error(err))
		return
	}
	Bus().Publish(TopicAnalyticsUpdate, AnalyticsEventPayload{Type: models.EventPageView, UserID: event.UserID})
}

func (s *RealtimeService) trackProductView(client *Client, data json.RawMessage) {
	var payload struct {
		ProductID uint    `json:"product_id"`
		Category  string  `json:"category"`
		Price     float64 `json:"price"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ProductID == 0 {
		return
	}

	event := models.AnalyticsEvent{
		Type:      models.EventProductView,
		SessionID: client.ID,
		ProductID: &payload.ProductID,
		Category:  payload.Category,
		Price:     payload.Price,
	}
	if client.UserID != 0 {
		uid := client.UserID
		event.UserID = &uid
	}
	if err := s.db.Create(&event).Error; err != nil {
		utils.Logger().Warn("failed to record product view", zap.Error(err))
		return
	}

	var product models.Product
	if err := s.db.First(&product, payload.ProductID).Error; err == nil {
		s.db.Model(&product).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
		Bus().Publish(TopicProductView, ProductViewEvent{
			ProductID: product.ID,
			Name:      product.Name,
			ViewCount: product.ViewCount + 1,
		})
	}
}

// EmitToAdmins sends an event to every session in the admin room.
func (s *RealtimeService) EmitToAdmins(event string, payload interface{}) {
	s.publish("admin", 0, event, payload)
}

// EmitToUser sends an event to every session belonging to a user.
func (s *RealtimeService) EmitToUser(userID uint, event string, payload interface{}) {
	s.publish("user", userID, event, payload)
}

// EmitToAll broadcasts an event to every connected session.
func (s *RealtimeService) EmitToAll(event string, payload interface{}) {
	s.publish("all", 0, event, payload)
}

func (s *RealtimeService) publish(scope string, userID uint, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		utils.Logger().Warn("failed to marshal realtime payload", zap.String("event", event), zap.Error(err))
		return
	}
	env := envelope{Event: event, Scope: scope, UserID: userID, Data: data}

	// With a Redis backplane every instance (including this one)
	// receives the envelope through the subscriber, so local delivery
	// happens exactly once either way.
	if s.redis != nil {
		raw, err := json.Marshal(env)
		if err != nil {
			return
		}
		if err := s.redis.Publish(context.Background(), redisChannel, raw).Err(); err != nil {
			utils.Logger().Warn("failed to publish realtime event to redis", zap.Error(err))
			s.enqueue(env)
		}
		return
	}
	s.enqueue(env)
}

func (s *RealtimeService) enqueue(env envelope) {
	select {
	case s.emit <- env:
	default:
		utils.Logger().Warn("realtime emit queue full, dropping event", zap.String("event", env.Event))
	}
}

func (s *RealtimeService) runRedisSubscriber(ctx context.Context) {
	sub := s.redis.Subscribe(ctx, redisChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				utils.Logger().Warn("dropping malformed realtime envelope", zap.Error(err))
				continue
			}
			s.enqueue(env)
		}
	}
}

func (s *RealtimeService) deliver(env envelope) {
	out, err := json.Marshal(ServerEvent{Event: env.Event, Data: json.RawMessage(env.Data)})
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	switch env.Scope {
	case "admin":
		for id := range s.admins {
			if client, ok := s.clients[id]; ok {
				s.sendToClient(client, out)
			}
		}
	case "user":
		for _, client := range s.clients {
			if client.UserID == env.UserID {
				s.sendToClient(client, out)
			}
		}
	default:
		for _, client := range s.clients {
			s.sendToClient(client, out)
		}
	}
}

func (s *RealtimeService) sendToClient(client *Client, data []byte) {
	if err := client.send(data); err != nil {
		utils.Logger().Debug("failed to send realtime event",
			zap.String("client", client.ID), zap.Error(err))
	}
}

func (s *RealtimeService) handleRegister(client *Client) {
	s.mu.Lock()
	s.clients[client.ID] = client
	s.mu.Unlock()
	s.broadcastUserCount()
}

func (s *RealtimeService) handleUnregister(client *Client) {
	s.mu.Lock()
	delete(s.clients, client.ID)
	delete(s.admins, client.ID)
	s.mu.Unlock()
	s.broadcastUserCount()
}

func (s *RealtimeService) closeAllClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, client := range s.clients {
		_ = client.Conn.Close()
	}
	s.clients = make(map[string]*Client)
	s.admins = make(map[string]bool)
}

func (s *RealtimeService) broadcastUserCount() {
	s.EmitToAll("active-users", map[string]int{"count": s.ClientCount()})
}

// ClientCount returns the number of connected sessions.
func (s *RealtimeService) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
