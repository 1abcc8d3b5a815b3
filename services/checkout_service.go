package services

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/genwear/genwear-api/models"
	"github.com/genwear/genwear-api/utils"
)

var (
	// ErrEmptyOrder is returned when a checkout carries no line items.
	ErrEmptyOrder = errors.New("no order items")
	// ErrProductNotFound is returned when a requested product does not
	// exist or is no longer active.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when any line requests more units
	// than are in stock. The whole checkout fails; no writes survive.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError carries the offending product for the response body.
type InsufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// CheckoutItem is one requested line at checkout
type CheckoutItem struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CheckoutInput is the validated checkout request
type CheckoutInput struct {
	Items           []CheckoutItem
	ShippingAddress models.ShippingAddress
	PaymentMethod   string
	Shipping        float64
	Discount        float64
}

// taxRate is applied to the subtotal; the tax amount is floored to whole
// currency units.
const taxRate = 0.12

// ComputePricing derives the authoritative pricing breakdown from the
// frozen line items. Client-supplied totals are never trusted.
func ComputePricing(items []models.OrderItem, shipping, discount float64) models.Pricing {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
	}
	tax := math.Floor(subtotal * taxRate)
	return models.Pricing{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Discount: discount,
		Total:    subtotal + shipping + tax - discount,
	}
}

// PlaceOrder runs the order placement state machine. The entity writes
// (conditional stock decrement, order insert, tracking seed, cart clear)
// happen inside one transaction, so a checkout either fully succeeds or
// leaves no trace. Notification, analytics and realtime emission run
// after commit as best-effort side effects.
func PlaceOrder(db *gorm.DB, user *models.User, in CheckoutInput) (*models.Order, *models.Tracking, error) {
	if len(in.Items) == 0 {
		return nil, nil, ErrEmptyOrder
	}

	var (
		order       models.Order
		tracking    models.Tracking
		lowStock    []LowStockEvent
		frozenItems []models.OrderItem
	)

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, item := range in.Items {
			var product models.Product
			if err := tx.Where("id = ? AND is_active = ?", item.ProductID, true).First(&product).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}

			// Conditional decrement: rejecting the order when zero rows
			// match is what makes overselling impossible under
			// concurrent checkouts.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Updates(map[string]interface{}{
					"stock":       gorm.Expr("stock - ?", item.Quantity),
					"sales_count": gorm.Expr("sales_count + ?", item.Quantity),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{
					ProductName: product.Name,
					Available:   product.Stock,
					Requested:   item.Quantity,
				}
			}

			frozenItems = append(frozenItems, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Image:     product.ThumbnailURL,
				Quantity:  item.Quantity,
				Size:      item.Size,
				Color:     item.Color,
			})

			if remaining := product.Stock - item.Quantity; remaining <= models.LowStockThreshold {
				lowStock = append(lowStock, LowStockEvent{
					ProductID: product.ID,
					Name:      product.Name,
					SKU:       product.SKU,
					Stock:     remaining,
				})
			}
		}

		order = models.Order{
			OrderNumber:     utils.OrderNumber(),
			UserID:          user.ID,
			Items:           frozenItems,
			ShippingAddress: in.ShippingAddress,
			PaymentMethod:   in.PaymentMethod,
			PaymentStatus:   models.PaymentStatusPending,
			Pricing:         ComputePricing(frozenItems, in.Shipping, in.Discount),
			OrderStatus:     models.OrderStatusPlaced,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		tracking = models.Tracking{
			OrderID:        order.ID,
			TrackingNumber: utils.TrackingNumber(),
			Status:         models.OrderStatusPlaced,
			Timeline: []models.TrackingEvent{{
				Status:      models.OrderStatusPlaced,
				Description: "Order has been placed successfully",
			}},
		}
		if err := tx.Create(&tracking).Error; err != nil {
			return err
		}

		return clearCart(tx, user.ID)
	})
	if err != nil {
		return nil, nil, err
	}

	emitOrderPlacedSideEffects(db, user, &order, lowStock)

	return &order, &tracking, nil
}

// clearCart empties the user's cart without deleting the cart itself.
func clearCart(tx *gorm.DB, userID uint) error {
	var cart models.Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	return tx.Model(&cart).Updates(map[string]interface{}{
		"total_items": 0,
		"total_price": 0,
	}).Error
}

// emitOrderPlacedSideEffects writes the buyer notification and purchase
// analytics event and publishes realtime events. Failures here are logged
// and do not fail the checkout: the order is already committed.
func emitOrderPlacedSideEffects(db *gorm.DB, user *models.User, order *models.Order, lowStock []LowStockEvent) {
	notification := models.Notification{
		UserID:  user.ID,
		Type:    models.NotificationOrderUpdate,
		Title:   "Order Placed Successfully",
		Message: fmt.Sprintf("Your order #%s has been placed and is being processed.", order.OrderNumber),
		OrderID: &order.ID,
	}
	if err := db.Create(&notification).Error; err != nil {
		utils.Logger().Warn("failed to create order notification",
			zap.Uint("order_id", order.ID), zap.Error(err))
	} else {
		Bus().Publish(TopicNotification, NotificationEvent{
			NotificationID: notification.ID,
			UserID:         user.ID,
			Type:           notification.Type,
			Title:          notification.Title,
			Message:        notification.Message,
		})
	}

	event := models.AnalyticsEvent{
		Type:     models.EventPurchase,
		UserID:   &user.ID,
		OrderID:  &order.ID,
		Revenue:  order.Pricing.Total,
		Quantity: len(order.Items),
	}
	if err := db.Create(&event).Error; err != nil {
		utils.Logger().Warn("failed to record purchase analytics",
			zap.Uint("order_id", order.ID), zap.Error(err))
	}

	Bus().Publish(TopicOrderCreated, OrderCreatedEvent{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		UserID:       user.ID,
		CustomerName: user.FullName(),
		Total:        order.Pricing.Total,
		ItemCount:    len(order.Items),
	})
	for _, ls := range lowStock {
		Bus().Publish(TopicLowStock, ls)
	}
}

// UpdateOrderStatus advances an order through the fulfillment state
// machine. The transition check reads the tracking row inside the same
// transaction as the writes, so concurrent requests for the same
// transition cannot both pass and double-append the timeline.
func UpdateOrderStatus(db *gorm.DB, order *models.Order, status, location, description string, estimatedDelivery *time.Time) (*models.Tracking, error) {
	if !models.ValidStatus(status) {
		return nil, &InvalidTransitionError{From: order.OrderStatus, To: status}
	}

	var tracking models.Tracking
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Timeline").Where("order_id = ?", order.ID).First(&tracking).Error; err != nil {
			return err
		}
		if !models.CanTransition(tracking.Status, status) {
			return &InvalidTransitionError{From: tracking.Status, To: status}
		}

		now := time.Now()
		updates := map[string]interface{}{"status": status}
		if status == models.OrderStatusDelivered && tracking.ActualDelivery == nil {
			updates["actual_delivery"] = now
		}
		if estimatedDelivery != nil {
			updates["estimated_delivery"] = *estimatedDelivery
		}
		if err := tx.Model(&tracking).Updates(updates).Error; err != nil {
			return err
		}

		entry := models.TrackingEvent{
			TrackingID:  tracking.ID,
			Status:      status,
			Location:    location,
			Description: description,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		tracking.Timeline = append(tracking.Timeline, entry)

		orderUpdates := map[string]interface{}{"order_status": status}
		if status == models.OrderStatusDelivered && order.PaymentMethod == models.PaymentMethodCOD {
			orderUpdates["payment_status"] = models.PaymentStatusCompleted
			orderUpdates["paid_at"] = now
		}
		return tx.Model(order).Updates(orderUpdates).Error
	})
	if err != nil {
		return nil, err
	}

	emitStatusChangeSideEffects(db, order, status, location, description)

	if err := db.Preload("Timeline").First(&tracking, tracking.ID).Error; err != nil {
		return nil, err
	}
	return &tracking, nil
}

// InvalidTransitionError reports a rejected fulfillment transition.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func emitStatusChangeSideEffects(db *gorm.DB, order *models.Order, status, location, description string) {
	notification := models.Notification{
		UserID:  order.UserID,
		Type:    models.NotificationOrderUpdate,
		Title:   "Order Status Updated",
		Message: fmt.Sprintf("Your order #%s is now %s", order.OrderNumber, humanStatus(status)),
		OrderID: &order.ID,
	}
	if err := db.Create(&notification).Error; err != nil {
		utils.Logger().Warn("failed to create status notification",
			zap.Uint("order_id", order.ID), zap.Error(err))
	} else {
		Bus().Publish(TopicNotification, NotificationEvent{
			NotificationID: notification.ID,
			UserID:         order.UserID,
			Type:           notification.Type,
			Title:          notification.Title,
			Message:        notification.Message,
		})
	}

	Bus().Publish(TopicOrderStatus, OrderStatusEvent{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		UserID:       order.UserID,
		CustomerName: order.User.FullName(),
		Status:       status,
		Location:     location,
		Description:  description,
	})
}

func humanStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
