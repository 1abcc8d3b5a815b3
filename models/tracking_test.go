package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"Placed to confirmed", OrderStatusPlaced, OrderStatusConfirmed, true},
		{"Confirmed to processing", OrderStatusConfirmed, OrderStatusProcessing, true},
		{"Processing to shipped", OrderStatusProcessing, OrderStatusShipped, true},
		{"Shipped to out for delivery", OrderStatusShipped, OrderStatusOutForDelivery, true},
		{"Out for delivery to delivered", OrderStatusOutForDelivery, OrderStatusDelivered, true},

		{"Placed cannot skip to shipped", OrderStatusPlaced, OrderStatusShipped, false},
		{"Placed cannot skip to delivered", OrderStatusPlaced, OrderStatusDelivered, false},
		{"Confirmed cannot go back to placed", OrderStatusConfirmed, OrderStatusPlaced, false},
		{"Shipped cannot go back to processing", OrderStatusShipped, OrderStatusProcessing, false},

		{"Cancel from placed", OrderStatusPlaced, OrderStatusCancelled, true},
		{"Cancel from processing", OrderStatusProcessing, OrderStatusCancelled, true},
		{"Cancel from out for delivery", OrderStatusOutForDelivery, OrderStatusCancelled, true},

		{"Delivered is terminal", OrderStatusDelivered, OrderStatusCancelled, false},
		{"Delivered cannot repeat", OrderStatusDelivered, OrderStatusDelivered, false},
		{"Cancelled is terminal", OrderStatusCancelled, OrderStatusConfirmed, false},
		{"Cancelled cannot repeat", OrderStatusCancelled, OrderStatusCancelled, false},

		{"Same state is not a transition", OrderStatusProcessing, OrderStatusProcessing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestValidStatus(t *testing.T) {
	for _, status := range []string{
		OrderStatusPlaced, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered,
		OrderStatusCancelled,
	} {
		assert.True(t, ValidStatus(status), status)
	}

	assert.False(t, ValidStatus("returned"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("DELIVERED"))
}
