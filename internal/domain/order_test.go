package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{
			name:    "pending to processing",
			from:    OrderStatusPending,
			to:      OrderStatusProcessing,
			allowed: true,
		},
		{
			name:    "processing to completed",
			from:    OrderStatusProcessing,
			to:      OrderStatusCompleted,
			allowed: true,
		},
		{
			name:    "pending straight to completed is rejected",
			from:    OrderStatusPending,
			to:      OrderStatusCompleted,
			allowed: false,
		},
		{
			name:    "completed is terminal",
			from:    OrderStatusCompleted,
			to:      OrderStatusProcessing,
			allowed: false,
		},
		{
			name:    "cancelled orders cannot move",
			from:    OrderStatusCancelled,
			to:      OrderStatusProcessing,
			allowed: false,
		},
		{
			name:    "cancellation never goes through status change",
			from:    OrderStatusPending,
			to:      OrderStatusCancelled,
			allowed: false,
		},
		{
			name:    "processing cannot cancel via status change",
			from:    OrderStatusProcessing,
			to:      OrderStatusCancelled,
			allowed: false,
		},
		{
			name:    "no backwards transition",
			from:    OrderStatusProcessing,
			to:      OrderStatusPending,
			allowed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestCancellable(t *testing.T) {
	assert.True(t, Cancellable(OrderStatusPending))
	assert.True(t, Cancellable(OrderStatusProcessing))
	assert.False(t, Cancellable(OrderStatusCompleted), "completed orders are final")
	assert.False(t, Cancellable(OrderStatusCancelled), "cannot cancel twice")
}
