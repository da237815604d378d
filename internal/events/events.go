// Package events publishes after-commit domain events. Delivery is
// fire and forget: the transactional outcome of an operation never
// depends on the broker.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event subjects.
const (
	SubjectOrderPlaced    = "order.placed"
	SubjectOrderCompleted = "order.completed"
	SubjectOrderCancelled = "order.cancelled"
	SubjectOrderRefunded  = "order.refunded"
)

// OrderEvent is emitted after an order-mutating transaction commits.
// Consumers perform notification side effects (email, invoices).
type OrderEvent struct {
	Subject     string    `json:"subject"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uuid.UUID `json:"user_id"`
	ShopID      uuid.UUID `json:"shop_id"`
	TotalCents  int64     `json:"total_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Publisher emits domain events. Implementations must not block the
// caller on delivery and must never return transport errors upward.
type Publisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent)
}

// NoopPublisher discards events. Wired when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) {}
