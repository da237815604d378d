package domain

import (
	"time"

	"github.com/google/uuid"
)

// Payment records one payment attempt for an order. An order has at
// most one live payment record, which drives refund reconciliation.
type Payment struct {
	ID        uuid.UUID     `json:"id"`
	OrderID   uuid.UUID     `json:"order_id"`
	Method    PaymentMethod `json:"method"`

	// ProviderPaymentID is the external charge or payment-intent id.
	// Empty for synthesized COD payments.
	ProviderPaymentID string `json:"provider_payment_id,omitempty"`

	Amount    int64         `json:"amount"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// ReservationStatus tracks a stock hold through the online payment flow.
type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationCommitted ReservationStatus = "committed"
	ReservationReleased  ReservationStatus = "released"
)

// StockReservation is a TTL-bounded hold placed on variant stock while
// an online checkout session is outstanding. Stock is only committed
// once the provider confirms payment; expired holds are released back.
type StockReservation struct {
	ID         uuid.UUID         `json:"id"`
	SessionRef string            `json:"session_ref"`
	ProductID  uuid.UUID         `json:"product_id"`
	VariantID  uuid.UUID         `json:"variant_id"`
	Quantity   int32             `json:"quantity"`
	Status     ReservationStatus `json:"status"`
	ExpiresAt  time.Time         `json:"expires_at"`
	CreatedAt  time.Time         `json:"created_at"`
}
