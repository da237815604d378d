package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// PaymentStatus is the payment state of an order, orthogonal to OrderStatus.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod selects the checkout branch.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

// DeliveryOption selects the shipping speed surcharge.
type DeliveryOption string

const (
	DeliveryStandard  DeliveryOption = "standard"
	DeliveryExpress   DeliveryOption = "express"
	DeliveryOvernight DeliveryOption = "overnight"
)

// ValidDeliveryOption reports whether o is a known delivery option.
func ValidDeliveryOption(o DeliveryOption) bool {
	switch o {
	case DeliveryStandard, DeliveryExpress, DeliveryOvernight:
		return true
	}
	return false
}

// Order is a purchase transaction. All monetary amounts are integer cents
// and are derived server-side, never accepted from clients.
type Order struct {
	ID             uuid.UUID     `json:"id"`
	OrderNumber    string        `json:"order_number"`
	UserID         uuid.UUID     `json:"user_id"`
	ShopID         uuid.UUID     `json:"shop_id"`
	CouponID       *uuid.UUID    `json:"coupon_id,omitempty"`
	Items          []OrderItem   `json:"items"`
	DeliveryOption DeliveryOption `json:"delivery_option"`
	DeliveryDate   time.Time     `json:"delivery_date"`
	ShippingAddr   string        `json:"shipping_address"`
	Subtotal       int64         `json:"subtotal"`
	Discount       int64         `json:"discount"`
	DeliveryCharge int64         `json:"delivery_charge"`
	Total          int64         `json:"total"`
	Status         OrderStatus   `json:"status"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	PaymentRef     string        `json:"payment_ref,omitempty"`

	// TransferredToVendor is set once the payout transfer for this order
	// has been issued to the shop's connected account.
	TransferredToVendor bool `json:"transferred_to_vendor"`

	// NeedsRefund marks a cancelled COD order whose collected cash still
	// has to be returned by a later privileged refund call.
	NeedsRefund bool `json:"needs_refund"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem is one purchased line. UnitPrice is resolved from the
// product/variant at order time.
type OrderItem struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int32     `json:"quantity"`
	UnitPrice int64     `json:"unit_price"`
}

// CanTransition reports whether an order may move between fulfillment
// states via the generic status-change operation. Cancellation is not
// reachable here; it has a dedicated operation with its own rules.
// Completed is terminal.
func CanTransition(from, to OrderStatus) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusProcessing
	case OrderStatusProcessing:
		return to == OrderStatusCompleted
	default:
		return false
	}
}

// Cancellable reports whether the dedicated cancel operation may run
// against an order in the given state.
func Cancellable(s OrderStatus) bool {
	return s == OrderStatusPending || s == OrderStatusProcessing
}
