package email

import (
	"fmt"
	"time"
)

// Template is implemented by every email payload type.
type Template interface {
	Subject() string
	TemplateName() string
}

// LineItem is one purchased line as shown in an email.
type LineItem struct {
	Name      string
	Quantity  int32
	UnitCents int64
}

// LineCents is the extended line amount.
func (l LineItem) LineCents() int64 {
	return l.UnitCents * int64(l.Quantity)
}

// OrderPlacedEmail confirms a new order to the buyer.
type OrderPlacedEmail struct {
	To            string
	CustomerName  string
	OrderNumber   string
	PlacedAt      time.Time
	Items         []LineItem
	SubtotalCents int64
	DiscountCents int64
	DeliveryCents int64
	TotalCents    int64
	DeliveryDate  time.Time
	ShippingAddr  string
	PaymentMethod string
}

func (e OrderPlacedEmail) Subject() string {
	return "Order Confirmation - " + e.OrderNumber
}

func (e OrderPlacedEmail) TemplateName() string { return "order_placed.html" }

// OrderCompletedEmail notifies the buyer their order was delivered.
type OrderCompletedEmail struct {
	To           string
	CustomerName string
	OrderNumber  string
	TotalCents   int64
}

func (e OrderCompletedEmail) Subject() string {
	return "Your Order Is Complete - " + e.OrderNumber
}

func (e OrderCompletedEmail) TemplateName() string { return "order_completed.html" }

// OrderCancelledEmail notifies the buyer of a cancellation.
type OrderCancelledEmail struct {
	To           string
	CustomerName string
	OrderNumber  string
	NeedsRefund  bool
}

func (e OrderCancelledEmail) Subject() string {
	return "Order Cancelled - " + e.OrderNumber
}

func (e OrderCancelledEmail) TemplateName() string { return "order_cancelled.html" }

// OrderRefundedEmail confirms a completed refund.
type OrderRefundedEmail struct {
	To           string
	CustomerName string
	OrderNumber  string
	AmountCents  int64
}

func (e OrderRefundedEmail) Subject() string {
	return "Refund Issued - " + e.OrderNumber
}

func (e OrderRefundedEmail) TemplateName() string { return "order_refunded.html" }

// FormatCents renders integer cents as a dollar string for templates.
func FormatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
