// Package pricing computes order amounts. Everything here is a pure
// function of already-loaded state, so a quote recomputed from the
// same inputs always yields the same result.
package pricing

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/domain"
)

// Line is one priced order line. UnitPrice is resolved server-side,
// never taken from client input.
type Line struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int32
	UnitPrice int64
}

// Quote is the full derived amount breakdown persisted on an order.
type Quote struct {
	Lines          []Line
	Subtotal       int64
	Discount       int64
	DeliveryCharge int64
	Total          int64
}

// UnitPrice resolves the effective price of one unit. An active offer
// discounts the product's base price; otherwise the variant's own
// price applies when set, falling back to the base price.
func UnitPrice(p *domain.Product, vd *domain.VariantDetail, now time.Time) int64 {
	if p.Offer.ActiveAt(now) {
		return int64(math.Round(float64(p.BasePrice) * (1 - p.Offer.PercentOff/100)))
	}
	if vd.Price != nil {
		return *vd.Price
	}
	return p.BasePrice
}

// Discount computes the coupon discount against a subtotal. The result
// never exceeds the subtotal, and percentage discounts respect the
// coupon's cap when set. A nil coupon discounts nothing.
//
// Both the checkout path and the cart-preview path go through this
// function, so preview and actual charge cannot diverge.
func Discount(c *domain.Coupon, subtotal int64) int64 {
	if c == nil {
		return 0
	}

	var discount int64
	switch c.DiscountType {
	case domain.DiscountPercentage:
		discount = int64(math.Round(float64(subtotal) * c.Percent / 100))
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
	case domain.DiscountFlat:
		discount = c.Amount
	}

	if discount > subtotal {
		discount = subtotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// NewQuote assembles the final breakdown from priced lines.
func NewQuote(lines []Line, discount, deliveryCharge int64) Quote {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * int64(l.Quantity)
	}
	return Quote{
		Lines:          lines,
		Subtotal:       subtotal,
		Discount:       discount,
		DeliveryCharge: deliveryCharge,
		Total:          subtotal - discount + deliveryCharge,
	}
}
