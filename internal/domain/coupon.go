package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType distinguishes flat-amount from percentage coupons.
type DiscountType string

const (
	DiscountFlat       DiscountType = "flat"
	DiscountPercentage DiscountType = "percentage"
)

// Coupon is a shop-scoped, time-bounded discount code.
// Amount is in cents for flat coupons; Percent applies for percentage
// coupons, optionally capped by MaxDiscount (cents).
type Coupon struct {
	ID           uuid.UUID    `json:"id"`
	ShopID       uuid.UUID    `json:"shop_id"`
	Code         string       `json:"code"`
	DiscountType DiscountType `json:"discount_type"`
	Amount       int64        `json:"amount,omitempty"`
	Percent      float64      `json:"percent,omitempty"`
	MaxDiscount  *int64       `json:"max_discount,omitempty"`
	MinOrder     *int64       `json:"min_order,omitempty"`
	StartsAt     time.Time    `json:"starts_at"`
	EndsAt       time.Time    `json:"ends_at"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
}

// WindowContains reports whether the coupon's active window covers now.
func (c *Coupon) WindowContains(now time.Time) bool {
	return !now.Before(c.StartsAt) && !now.After(c.EndsAt)
}
