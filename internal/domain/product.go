package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Product is a shop listing. BasePrice is in integer cents.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	ShopID        uuid.UUID       `json:"shop_id"`
	Name          string          `json:"name"`
	Slug          string          `json:"slug"`
	Description   string          `json:"description,omitempty"`
	BasePrice     int64           `json:"base_price"`
	PurchaseCount int64           `json:"purchase_count"`
	Variants      []VariantDetail `json:"variants,omitempty"`
	Offer         *Offer          `json:"offer,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// VariantDetail links a product to a shared variant with per-product
// stock and an optional per-variant price override.
type VariantDetail struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int32     `json:"quantity"`

	// Price overrides the product base price when set.
	Price *int64 `json:"price,omitempty"`

	Variant *Variant `json:"variant,omitempty"`
}

// Variant is a reusable attribute combination (color/storage/ram/...),
// deduplicated across products by its generated slug.
type Variant struct {
	ID         uuid.UUID         `json:"id"`
	Slug       string            `json:"slug"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
}

// VariantSlug generates the canonical dedupe key for an attribute set.
// Pairs are sorted by key so identical combinations always collide.
func VariantSlug(attributes map[string]string) string {
	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s-%s", normalizeSlugPart(k), normalizeSlugPart(attributes[k])))
	}
	return strings.Join(parts, "_")
}

func normalizeSlugPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, " ", "-")
}

// Offer is a product-level percentage discount off the base price,
// independent of coupons.
type Offer struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"product_id"`
	PercentOff float64   `json:"percent_off"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	IsActive   bool      `json:"is_active"`
}

// ActiveAt reports whether the offer applies at the given instant.
func (o *Offer) ActiveAt(now time.Time) bool {
	if o == nil || !o.IsActive {
		return false
	}
	return !now.Before(o.StartsAt) && !now.After(o.EndsAt)
}

// FindVariant locates the product's variant-detail entry by variant id.
func (p *Product) FindVariant(variantID uuid.UUID) (*VariantDetail, bool) {
	for i := range p.Variants {
		if p.Variants[i].VariantID == variantID {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// TotalStock is the sum of the product's per-variant quantities.
func (p *Product) TotalStock() int32 {
	var total int32
	for _, v := range p.Variants {
		total += v.Quantity
	}
	return total
}
