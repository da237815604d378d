package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

const getVariantBySlug = `
SELECT id, slug, attributes, created_at
FROM variants
WHERE slug = $1
`

func (q *Queries) GetVariantBySlug(ctx context.Context, slug string) (domain.Variant, error) {
	row := q.db.QueryRow(ctx, getVariantBySlug, slug)
	return scanVariant(row)
}

type CreateVariantParams struct {
	Slug       string
	Attributes map[string]string
}

const createVariant = `
INSERT INTO variants (slug, attributes)
VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET slug = EXCLUDED.slug
RETURNING id, slug, attributes, created_at
`

// CreateVariant inserts a variant or returns the existing row with the
// same slug, so identical attribute combinations share one record.
func (q *Queries) CreateVariant(ctx context.Context, arg CreateVariantParams) (domain.Variant, error) {
	attrs, err := json.Marshal(arg.Attributes)
	if err != nil {
		return domain.Variant{}, err
	}
	row := q.db.QueryRow(ctx, createVariant, arg.Slug, attrs)
	return scanVariant(row)
}

func scanVariant(row rowScanner) (domain.Variant, error) {
	var (
		v         domain.Variant
		id        pgtype.UUID
		attrs     []byte
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(&id, &v.Slug, &attrs, &createdAt); err != nil {
		return domain.Variant{}, err
	}
	if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
		return domain.Variant{}, err
	}
	v.ID = fromUUID(id)
	v.CreatedAt = createdAt.Time
	return v, nil
}

type SetProductVariantParams struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int32
	Price     *int64
}

const setProductVariant = `
INSERT INTO product_variants (product_id, variant_id, quantity, price_cents)
VALUES ($1, $2, $3, $4)
ON CONFLICT (product_id, variant_id)
DO UPDATE SET quantity = EXCLUDED.quantity, price_cents = EXCLUDED.price_cents
`

func (q *Queries) SetProductVariant(ctx context.Context, arg SetProductVariantParams) error {
	_, err := q.db.Exec(ctx, setProductVariant,
		pgUUID(arg.ProductID), pgUUID(arg.VariantID), arg.Quantity, pgInt8Ptr(arg.Price))
	return err
}

type CreateOfferParams struct {
	ProductID  uuid.UUID
	PercentOff float64
	StartsAt   pgtype.Timestamptz
	EndsAt     pgtype.Timestamptz
}

const createOffer = `
INSERT INTO offers (product_id, percent_off, starts_at, ends_at)
VALUES ($1, $2, $3, $4)
RETURNING id, product_id, percent_off, starts_at, ends_at, is_active
`

func (q *Queries) CreateOffer(ctx context.Context, arg CreateOfferParams) (domain.Offer, error) {
	var (
		o      domain.Offer
		id     pgtype.UUID
		prodID pgtype.UUID
		starts pgtype.Timestamptz
		ends   pgtype.Timestamptz
	)
	row := q.db.QueryRow(ctx, createOffer,
		pgUUID(arg.ProductID), arg.PercentOff, arg.StartsAt, arg.EndsAt)
	err := row.Scan(&id, &prodID, &o.PercentOff, &starts, &ends, &o.IsActive)
	if err != nil {
		return domain.Offer{}, err
	}
	o.ID = fromUUID(id)
	o.ProductID = fromUUID(prodID)
	o.StartsAt = starts.Time
	o.EndsAt = ends.Time
	return o, nil
}
