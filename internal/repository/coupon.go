package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

const couponColumns = `id, shop_id, code, discount_type, amount_cents, percent,
	max_discount_cents, min_order_cents, starts_at, ends_at, is_active, created_at`

const getCouponByCode = `
SELECT ` + couponColumns + `
FROM coupons
WHERE code = $1 AND is_deleted = FALSE
`

func (q *Queries) GetCouponByCode(ctx context.Context, code string) (domain.Coupon, error) {
	row := q.db.QueryRow(ctx, getCouponByCode, code)
	return scanCoupon(row)
}

type CreateCouponParams struct {
	ShopID       uuid.UUID
	Code         string
	DiscountType domain.DiscountType
	Amount       int64
	Percent      float64
	MaxDiscount  *int64
	MinOrder     *int64
	StartsAt     time.Time
	EndsAt       time.Time
}

const createCoupon = `
INSERT INTO coupons (shop_id, code, discount_type, amount_cents, percent,
	max_discount_cents, min_order_cents, starts_at, ends_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + couponColumns

func (q *Queries) CreateCoupon(ctx context.Context, arg CreateCouponParams) (domain.Coupon, error) {
	row := q.db.QueryRow(ctx, createCoupon,
		pgUUID(arg.ShopID), arg.Code, string(arg.DiscountType), arg.Amount, arg.Percent,
		pgInt8Ptr(arg.MaxDiscount), pgInt8Ptr(arg.MinOrder), arg.StartsAt, arg.EndsAt)
	return scanCoupon(row)
}

const listCouponsByShop = `
SELECT ` + couponColumns + `
FROM coupons
WHERE shop_id = $1 AND is_deleted = FALSE
ORDER BY created_at DESC
`

func (q *Queries) ListCouponsByShop(ctx context.Context, shopID uuid.UUID) ([]domain.Coupon, error) {
	rows, err := q.db.Query(ctx, listCouponsByShop, pgUUID(shopID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []domain.Coupon
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

func scanCoupon(row rowScanner) (domain.Coupon, error) {
	var (
		c            domain.Coupon
		id           pgtype.UUID
		shopID       pgtype.UUID
		discountType string
		maxDiscount  pgtype.Int8
		minOrder     pgtype.Int8
		starts       pgtype.Timestamptz
		ends         pgtype.Timestamptz
		createdAt    pgtype.Timestamptz
	)
	err := row.Scan(&id, &shopID, &c.Code, &discountType, &c.Amount, &c.Percent,
		&maxDiscount, &minOrder, &starts, &ends, &c.IsActive, &createdAt)
	if err != nil {
		return domain.Coupon{}, err
	}
	c.ID = fromUUID(id)
	c.ShopID = fromUUID(shopID)
	c.DiscountType = domain.DiscountType(discountType)
	c.MaxDiscount = fromInt8Ptr(maxDiscount)
	c.MinOrder = fromInt8Ptr(minOrder)
	c.StartsAt = starts.Time
	c.EndsAt = ends.Time
	c.CreatedAt = createdAt.Time
	return c, nil
}
