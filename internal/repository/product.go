package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

const getProduct = `
SELECT id, shop_id, name, slug, description, base_price_cents, purchase_count, created_at, updated_at
FROM products
WHERE id = $1 AND is_deleted = FALSE
`

const getProductVariants = `
SELECT pv.product_id, pv.variant_id, pv.quantity, pv.price_cents, v.slug, v.attributes, v.created_at
FROM product_variants pv
JOIN variants v ON v.id = pv.variant_id
WHERE pv.product_id = $1
`

const getActiveOffer = `
SELECT id, product_id, percent_off, starts_at, ends_at, is_active
FROM offers
WHERE product_id = $1
  AND is_active = TRUE
  AND starts_at <= $2
  AND ends_at >= $2
ORDER BY starts_at DESC
LIMIT 1
`

// GetProduct loads a product with its variant details and the active
// offer, if one applies right now.
func (q *Queries) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	p, err := q.scanProductRow(q.db.QueryRow(ctx, getProduct, pgUUID(id)))
	if err != nil {
		return domain.Product{}, err
	}

	rows, err := q.db.Query(ctx, getProductVariants, pgUUID(id))
	if err != nil {
		return domain.Product{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			vd        domain.VariantDetail
			productID pgtype.UUID
			variantID pgtype.UUID
			price     pgtype.Int8
			slug      string
			attrs     []byte
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&productID, &variantID, &vd.Quantity, &price, &slug, &attrs, &createdAt); err != nil {
			return domain.Product{}, err
		}
		vd.ProductID = fromUUID(productID)
		vd.VariantID = fromUUID(variantID)
		vd.Price = fromInt8Ptr(price)

		variant := &domain.Variant{
			ID:        vd.VariantID,
			Slug:      slug,
			CreatedAt: createdAt.Time,
		}
		if err := json.Unmarshal(attrs, &variant.Attributes); err != nil {
			return domain.Product{}, err
		}
		vd.Variant = variant
		p.Variants = append(p.Variants, vd)
	}
	if err := rows.Err(); err != nil {
		return domain.Product{}, err
	}

	offer, err := q.activeOffer(ctx, id, time.Now())
	if err != nil {
		return domain.Product{}, err
	}
	p.Offer = offer

	return p, nil
}

func (q *Queries) scanProductRow(row rowScanner) (domain.Product, error) {
	var (
		p         domain.Product
		id        pgtype.UUID
		shopID    pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &shopID, &p.Name, &p.Slug, &p.Description,
		&p.BasePrice, &p.PurchaseCount, &createdAt, &updatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	p.ID = fromUUID(id)
	p.ShopID = fromUUID(shopID)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}

func (q *Queries) activeOffer(ctx context.Context, productID uuid.UUID, now time.Time) (*domain.Offer, error) {
	var (
		o      domain.Offer
		id     pgtype.UUID
		prodID pgtype.UUID
		starts pgtype.Timestamptz
		ends   pgtype.Timestamptz
	)
	row := q.db.QueryRow(ctx, getActiveOffer, pgUUID(productID), now)
	err := row.Scan(&id, &prodID, &o.PercentOff, &starts, &ends, &o.IsActive)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	o.ID = fromUUID(id)
	o.ProductID = fromUUID(prodID)
	o.StartsAt = starts.Time
	o.EndsAt = ends.Time
	return &o, nil
}

type ListProductsParams struct {
	ShopID *uuid.UUID
	Search string
	Limit  int32
	Offset int32
}

const listProducts = `
SELECT id, shop_id, name, slug, description, base_price_cents, purchase_count, created_at, updated_at,
       COUNT(*) OVER() AS total
FROM products
WHERE is_deleted = FALSE
  AND ($1::uuid IS NULL OR shop_id = $1)
  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

// ListProducts returns a page of products and the total match count.
// Variant details and offers are not hydrated on list rows.
func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]domain.Product, int64, error) {
	rows, err := q.db.Query(ctx, listProducts, pgUUIDPtr(arg.ShopID), arg.Search, arg.Limit, arg.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		products []domain.Product
		total    int64
	)
	for rows.Next() {
		var (
			p         domain.Product
			id        pgtype.UUID
			shopID    pgtype.UUID
			createdAt pgtype.Timestamptz
			updatedAt pgtype.Timestamptz
		)
		err := rows.Scan(&id, &shopID, &p.Name, &p.Slug, &p.Description,
			&p.BasePrice, &p.PurchaseCount, &createdAt, &updatedAt, &total)
		if err != nil {
			return nil, 0, err
		}
		p.ID = fromUUID(id)
		p.ShopID = fromUUID(shopID)
		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time
		products = append(products, p)
	}
	return products, total, rows.Err()
}

type CreateProductParams struct {
	ShopID      uuid.UUID
	Name        string
	Slug        string
	Description string
	BasePrice   int64
}

const createProduct = `
INSERT INTO products (shop_id, name, slug, description, base_price_cents)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, shop_id, name, slug, description, base_price_cents, purchase_count, created_at, updated_at
`

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (domain.Product, error) {
	row := q.db.QueryRow(ctx, createProduct,
		pgUUID(arg.ShopID), arg.Name, arg.Slug, arg.Description, arg.BasePrice)
	return q.scanProductRow(row)
}

type IncrementPurchaseCountParams struct {
	ProductID uuid.UUID
	By        int64
}

const incrementPurchaseCount = `
UPDATE products
SET purchase_count = purchase_count + $2, updated_at = now()
WHERE id = $1 AND is_deleted = FALSE
`

func (q *Queries) IncrementPurchaseCount(ctx context.Context, arg IncrementPurchaseCountParams) error {
	_, err := q.db.Exec(ctx, incrementPurchaseCount, pgUUID(arg.ProductID), arg.By)
	return err
}

type VariantStockParams struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int32
}

const decrementVariantStock = `
UPDATE product_variants
SET quantity = quantity - $3
WHERE product_id = $1 AND variant_id = $2 AND quantity >= $3
`

// DecrementVariantStock atomically takes stock from a variant. The
// conditional predicate makes overselling impossible under concurrent
// checkouts: when stock is short the update matches zero rows and the
// caller rejects the order.
func (q *Queries) DecrementVariantStock(ctx context.Context, arg VariantStockParams) (int64, error) {
	tag, err := q.db.Exec(ctx, decrementVariantStock,
		pgUUID(arg.ProductID), pgUUID(arg.VariantID), arg.Quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const restoreVariantStock = `
UPDATE product_variants
SET quantity = quantity + $3
WHERE product_id = $1 AND variant_id = $2
`

// RestoreVariantStock returns previously taken stock, e.g. when a held
// reservation expires.
func (q *Queries) RestoreVariantStock(ctx context.Context, arg VariantStockParams) error {
	_, err := q.db.Exec(ctx, restoreVariantStock,
		pgUUID(arg.ProductID), pgUUID(arg.VariantID), arg.Quantity)
	return err
}
