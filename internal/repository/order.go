package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

const orderColumns = `id, order_number, user_id, shop_id, coupon_id, delivery_option,
	delivery_date, shipping_address, subtotal_cents, discount_cents, delivery_cents,
	total_cents, status, payment_method, payment_status, payment_ref,
	transferred_to_vendor, needs_refund, created_at, updated_at`

type CreateOrderParams struct {
	OrderNumber    string
	UserID         uuid.UUID
	ShopID         uuid.UUID
	CouponID       *uuid.UUID
	DeliveryOption domain.DeliveryOption
	DeliveryDate   time.Time
	ShippingAddr   string
	Subtotal       int64
	Discount       int64
	DeliveryCharge int64
	Total          int64
	Status         domain.OrderStatus
	PaymentMethod  domain.PaymentMethod
	PaymentStatus  domain.PaymentStatus
	PaymentRef     string
}

const createOrder = `
INSERT INTO orders (order_number, user_id, shop_id, coupon_id, delivery_option,
	delivery_date, shipping_address, subtotal_cents, discount_cents, delivery_cents,
	total_cents, status, payment_method, payment_status, payment_ref)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + orderColumns

func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (domain.Order, error) {
	row := q.db.QueryRow(ctx, createOrder,
		arg.OrderNumber, pgUUID(arg.UserID), pgUUID(arg.ShopID), pgUUIDPtr(arg.CouponID),
		string(arg.DeliveryOption), arg.DeliveryDate, arg.ShippingAddr,
		arg.Subtotal, arg.Discount, arg.DeliveryCharge, arg.Total,
		string(arg.Status), string(arg.PaymentMethod), string(arg.PaymentStatus), arg.PaymentRef)
	return scanOrder(row)
}

type CreateOrderItemParams struct {
	OrderID   uuid.UUID
	ProductID uuid.UUID
	VariantID uuid.UUID
	Quantity  int32
	UnitPrice int64
}

const createOrderItem = `
INSERT INTO order_items (order_id, product_id, variant_id, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, product_id, variant_id, quantity, unit_price_cents
`

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (domain.OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		pgUUID(arg.OrderID), pgUUID(arg.ProductID), pgUUID(arg.VariantID),
		arg.Quantity, arg.UnitPrice)
	return scanOrderItem(row)
}

const getOrder = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1
`

const getOrderItems = `
SELECT id, order_id, product_id, variant_id, quantity, unit_price_cents
FROM order_items
WHERE order_id = $1
`

// GetOrder loads an order with its line items. Orders are never
// soft-deleted; cancellation is a status, not removal.
func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	o, err := scanOrder(q.db.QueryRow(ctx, getOrder, pgUUID(id)))
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := q.db.Query(ctx, getOrderItems, pgUUID(id))
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, item)
	}
	return o, rows.Err()
}

const getOrderByPaymentRef = `
SELECT ` + orderColumns + `
FROM orders
WHERE payment_ref = $1
`

// GetOrderByPaymentRef resolves an order by its provider payment
// reference. Used by the webhook finalizer to detect replays; a
// partial unique index guarantees at most one match.
func (q *Queries) GetOrderByPaymentRef(ctx context.Context, paymentRef string) (domain.Order, error) {
	return scanOrder(q.db.QueryRow(ctx, getOrderByPaymentRef, paymentRef))
}

type ListOrdersParams struct {
	ID     uuid.UUID // user id or shop id depending on the query
	Limit  int32
	Offset int32
}

const listOrdersByUser = `
SELECT ` + orderColumns + `, COUNT(*) OVER() AS total
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListOrdersByUser(ctx context.Context, arg ListOrdersParams) ([]domain.Order, int64, error) {
	return q.listOrders(ctx, listOrdersByUser, arg)
}

const listOrdersByShop = `
SELECT ` + orderColumns + `, COUNT(*) OVER() AS total
FROM orders
WHERE shop_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`

func (q *Queries) ListOrdersByShop(ctx context.Context, arg ListOrdersParams) ([]domain.Order, int64, error) {
	return q.listOrders(ctx, listOrdersByShop, arg)
}

func (q *Queries) listOrders(ctx context.Context, query string, arg ListOrdersParams) ([]domain.Order, int64, error) {
	rows, err := q.db.Query(ctx, query, pgUUID(arg.ID), arg.Limit, arg.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		orders []domain.Order
		total  int64
	)
	for rows.Next() {
		o, err := scanOrderWithTotal(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

type UpdateOrderStatusParams struct {
	OrderID uuid.UUID
	Status  domain.OrderStatus
}

const updateOrderStatus = `
UPDATE orders
SET status = $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error {
	_, err := q.db.Exec(ctx, updateOrderStatus, pgUUID(arg.OrderID), string(arg.Status))
	return err
}

type MarkOrderPaidParams struct {
	OrderID    uuid.UUID
	PaymentRef string
}

const markOrderPaid = `
UPDATE orders
SET payment_status = 'paid', payment_ref = $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) error {
	_, err := q.db.Exec(ctx, markOrderPaid, pgUUID(arg.OrderID), arg.PaymentRef)
	return err
}

type MarkOrderCancelledParams struct {
	OrderID     uuid.UUID
	NeedsRefund bool
}

const markOrderCancelled = `
UPDATE orders
SET status = 'cancelled', needs_refund = $2, updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkOrderCancelled(ctx context.Context, arg MarkOrderCancelledParams) error {
	_, err := q.db.Exec(ctx, markOrderCancelled, pgUUID(arg.OrderID), arg.NeedsRefund)
	return err
}

const markOrderRefunded = `
UPDATE orders
SET payment_status = 'refunded', status = 'cancelled', needs_refund = FALSE, updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkOrderRefunded(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, markOrderRefunded, pgUUID(id))
	return err
}

const markOrderTransferred = `
UPDATE orders
SET transferred_to_vendor = TRUE, updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkOrderTransferred(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, markOrderTransferred, pgUUID(id))
	return err
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var o domain.Order
	if err := scanOrderInto(row, &o, nil); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func scanOrderWithTotal(row rowScanner, total *int64) (domain.Order, error) {
	var o domain.Order
	if err := scanOrderInto(row, &o, total); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func scanOrderInto(row rowScanner, o *domain.Order, total *int64) error {
	var (
		id             pgtype.UUID
		userID         pgtype.UUID
		shopID         pgtype.UUID
		couponID       pgtype.UUID
		deliveryOption string
		deliveryDate   pgtype.Timestamptz
		status         string
		method         string
		payStatus      string
		createdAt      pgtype.Timestamptz
		updatedAt      pgtype.Timestamptz
	)
	dest := []any{
		&id, &o.OrderNumber, &userID, &shopID, &couponID, &deliveryOption,
		&deliveryDate, &o.ShippingAddr, &o.Subtotal, &o.Discount, &o.DeliveryCharge,
		&o.Total, &status, &method, &payStatus, &o.PaymentRef,
		&o.TransferredToVendor, &o.NeedsRefund, &createdAt, &updatedAt,
	}
	if total != nil {
		dest = append(dest, total)
	}
	if err := row.Scan(dest...); err != nil {
		return err
	}
	o.ID = fromUUID(id)
	o.UserID = fromUUID(userID)
	o.ShopID = fromUUID(shopID)
	o.CouponID = fromUUIDPtr(couponID)
	o.DeliveryOption = domain.DeliveryOption(deliveryOption)
	o.DeliveryDate = deliveryDate.Time
	o.Status = domain.OrderStatus(status)
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(payStatus)
	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time
	return nil
}

func scanOrderItem(row rowScanner) (domain.OrderItem, error) {
	var (
		item      domain.OrderItem
		id        pgtype.UUID
		orderID   pgtype.UUID
		productID pgtype.UUID
		variantID pgtype.UUID
	)
	err := row.Scan(&id, &orderID, &productID, &variantID, &item.Quantity, &item.UnitPrice)
	if err != nil {
		return domain.OrderItem{}, err
	}
	item.ID = fromUUID(id)
	item.OrderID = fromUUID(orderID)
	item.ProductID = fromUUID(productID)
	item.VariantID = fromUUID(variantID)
	return item, nil
}
