package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

type CreatePaymentParams struct {
	OrderID           uuid.UUID
	Method            domain.PaymentMethod
	ProviderPaymentID string
	Amount            int64
	Status            domain.PaymentStatus
}

const createPayment = `
INSERT INTO payments (order_id, method, provider_payment_id, amount_cents, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_id, method, provider_payment_id, amount_cents, status, created_at, updated_at
`

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (domain.Payment, error) {
	row := q.db.QueryRow(ctx, createPayment,
		pgUUID(arg.OrderID), string(arg.Method), arg.ProviderPaymentID, arg.Amount, string(arg.Status))
	return scanPayment(row)
}

const getPaymentByOrder = `
SELECT id, order_id, method, provider_payment_id, amount_cents, status, created_at, updated_at
FROM payments
WHERE order_id = $1
ORDER BY created_at DESC
LIMIT 1
`

// GetPaymentByOrder returns the order's live payment record, the most
// recent one. Refund reconciliation runs against this row.
func (q *Queries) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (domain.Payment, error) {
	row := q.db.QueryRow(ctx, getPaymentByOrder, pgUUID(orderID))
	return scanPayment(row)
}

const markPaymentRefunded = `
UPDATE payments
SET status = 'refunded', updated_at = now()
WHERE id = $1
`

func (q *Queries) MarkPaymentRefunded(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, markPaymentRefunded, pgUUID(id))
	return err
}

func scanPayment(row rowScanner) (domain.Payment, error) {
	var (
		p         domain.Payment
		id        pgtype.UUID
		orderID   pgtype.UUID
		method    string
		status    string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &orderID, &method, &p.ProviderPaymentID, &p.Amount, &status, &createdAt, &updatedAt)
	if err != nil {
		return domain.Payment{}, err
	}
	p.ID = fromUUID(id)
	p.OrderID = fromUUID(orderID)
	p.Method = domain.PaymentMethod(method)
	p.Status = domain.PaymentStatus(status)
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	return p, nil
}
