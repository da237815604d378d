package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

const reservationColumns = `id, session_ref, product_id, variant_id, quantity, status, expires_at, created_at`

type CreateReservationParams struct {
	SessionRef string
	ProductID  uuid.UUID
	VariantID  uuid.UUID
	Quantity   int32
	ExpiresAt  time.Time
}

const createReservation = `
INSERT INTO stock_reservations (session_ref, product_id, variant_id, quantity, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + reservationColumns

func (q *Queries) CreateReservation(ctx context.Context, arg CreateReservationParams) (domain.StockReservation, error) {
	row := q.db.QueryRow(ctx, createReservation,
		arg.SessionRef, pgUUID(arg.ProductID), pgUUID(arg.VariantID), arg.Quantity, arg.ExpiresAt)
	return scanReservation(row)
}

const listSessionReservations = `
SELECT ` + reservationColumns + `
FROM stock_reservations
WHERE session_ref = $1 AND status = 'held'
`

func (q *Queries) ListSessionReservations(ctx context.Context, sessionRef string) ([]domain.StockReservation, error) {
	rows, err := q.db.Query(ctx, listSessionReservations, sessionRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

const commitSessionReservations = `
UPDATE stock_reservations
SET status = 'committed'
WHERE session_ref = $1 AND status = 'held'
`

// CommitSessionReservations finalizes every held reservation for a
// checkout session once the provider confirms payment.
func (q *Queries) CommitSessionReservations(ctx context.Context, sessionRef string) error {
	_, err := q.db.Exec(ctx, commitSessionReservations, sessionRef)
	return err
}

const listExpiredReservations = `
SELECT ` + reservationColumns + `
FROM stock_reservations
WHERE status = 'held' AND expires_at < $1
ORDER BY expires_at
LIMIT 100
`

func (q *Queries) ListExpiredReservations(ctx context.Context, now time.Time) ([]domain.StockReservation, error) {
	rows, err := q.db.Query(ctx, listExpiredReservations, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReservations(rows)
}

const releaseReservation = `
UPDATE stock_reservations
SET status = 'released'
WHERE id = $1 AND status = 'held'
`

func (q *Queries) ReleaseReservation(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, releaseReservation, pgUUID(id))
	return err
}

func scanReservation(row rowScanner) (domain.StockReservation, error) {
	var (
		r         domain.StockReservation
		id        pgtype.UUID
		productID pgtype.UUID
		variantID pgtype.UUID
		status    string
		expiresAt pgtype.Timestamptz
		createdAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &r.SessionRef, &productID, &variantID, &r.Quantity, &status, &expiresAt, &createdAt)
	if err != nil {
		return domain.StockReservation{}, err
	}
	r.ID = fromUUID(id)
	r.ProductID = fromUUID(productID)
	r.VariantID = fromUUID(variantID)
	r.Status = domain.ReservationStatus(status)
	r.ExpiresAt = expiresAt.Time
	r.CreatedAt = createdAt.Time
	return r, nil
}

func collectReservations(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]domain.StockReservation, error) {
	var reservations []domain.StockReservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	return reservations, rows.Err()
}
