package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

const getUser = `
SELECT id, email, name, role, stripe_customer_id, created_at, updated_at
FROM users
WHERE id = $1 AND is_deleted = FALSE
`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	row := q.db.QueryRow(ctx, getUser, pgUUID(id))
	return scanUser(row)
}

const getUserByEmail = `
SELECT id, email, name, role, stripe_customer_id, created_at, updated_at
FROM users
WHERE email = $1 AND is_deleted = FALSE
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		id        pgtype.UUID
		role      string
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &u.Email, &u.Name, &role, &u.StripeCustomerID, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, err
	}
	u.ID = fromUUID(id)
	u.Role = domain.Role(role)
	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time
	return u, nil
}

type UpdateUserStripeCustomerParams struct {
	UserID           uuid.UUID
	StripeCustomerID string
}

const updateUserStripeCustomer = `
UPDATE users
SET stripe_customer_id = $2, updated_at = now()
WHERE id = $1 AND is_deleted = FALSE
`

func (q *Queries) UpdateUserStripeCustomer(ctx context.Context, arg UpdateUserStripeCustomerParams) error {
	_, err := q.db.Exec(ctx, updateUserStripeCustomer, pgUUID(arg.UserID), arg.StripeCustomerID)
	return err
}
