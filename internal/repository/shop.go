package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

const getShop = `
SELECT id, owner_id, name, slug, payout_account_id, created_at, updated_at
FROM shops
WHERE id = $1 AND is_deleted = FALSE
`

const getShopAdmins = `
SELECT user_id FROM shop_admins WHERE shop_id = $1
`

// GetShop loads a shop together with its admin user ids.
func (q *Queries) GetShop(ctx context.Context, id uuid.UUID) (domain.Shop, error) {
	var (
		s         domain.Shop
		shopID    pgtype.UUID
		ownerID   pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	row := q.db.QueryRow(ctx, getShop, pgUUID(id))
	err := row.Scan(&shopID, &ownerID, &s.Name, &s.Slug, &s.PayoutAccountID, &createdAt, &updatedAt)
	if err != nil {
		return domain.Shop{}, err
	}
	s.ID = fromUUID(shopID)
	s.OwnerID = fromUUID(ownerID)
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	rows, err := q.db.Query(ctx, getShopAdmins, pgUUID(id))
	if err != nil {
		return domain.Shop{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var adminID pgtype.UUID
		if err := rows.Scan(&adminID); err != nil {
			return domain.Shop{}, err
		}
		s.AdminIDs = append(s.AdminIDs, fromUUID(adminID))
	}
	return s, rows.Err()
}

type SetShopPayoutAccountParams struct {
	ShopID          uuid.UUID
	PayoutAccountID string
}

const setShopPayoutAccount = `
UPDATE shops
SET payout_account_id = $2, updated_at = now()
WHERE id = $1 AND is_deleted = FALSE
`

func (q *Queries) SetShopPayoutAccount(ctx context.Context, arg SetShopPayoutAccountParams) error {
	_, err := q.db.Exec(ctx, setShopPayoutAccount, pgUUID(arg.ShopID), arg.PayoutAccountID)
	return err
}
