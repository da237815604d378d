package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/repository"
)

// ShopService exposes the shop operations the marketplace core needs.
type ShopService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Shop, error)

	// RegisterPayoutAccount stores the vendor's connected account for
	// marketplace fund transfers. Completion of paid online orders
	// requires this to be set.
	RegisterPayoutAccount(ctx context.Context, shopID uuid.UUID, accountID string) (*domain.Shop, error)
}

type shopService struct {
	store  repository.Store
	logger *slog.Logger
}

var _ ShopService = (*shopService)(nil)

func NewShopService(store repository.Store, logger *slog.Logger) ShopService {
	return &shopService{store: store, logger: logger}
}

func (s *shopService) Get(ctx context.Context, id uuid.UUID) (*domain.Shop, error) {
	const op = "shop.Get"

	shop, err := s.store.GetShop(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "shop", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load shop")
	}
	return &shop, nil
}

func (s *shopService) RegisterPayoutAccount(ctx context.Context, shopID uuid.UUID, accountID string) (*domain.Shop, error) {
	const op = "shop.RegisterPayoutAccount"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "shop", shopID.String())
		}
		return nil, domain.Internal(err, op, "failed to load shop")
	}
	if !shop.AuthorizedFor(caller) {
		return nil, domain.Forbidden(op, "caller does not manage this shop")
	}

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, domain.Invalid(op, "payout account id is required")
	}

	err = s.store.SetShopPayoutAccount(ctx, repository.SetShopPayoutAccountParams{
		ShopID:          shopID,
		PayoutAccountID: accountID,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to store payout account")
	}
	shop.PayoutAccountID = accountID

	s.logger.Info("payout account registered",
		slog.String("shop_id", shopID.String()))

	return &shop, nil
}
