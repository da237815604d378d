package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/pricing"
	"github.com/rowanvale/souk/internal/repository"
)

// CouponResolution is the result of applying a coupon to an amount.
type CouponResolution struct {
	Coupon          domain.Coupon `json:"coupon"`
	Discount        int64         `json:"discount"`
	DiscountedPrice int64         `json:"discounted_price"`
}

// CouponService validates and applies shop-scoped coupons.
type CouponService interface {
	// Resolve validates a coupon against a shop and order amount and
	// computes the discount. Both checkout and cart preview call this,
	// so the two paths can never disagree on the discount.
	Resolve(ctx context.Context, code string, shopID uuid.UUID, orderAmount int64) (*CouponResolution, error)

	// Create registers a new coupon for a shop the caller manages.
	Create(ctx context.Context, params CreateCouponParams) (*domain.Coupon, error)

	// ListByShop returns a shop's coupons for its staff.
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]domain.Coupon, error)
}

// CreateCouponParams contains parameters for creating a coupon.
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

type couponService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

var _ CouponService = (*couponService)(nil)

func NewCouponService(store repository.Store, logger *slog.Logger) CouponService {
	return &couponService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (s *couponService) Resolve(ctx context.Context, code string, shopID uuid.UUID, orderAmount int64) (*CouponResolution, error) {
	const op = "coupon.Resolve"

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.Invalid(op, "coupon code is required")
	}

	coupon, err := s.store.GetCouponByCode(ctx, code)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "coupon", code)
		}
		return nil, domain.Internal(err, op, "failed to load coupon")
	}

	if coupon.ShopID != shopID {
		return nil, domain.Invalid(op, "coupon is not valid for this shop")
	}
	if !coupon.IsActive {
		return nil, domain.Invalid(op, "coupon is no longer active")
	}

	now := s.now()
	if now.Before(coupon.StartsAt) {
		return nil, domain.Invalid(op, "coupon is not active yet")
	}
	if now.After(coupon.EndsAt) {
		return nil, domain.Invalid(op, "coupon has expired")
	}
	if coupon.MinOrder != nil && orderAmount < *coupon.MinOrder {
		return nil, domain.Errorf(domain.EINVALID, op,
			"order amount does not meet the coupon minimum of %d cents", *coupon.MinOrder)
	}

	discount := pricing.Discount(&coupon, orderAmount)
	return &CouponResolution{
		Coupon:          coupon,
		Discount:        discount,
		DiscountedPrice: orderAmount - discount,
	}, nil
}

func (s *couponService) Create(ctx context.Context, params CreateCouponParams) (*domain.Coupon, error) {
	const op = "coupon.Create"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	shop, err := s.store.GetShop(ctx, params.ShopID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "shop", params.ShopID.String())
		}
		return nil, domain.Internal(err, op, "failed to load shop")
	}
	if !shop.AuthorizedFor(caller) {
		return nil, domain.Forbidden(op, "caller does not manage this shop")
	}

	params.Code = strings.TrimSpace(params.Code)
	if params.Code == "" {
		return nil, domain.Invalid(op, "coupon code is required")
	}
	switch params.DiscountType {
	case domain.DiscountFlat:
		if params.Amount <= 0 {
			return nil, domain.Invalid(op, "flat coupons require a positive amount")
		}
	case domain.DiscountPercentage:
		if params.Percent <= 0 || params.Percent > 100 {
			return nil, domain.Invalid(op, "percentage must be between 0 and 100")
		}
	default:
		return nil, domain.Invalid(op, "unknown discount type")
	}
	if !params.EndsAt.After(params.StartsAt) {
		return nil, domain.Invalid(op, "coupon window must end after it starts")
	}

	coupon, err := s.store.CreateCoupon(ctx, repository.CreateCouponParams{
		ShopID:       params.ShopID,
		Code:         params.Code,
		DiscountType: params.DiscountType,
		Amount:       params.Amount,
		Percent:      params.Percent,
		MaxDiscount:  params.MaxDiscount,
		MinOrder:     params.MinOrder,
		StartsAt:     params.StartsAt,
		EndsAt:       params.EndsAt,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create coupon")
	}

	s.logger.Info("coupon created",
		slog.String("coupon_id", coupon.ID.String()),
		slog.String("shop_id", coupon.ShopID.String()),
		slog.String("code", coupon.Code))

	return &coupon, nil
}

func (s *couponService) ListByShop(ctx context.Context, shopID uuid.UUID) ([]domain.Coupon, error) {
	const op = "coupon.ListByShop"

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

	coupons, err := s.store.ListCouponsByShop(ctx, shopID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list coupons")
	}
	return coupons, nil
}
