package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/repository"
)

// mockStore is a func-field test double for repository.Store. Methods
// without a configured func return pgx.ErrNoRows or succeed silently,
// whichever is the least surprising default.
type mockStore struct {
	GetUserFn                  func(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUserByEmailFn           func(ctx context.Context, email string) (domain.User, error)
	UpdateUserStripeCustomerFn func(ctx context.Context, arg repository.UpdateUserStripeCustomerParams) error

	GetShopFn              func(ctx context.Context, id uuid.UUID) (domain.Shop, error)
	SetShopPayoutAccountFn func(ctx context.Context, arg repository.SetShopPayoutAccountParams) error

	GetProductFn             func(ctx context.Context, id uuid.UUID) (domain.Product, error)
	ListProductsFn           func(ctx context.Context, arg repository.ListProductsParams) ([]domain.Product, int64, error)
	CreateProductFn          func(ctx context.Context, arg repository.CreateProductParams) (domain.Product, error)
	IncrementPurchaseCountFn func(ctx context.Context, arg repository.IncrementPurchaseCountParams) error
	DecrementVariantStockFn  func(ctx context.Context, arg repository.VariantStockParams) (int64, error)
	RestoreVariantStockFn    func(ctx context.Context, arg repository.VariantStockParams) error

	GetVariantBySlugFn  func(ctx context.Context, slug string) (domain.Variant, error)
	CreateVariantFn     func(ctx context.Context, arg repository.CreateVariantParams) (domain.Variant, error)
	SetProductVariantFn func(ctx context.Context, arg repository.SetProductVariantParams) error
	CreateOfferFn       func(ctx context.Context, arg repository.CreateOfferParams) (domain.Offer, error)

	GetCouponByCodeFn   func(ctx context.Context, code string) (domain.Coupon, error)
	CreateCouponFn      func(ctx context.Context, arg repository.CreateCouponParams) (domain.Coupon, error)
	ListCouponsByShopFn func(ctx context.Context, shopID uuid.UUID) ([]domain.Coupon, error)

	CreateOrderFn          func(ctx context.Context, arg repository.CreateOrderParams) (domain.Order, error)
	CreateOrderItemFn      func(ctx context.Context, arg repository.CreateOrderItemParams) (domain.OrderItem, error)
	GetOrderFn             func(ctx context.Context, id uuid.UUID) (domain.Order, error)
	GetOrderByPaymentRefFn func(ctx context.Context, paymentRef string) (domain.Order, error)
	ListOrdersByUserFn     func(ctx context.Context, arg repository.ListOrdersParams) ([]domain.Order, int64, error)
	ListOrdersByShopFn     func(ctx context.Context, arg repository.ListOrdersParams) ([]domain.Order, int64, error)
	UpdateOrderStatusFn    func(ctx context.Context, arg repository.UpdateOrderStatusParams) error
	MarkOrderPaidFn        func(ctx context.Context, arg repository.MarkOrderPaidParams) error
	MarkOrderCancelledFn   func(ctx context.Context, arg repository.MarkOrderCancelledParams) error
	MarkOrderRefundedFn    func(ctx context.Context, id uuid.UUID) error
	MarkOrderTransferredFn func(ctx context.Context, id uuid.UUID) error

	CreatePaymentFn       func(ctx context.Context, arg repository.CreatePaymentParams) (domain.Payment, error)
	GetPaymentByOrderFn   func(ctx context.Context, orderID uuid.UUID) (domain.Payment, error)
	MarkPaymentRefundedFn func(ctx context.Context, id uuid.UUID) error

	CreateReservationFn         func(ctx context.Context, arg repository.CreateReservationParams) (domain.StockReservation, error)
	ListSessionReservationsFn   func(ctx context.Context, sessionRef string) ([]domain.StockReservation, error)
	CommitSessionReservationsFn func(ctx context.Context, sessionRef string) error
	ListExpiredReservationsFn   func(ctx context.Context, now time.Time) ([]domain.StockReservation, error)
	ReleaseReservationFn        func(ctx context.Context, id uuid.UUID) error

	CreateReviewFn        func(ctx context.Context, arg repository.CreateReviewParams) (domain.Review, error)
	ListReviewsByTargetFn func(ctx context.Context, arg repository.ListReviewsParams) ([]domain.Review, int64, error)
}

var _ repository.Store = (*mockStore)(nil)

func (m *mockStore) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	return fn(m)
}

func (m *mockStore) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, id)
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	if m.GetUserByEmailFn != nil {
		return m.GetUserByEmailFn(ctx, email)
	}
	return domain.User{}, pgx.ErrNoRows
}

func (m *mockStore) UpdateUserStripeCustomer(ctx context.Context, arg repository.UpdateUserStripeCustomerParams) error {
	if m.UpdateUserStripeCustomerFn != nil {
		return m.UpdateUserStripeCustomerFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) GetShop(ctx context.Context, id uuid.UUID) (domain.Shop, error) {
	if m.GetShopFn != nil {
		return m.GetShopFn(ctx, id)
	}
	return domain.Shop{}, pgx.ErrNoRows
}

func (m *mockStore) SetShopPayoutAccount(ctx context.Context, arg repository.SetShopPayoutAccountParams) error {
	if m.SetShopPayoutAccountFn != nil {
		return m.SetShopPayoutAccountFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	if m.GetProductFn != nil {
		return m.GetProductFn(ctx, id)
	}
	return domain.Product{}, pgx.ErrNoRows
}

func (m *mockStore) ListProducts(ctx context.Context, arg repository.ListProductsParams) ([]domain.Product, int64, error) {
	if m.ListProductsFn != nil {
		return m.ListProductsFn(ctx, arg)
	}
	return nil, 0, nil
}

func (m *mockStore) CreateProduct(ctx context.Context, arg repository.CreateProductParams) (domain.Product, error) {
	if m.CreateProductFn != nil {
		return m.CreateProductFn(ctx, arg)
	}
	return domain.Product{ID: uuid.New(), ShopID: arg.ShopID, Name: arg.Name, Slug: arg.Slug, BasePrice: arg.BasePrice}, nil
}

func (m *mockStore) IncrementPurchaseCount(ctx context.Context, arg repository.IncrementPurchaseCountParams) error {
	if m.IncrementPurchaseCountFn != nil {
		return m.IncrementPurchaseCountFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) DecrementVariantStock(ctx context.Context, arg repository.VariantStockParams) (int64, error) {
	if m.DecrementVariantStockFn != nil {
		return m.DecrementVariantStockFn(ctx, arg)
	}
	return 1, nil
}

func (m *mockStore) RestoreVariantStock(ctx context.Context, arg repository.VariantStockParams) error {
	if m.RestoreVariantStockFn != nil {
		return m.RestoreVariantStockFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) GetVariantBySlug(ctx context.Context, slug string) (domain.Variant, error) {
	if m.GetVariantBySlugFn != nil {
		return m.GetVariantBySlugFn(ctx, slug)
	}
	return domain.Variant{}, pgx.ErrNoRows
}

func (m *mockStore) CreateVariant(ctx context.Context, arg repository.CreateVariantParams) (domain.Variant, error) {
	if m.CreateVariantFn != nil {
		return m.CreateVariantFn(ctx, arg)
	}
	return domain.Variant{ID: uuid.New(), Slug: arg.Slug, Attributes: arg.Attributes}, nil
}

func (m *mockStore) SetProductVariant(ctx context.Context, arg repository.SetProductVariantParams) error {
	if m.SetProductVariantFn != nil {
		return m.SetProductVariantFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) CreateOffer(ctx context.Context, arg repository.CreateOfferParams) (domain.Offer, error) {
	if m.CreateOfferFn != nil {
		return m.CreateOfferFn(ctx, arg)
	}
	return domain.Offer{ID: uuid.New(), ProductID: arg.ProductID, PercentOff: arg.PercentOff, IsActive: true}, nil
}

func (m *mockStore) GetCouponByCode(ctx context.Context, code string) (domain.Coupon, error) {
	if m.GetCouponByCodeFn != nil {
		return m.GetCouponByCodeFn(ctx, code)
	}
	return domain.Coupon{}, pgx.ErrNoRows
}

func (m *mockStore) CreateCoupon(ctx context.Context, arg repository.CreateCouponParams) (domain.Coupon, error) {
	if m.CreateCouponFn != nil {
		return m.CreateCouponFn(ctx, arg)
	}
	return domain.Coupon{
		ID:           uuid.New(),
		ShopID:       arg.ShopID,
		Code:         arg.Code,
		DiscountType: arg.DiscountType,
		Amount:       arg.Amount,
		Percent:      arg.Percent,
		MaxDiscount:  arg.MaxDiscount,
		MinOrder:     arg.MinOrder,
		StartsAt:     arg.StartsAt,
		EndsAt:       arg.EndsAt,
		IsActive:     true,
	}, nil
}

func (m *mockStore) ListCouponsByShop(ctx context.Context, shopID uuid.UUID) ([]domain.Coupon, error) {
	if m.ListCouponsByShopFn != nil {
		return m.ListCouponsByShopFn(ctx, shopID)
	}
	return nil, nil
}

func (m *mockStore) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (domain.Order, error) {
	if m.CreateOrderFn != nil {
		return m.CreateOrderFn(ctx, arg)
	}
	return domain.Order{
		ID:             uuid.New(),
		OrderNumber:    arg.OrderNumber,
		UserID:         arg.UserID,
		ShopID:         arg.ShopID,
		CouponID:       arg.CouponID,
		DeliveryOption: arg.DeliveryOption,
		DeliveryDate:   arg.DeliveryDate,
		ShippingAddr:   arg.ShippingAddr,
		Subtotal:       arg.Subtotal,
		Discount:       arg.Discount,
		DeliveryCharge: arg.DeliveryCharge,
		Total:          arg.Total,
		Status:         arg.Status,
		PaymentMethod:  arg.PaymentMethod,
		PaymentStatus:  arg.PaymentStatus,
		PaymentRef:     arg.PaymentRef,
	}, nil
}

func (m *mockStore) CreateOrderItem(ctx context.Context, arg repository.CreateOrderItemParams) (domain.OrderItem, error) {
	if m.CreateOrderItemFn != nil {
		return m.CreateOrderItemFn(ctx, arg)
	}
	return domain.OrderItem{
		ID:        uuid.New(),
		OrderID:   arg.OrderID,
		ProductID: arg.ProductID,
		VariantID: arg.VariantID,
		Quantity:  arg.Quantity,
		UnitPrice: arg.UnitPrice,
	}, nil
}

func (m *mockStore) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	if m.GetOrderFn != nil {
		return m.GetOrderFn(ctx, id)
	}
	return domain.Order{}, pgx.ErrNoRows
}

func (m *mockStore) GetOrderByPaymentRef(ctx context.Context, paymentRef string) (domain.Order, error) {
	if m.GetOrderByPaymentRefFn != nil {
		return m.GetOrderByPaymentRefFn(ctx, paymentRef)
	}
	return domain.Order{}, pgx.ErrNoRows
}

func (m *mockStore) ListOrdersByUser(ctx context.Context, arg repository.ListOrdersParams) ([]domain.Order, int64, error) {
	if m.ListOrdersByUserFn != nil {
		return m.ListOrdersByUserFn(ctx, arg)
	}
	return nil, 0, nil
}

func (m *mockStore) ListOrdersByShop(ctx context.Context, arg repository.ListOrdersParams) ([]domain.Order, int64, error) {
	if m.ListOrdersByShopFn != nil {
		return m.ListOrdersByShopFn(ctx, arg)
	}
	return nil, 0, nil
}

func (m *mockStore) UpdateOrderStatus(ctx context.Context, arg repository.UpdateOrderStatusParams) error {
	if m.UpdateOrderStatusFn != nil {
		return m.UpdateOrderStatusFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) MarkOrderPaid(ctx context.Context, arg repository.MarkOrderPaidParams) error {
	if m.MarkOrderPaidFn != nil {
		return m.MarkOrderPaidFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) MarkOrderCancelled(ctx context.Context, arg repository.MarkOrderCancelledParams) error {
	if m.MarkOrderCancelledFn != nil {
		return m.MarkOrderCancelledFn(ctx, arg)
	}
	return nil
}

func (m *mockStore) MarkOrderRefunded(ctx context.Context, id uuid.UUID) error {
	if m.MarkOrderRefundedFn != nil {
		return m.MarkOrderRefundedFn(ctx, id)
	}
	return nil
}

func (m *mockStore) MarkOrderTransferred(ctx context.Context, id uuid.UUID) error {
	if m.MarkOrderTransferredFn != nil {
		return m.MarkOrderTransferredFn(ctx, id)
	}
	return nil
}

func (m *mockStore) CreatePayment(ctx context.Context, arg repository.CreatePaymentParams) (domain.Payment, error) {
	if m.CreatePaymentFn != nil {
		return m.CreatePaymentFn(ctx, arg)
	}
	return domain.Payment{
		ID:                uuid.New(),
		OrderID:           arg.OrderID,
		Method:            arg.Method,
		ProviderPaymentID: arg.ProviderPaymentID,
		Amount:            arg.Amount,
		Status:            arg.Status,
	}, nil
}

func (m *mockStore) GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (domain.Payment, error) {
	if m.GetPaymentByOrderFn != nil {
		return m.GetPaymentByOrderFn(ctx, orderID)
	}
	return domain.Payment{}, pgx.ErrNoRows
}

func (m *mockStore) MarkPaymentRefunded(ctx context.Context, id uuid.UUID) error {
	if m.MarkPaymentRefundedFn != nil {
		return m.MarkPaymentRefundedFn(ctx, id)
	}
	return nil
}

func (m *mockStore) CreateReservation(ctx context.Context, arg repository.CreateReservationParams) (domain.StockReservation, error) {
	if m.CreateReservationFn != nil {
		return m.CreateReservationFn(ctx, arg)
	}
	return domain.StockReservation{
		ID:         uuid.New(),
		SessionRef: arg.SessionRef,
		ProductID:  arg.ProductID,
		VariantID:  arg.VariantID,
		Quantity:   arg.Quantity,
		Status:     domain.ReservationHeld,
		ExpiresAt:  arg.ExpiresAt,
	}, nil
}

func (m *mockStore) ListSessionReservations(ctx context.Context, sessionRef string) ([]domain.StockReservation, error) {
	if m.ListSessionReservationsFn != nil {
		return m.ListSessionReservationsFn(ctx, sessionRef)
	}
	return nil, nil
}

func (m *mockStore) CommitSessionReservations(ctx context.Context, sessionRef string) error {
	if m.CommitSessionReservationsFn != nil {
		return m.CommitSessionReservationsFn(ctx, sessionRef)
	}
	return nil
}

func (m *mockStore) ListExpiredReservations(ctx context.Context, now time.Time) ([]domain.StockReservation, error) {
	if m.ListExpiredReservationsFn != nil {
		return m.ListExpiredReservationsFn(ctx, now)
	}
	return nil, nil
}

func (m *mockStore) ReleaseReservation(ctx context.Context, id uuid.UUID) error {
	if m.ReleaseReservationFn != nil {
		return m.ReleaseReservationFn(ctx, id)
	}
	return nil
}

func (m *mockStore) CreateReview(ctx context.Context, arg repository.CreateReviewParams) (domain.Review, error) {
	if m.CreateReviewFn != nil {
		return m.CreateReviewFn(ctx, arg)
	}
	return domain.Review{
		ID:     uuid.New(),
		Target: domain.ReviewTarget{Kind: arg.TargetKind, ID: arg.TargetID},
		UserID: arg.UserID,
		Rating: arg.Rating,
		Body:   arg.Body,
	}, nil
}

func (m *mockStore) ListReviewsByTarget(ctx context.Context, arg repository.ListReviewsParams) ([]domain.Review, int64, error) {
	if m.ListReviewsByTargetFn != nil {
		return m.ListReviewsByTargetFn(ctx, arg)
	}
	return nil, 0, nil
}
