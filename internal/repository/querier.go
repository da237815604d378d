package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/domain"
)

// Querier is the query surface services depend on. Tests substitute a
// func-field mock; production wires *Queries.
type Querier interface {
	// Users
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	UpdateUserStripeCustomer(ctx context.Context, arg UpdateUserStripeCustomerParams) error

	// Shops
	GetShop(ctx context.Context, id uuid.UUID) (domain.Shop, error)
	SetShopPayoutAccount(ctx context.Context, arg SetShopPayoutAccountParams) error

	// Products and stock
	GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error)
	ListProducts(ctx context.Context, arg ListProductsParams) ([]domain.Product, int64, error)
	CreateProduct(ctx context.Context, arg CreateProductParams) (domain.Product, error)
	IncrementPurchaseCount(ctx context.Context, arg IncrementPurchaseCountParams) error
	DecrementVariantStock(ctx context.Context, arg VariantStockParams) (int64, error)
	RestoreVariantStock(ctx context.Context, arg VariantStockParams) error

	// Variants and offers
	GetVariantBySlug(ctx context.Context, slug string) (domain.Variant, error)
	CreateVariant(ctx context.Context, arg CreateVariantParams) (domain.Variant, error)
	SetProductVariant(ctx context.Context, arg SetProductVariantParams) error
	CreateOffer(ctx context.Context, arg CreateOfferParams) (domain.Offer, error)

	// Coupons
	GetCouponByCode(ctx context.Context, code string) (domain.Coupon, error)
	CreateCoupon(ctx context.Context, arg CreateCouponParams) (domain.Coupon, error)
	ListCouponsByShop(ctx context.Context, shopID uuid.UUID) ([]domain.Coupon, error)

	// Orders
	CreateOrder(ctx context.Context, arg CreateOrderParams) (domain.Order, error)
	CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (domain.OrderItem, error)
	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)
	GetOrderByPaymentRef(ctx context.Context, paymentRef string) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, arg ListOrdersParams) ([]domain.Order, int64, error)
	ListOrdersByShop(ctx context.Context, arg ListOrdersParams) ([]domain.Order, int64, error)
	UpdateOrderStatus(ctx context.Context, arg UpdateOrderStatusParams) error
	MarkOrderPaid(ctx context.Context, arg MarkOrderPaidParams) error
	MarkOrderCancelled(ctx context.Context, arg MarkOrderCancelledParams) error
	MarkOrderRefunded(ctx context.Context, id uuid.UUID) error
	MarkOrderTransferred(ctx context.Context, id uuid.UUID) error

	// Payments
	CreatePayment(ctx context.Context, arg CreatePaymentParams) (domain.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID uuid.UUID) (domain.Payment, error)
	MarkPaymentRefunded(ctx context.Context, id uuid.UUID) error

	// Stock reservations
	CreateReservation(ctx context.Context, arg CreateReservationParams) (domain.StockReservation, error)
	ListSessionReservations(ctx context.Context, sessionRef string) ([]domain.StockReservation, error)
	CommitSessionReservations(ctx context.Context, sessionRef string) error
	ListExpiredReservations(ctx context.Context, now time.Time) ([]domain.StockReservation, error)
	ReleaseReservation(ctx context.Context, id uuid.UUID) error

	// Reviews
	CreateReview(ctx context.Context, arg CreateReviewParams) (domain.Review, error)
	ListReviewsByTarget(ctx context.Context, arg ListReviewsParams) ([]domain.Review, int64, error)
}

var _ Querier = (*Queries)(nil)
