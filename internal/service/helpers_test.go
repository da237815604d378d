package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rowanvale/souk/internal/billing"
	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/events"
	"github.com/rowanvale/souk/internal/shipping"
)

var testNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func asUser(id uuid.UUID) context.Context {
	return domain.WithIdentity(context.Background(), &domain.Identity{
		ID:    id,
		Email: "buyer@example.com",
		Role:  domain.RoleUser,
	})
}

func asVendor(id uuid.UUID) context.Context {
	return domain.WithIdentity(context.Background(), &domain.Identity{
		ID:    id,
		Email: "vendor@example.com",
		Role:  domain.RoleVendor,
	})
}

func asAdmin(id uuid.UUID) context.Context {
	return domain.WithIdentity(context.Background(), &domain.Identity{
		ID:    id,
		Email: "admin@example.com",
		Role:  domain.RoleAdmin,
	})
}

// newTestOrderService wires an order service against the given doubles
// with a frozen clock and a fixed order number.
func newTestOrderService(store *mockStore, provider *billing.MockProvider) *orderService {
	coupons := NewCouponService(store, testLogger()).(*couponService)
	coupons.now = func() time.Time { return testNow }

	svc := NewOrderService(OrderServiceConfig{
		Store:    store,
		Billing:  provider,
		Shipping: shipping.NewDefaultCalculator(),
		Coupons:  coupons,
		Events:   events.NoopPublisher{},
		Logger:   testLogger(),
	}).(*orderService)
	svc.now = func() time.Time { return testNow }
	svc.orderNumber = func() string { return "SO-TEST0000001" }
	return svc
}

// catalogStore builds a mockStore preloaded with a shop and products so
// most checkout tests only override what they exercise.
func catalogStore(shop domain.Shop, products ...domain.Product) *mockStore {
	byID := make(map[uuid.UUID]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &mockStore{
		GetShopFn: func(ctx context.Context, id uuid.UUID) (domain.Shop, error) {
			if id != shop.ID {
				return domain.Shop{}, pgx.ErrNoRows
			}
			return shop, nil
		},
		GetProductFn: func(ctx context.Context, id uuid.UUID) (domain.Product, error) {
			p, ok := byID[id]
			if !ok {
				return domain.Product{}, pgx.ErrNoRows
			}
			return p, nil
		},
	}
}

func testProduct(shopID uuid.UUID, name string, basePrice int64, quantity int32) domain.Product {
	productID := uuid.New()
	variantID := uuid.New()
	return domain.Product{
		ID:        productID,
		ShopID:    shopID,
		Name:      name,
		Slug:      name,
		BasePrice: basePrice,
		Variants: []domain.VariantDetail{
			{ProductID: productID, VariantID: variantID, Quantity: quantity},
		},
	}
}

func onlyVariant(p domain.Product) uuid.UUID {
	return p.Variants[0].VariantID
}
