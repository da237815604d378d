package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanvale/souk/internal/billing"
	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/service"
)

type stubOrders struct {
	CheckoutFn        func(ctx context.Context, params service.CheckoutParams) (*service.CheckoutResult, error)
	FinalizeFn        func(ctx context.Context, session *billing.WebhookSession) (*domain.Order, error)
	ReleaseSessionFn  func(ctx context.Context, sessionRef string) error
	ChangeStatusFn    func(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error)
	MarkPaidFn        func(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	CancelFn          func(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	RefundFn          func(ctx context.Context, orderID uuid.UUID) (string, error)
	GetFn             func(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
}

var _ service.OrderService = (*stubOrders)(nil)

func (s *stubOrders) Checkout(ctx context.Context, params service.CheckoutParams) (*service.CheckoutResult, error) {
	return s.CheckoutFn(ctx, params)
}

func (s *stubOrders) FinalizeCheckoutSession(ctx context.Context, session *billing.WebhookSession) (*domain.Order, error) {
	return s.FinalizeFn(ctx, session)
}

func (s *stubOrders) ReleaseCheckoutSession(ctx context.Context, sessionRef string) error {
	return s.ReleaseSessionFn(ctx, sessionRef)
}

func (s *stubOrders) ChangeStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	return s.ChangeStatusFn(ctx, orderID, to)
}

func (s *stubOrders) MarkPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.MarkPaidFn(ctx, orderID)
}

func (s *stubOrders) Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.CancelFn(ctx, orderID)
}

func (s *stubOrders) Refund(ctx context.Context, orderID uuid.UUID) (string, error) {
	return s.RefundFn(ctx, orderID)
}

func (s *stubOrders) ReleaseExpiredReservations(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *stubOrders) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.GetFn(ctx, orderID)
}

func (s *stubOrders) ListMine(ctx context.Context, page service.Page) ([]domain.Order, *service.PageMeta, error) {
	return nil, nil, nil
}

func (s *stubOrders) ListForShop(ctx context.Context, shopID uuid.UUID, page service.Page) ([]domain.Order, *service.PageMeta, error) {
	return nil, nil, nil
}

func testHandler(orders service.OrderService, provider billing.Provider) (*echo.Echo, *Handler) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(Config{
		Orders:  orders,
		Billing: provider,
		Logger:  logger,
	})
	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(logger)
	return e, h
}

func TestErrorHandlerMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", domain.NotFound("op", "order", "123"), http.StatusNotFound, "order not found: 123"},
		{"invalid", domain.Invalid("op", "bad input"), http.StatusBadRequest, "bad input"},
		{"forbidden", domain.Forbidden("op", "nope"), http.StatusForbidden, "nope"},
		{"unauthorized", domain.Unauthorized("op", "who are you"), http.StatusUnauthorized, "who are you"},
		{"payment", domain.PaymentFailed("op", "card declined"), http.StatusPaymentRequired, "card declined"},
		{
			"internal details are not leaked",
			domain.Internal(errors.New("pq: connection reset"), "op", "query failed"),
			http.StatusInternalServerError,
			"An internal error occurred. Please try again later.",
		},
		{
			"unknown errors collapse to 500",
			errors.New("boom"),
			http.StatusInternalServerError,
			"An internal error occurred. Please try again later.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, _ := testHandler(nil, nil)
			e.GET("/boom", func(c echo.Context) error { return tc.err })

			req := httptest.NewRequest(http.MethodGet, "/boom", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var body envelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.wantStatus, body.StatusCode)
			assert.Equal(t, tc.wantMsg, body.Message)
		})
	}
}

func TestCheckoutHandler(t *testing.T) {
	shopID := uuid.New()
	productID := uuid.New()
	variantID := uuid.New()

	body := func() string {
		return `{
			"shop_id": "` + shopID.String() + `",
			"items": [{"product_id": "` + productID.String() + `", "variant_id": "` + variantID.String() + `", "quantity": 2}],
			"delivery_option": "standard",
			"shipping_address": "12 Central Plaza",
			"payment_method": "cod"
		}`
	}

	t.Run("cod checkout returns the created order", func(t *testing.T) {
		var got service.CheckoutParams
		orders := &stubOrders{
			CheckoutFn: func(ctx context.Context, params service.CheckoutParams) (*service.CheckoutResult, error) {
				got = params
				return &service.CheckoutResult{Order: &domain.Order{OrderNumber: "SO-1", Total: 2500}}, nil
			},
		}
		e, h := testHandler(orders, nil)
		e.POST("/checkout", h.Checkout)

		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, shopID, got.ShopID)
		require.Len(t, got.Items, 1)
		assert.Equal(t, int32(2), got.Items[0].Quantity)
		assert.Equal(t, domain.PaymentMethodCOD, got.PaymentMethod)

		var resp envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})

	t.Run("online checkout returns the payment redirect", func(t *testing.T) {
		orders := &stubOrders{
			CheckoutFn: func(ctx context.Context, params service.CheckoutParams) (*service.CheckoutResult, error) {
				return &service.CheckoutResult{SessionID: "cs_1", PaymentURL: "https://pay.example/cs_1"}, nil
			},
		}
		e, h := testHandler(orders, nil)
		e.POST("/checkout", h.Checkout)

		online := strings.Replace(body(), `"cod"`, `"online"`, 1)
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(online))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "pay.example")
	})

	t.Run("validation failures are 400", func(t *testing.T) {
		e, h := testHandler(&stubOrders{}, nil)
		e.POST("/checkout", h.Checkout)

		req := httptest.NewRequest(http.MethodPost, "/checkout",
			strings.NewReader(`{"shop_id": "not-a-uuid"}`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBillingWebhookHandler(t *testing.T) {
	t.Run("completed session is finalized", func(t *testing.T) {
		finalized := false
		orders := &stubOrders{
			FinalizeFn: func(ctx context.Context, session *billing.WebhookSession) (*domain.Order, error) {
				finalized = true
				assert.Equal(t, "pi_1", session.PaymentIntentID)
				return &domain.Order{OrderNumber: "SO-1"}, nil
			},
		}
		provider := &billing.MockProvider{
			VerifyWebhookSignatureFn: func(payload []byte, signature string) (*billing.WebhookEvent, error) {
				return &billing.WebhookEvent{
					ID:   "evt_1",
					Type: "checkout.session.completed",
					Session: &billing.WebhookSession{
						ID:              "cs_1",
						PaymentIntentID: "pi_1",
					},
				}, nil
			},
		}
		e, h := testHandler(orders, provider)
		e.POST("/webhooks/billing", h.BillingWebhook)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, finalized)
	})

	t.Run("expired session releases its hold", func(t *testing.T) {
		var releasedRef string
		orders := &stubOrders{
			ReleaseSessionFn: func(ctx context.Context, sessionRef string) error {
				releasedRef = sessionRef
				return nil
			},
		}
		provider := &billing.MockProvider{
			VerifyWebhookSignatureFn: func(payload []byte, signature string) (*billing.WebhookEvent, error) {
				return &billing.WebhookEvent{
					ID:   "evt_2",
					Type: "checkout.session.expired",
					Session: &billing.WebhookSession{
						ID:       "cs_2",
						Metadata: map[string]string{"checkout_ref": "ref-9"},
					},
				}, nil
			},
		}
		e, h := testHandler(orders, provider)
		e.POST("/webhooks/billing", h.BillingWebhook)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(`{}`))
		req.Header.Set("Stripe-Signature", "t=1,v1=abc")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ref-9", releasedRef)
	})

	t.Run("missing signature is unauthorized", func(t *testing.T) {
		e, h := testHandler(&stubOrders{}, &billing.MockProvider{})
		e.POST("/webhooks/billing", h.BillingWebhook)

		req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
