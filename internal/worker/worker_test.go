package worker

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/email"
	"github.com/rowanvale/souk/internal/events"
)

type stubStore struct {
	order    domain.Order
	user     domain.User
	products map[uuid.UUID]domain.Product
}

func (s *stubStore) GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	if id != s.order.ID {
		return domain.Order{}, pgx.ErrNoRows
	}
	return s.order, nil
}

func (s *stubStore) GetUser(ctx context.Context, id uuid.UUID) (domain.User, error) {
	return s.user, nil
}

func (s *stubStore) GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

type captureSender struct {
	sent []*email.Message
}

func (c *captureSender) Send(ctx context.Context, msg *email.Message) error {
	c.sent = append(c.sent, msg)
	return nil
}

func newTestWorker(t *testing.T, store Store) (*Worker, *captureSender) {
	t.Helper()
	sender := &captureSender{}
	emails, err := email.NewService(sender, "orders@souk.example", "Souk")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWorker(store, nil, emails, nil, Config{}, logger), sender
}

func TestHandleOrderEvent(t *testing.T) {
	productID := uuid.New()
	order := domain.Order{
		ID:          uuid.New(),
		OrderNumber: "SO-77",
		UserID:      uuid.New(),
		Items: []domain.OrderItem{
			{ProductID: productID, Quantity: 2, UnitPrice: 1000},
		},
		Subtotal:       2000,
		DeliveryCharge: 500,
		Total:          2500,
		DeliveryDate:   time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC),
		ShippingAddr:   "12 Central Plaza",
		PaymentMethod:  domain.PaymentMethodCOD,
	}
	store := &stubStore{
		order: order,
		user:  domain.User{ID: order.UserID, Email: "buyer@example.com", Name: "Ada"},
		products: map[uuid.UUID]domain.Product{
			productID: {ID: productID, Name: "Widget"},
		},
	}

	t.Run("order placed sends a confirmation", func(t *testing.T) {
		w, sender := newTestWorker(t, store)
		err := w.HandleOrderEvent(context.Background(), events.OrderEvent{
			Subject: events.SubjectOrderPlaced,
			OrderID: order.ID,
		})
		require.NoError(t, err)

		require.Len(t, sender.sent, 1)
		msg := sender.sent[0]
		assert.Equal(t, []string{"buyer@example.com"}, msg.To)
		assert.Equal(t, "Order Confirmation - SO-77", msg.Subject)
		assert.Contains(t, msg.HTMLBody, "Widget")
		assert.Contains(t, msg.HTMLBody, "$25.00")
	})

	t.Run("order cancelled mentions a pending refund", func(t *testing.T) {
		cancelled := order
		cancelled.NeedsRefund = true
		store := &stubStore{order: cancelled, user: store.user, products: store.products}

		w, sender := newTestWorker(t, store)
		err := w.HandleOrderEvent(context.Background(), events.OrderEvent{
			Subject: events.SubjectOrderCancelled,
			OrderID: order.ID,
		})
		require.NoError(t, err)

		require.Len(t, sender.sent, 1)
		assert.Equal(t, "Order Cancelled - SO-77", sender.sent[0].Subject)
		assert.Contains(t, sender.sent[0].HTMLBody, "refund")
	})

	t.Run("order refunded confirms the amount", func(t *testing.T) {
		w, sender := newTestWorker(t, store)
		err := w.HandleOrderEvent(context.Background(), events.OrderEvent{
			Subject: events.SubjectOrderRefunded,
			OrderID: order.ID,
		})
		require.NoError(t, err)

		require.Len(t, sender.sent, 1)
		assert.Contains(t, sender.sent[0].HTMLBody, "$25.00")
	})

	t.Run("unknown order fails", func(t *testing.T) {
		w, sender := newTestWorker(t, store)
		err := w.HandleOrderEvent(context.Background(), events.OrderEvent{
			Subject: events.SubjectOrderPlaced,
			OrderID: uuid.New(),
		})
		require.Error(t, err)
		assert.Empty(t, sender.sent)
	})

	t.Run("unknown subject is ignored", func(t *testing.T) {
		w, sender := newTestWorker(t, store)
		err := w.HandleOrderEvent(context.Background(), events.OrderEvent{
			Subject: "order.misrouted",
			OrderID: order.ID,
		})
		require.NoError(t, err)
		assert.Empty(t, sender.sent)
	})
}
