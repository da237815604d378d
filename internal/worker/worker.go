// Package worker runs the background side of the marketplace: it
// consumes order events for buyer notifications and sweeps expired
// stock reservations back into inventory.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/email"
	"github.com/rowanvale/souk/internal/events"
	"github.com/rowanvale/souk/internal/service"
)

// Config holds worker configuration.
type Config struct {
	// SweepInterval is how often expired reservations are released.
	SweepInterval time.Duration
}

// Store is the read surface the worker needs to compose notifications.
// repository.Store satisfies it.
type Store interface {
	GetOrder(ctx context.Context, id uuid.UUID) (domain.Order, error)
	GetUser(ctx context.Context, id uuid.UUID) (domain.User, error)
	GetProduct(ctx context.Context, id uuid.UUID) (domain.Product, error)
}

// Worker consumes order events and runs periodic maintenance.
type Worker struct {
	config Config
	store  Store
	orders service.OrderService
	emails *email.Service
	conn   *nats.Conn
	logger *slog.Logger

	sub *nats.Subscription
}

// NewWorker wires the background worker. conn may be nil when no
// broker is configured; the sweeper still runs.
func NewWorker(store Store, orders service.OrderService, emails *email.Service, conn *nats.Conn, config Config, logger *slog.Logger) *Worker {
	if config.SweepInterval == 0 {
		config.SweepInterval = time.Minute
	}
	return &Worker{
		config: config,
		store:  store,
		orders: orders,
		emails: emails,
		conn:   conn,
		logger: logger,
	}
}

// Start subscribes to order events and runs the reservation sweeper
// until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if w.conn != nil {
		sub, err := w.conn.Subscribe("order.>", func(msg *nats.Msg) {
			var event events.OrderEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				w.logger.Error("malformed order event",
					slog.String("subject", msg.Subject),
					slog.String("error", err.Error()))
				return
			}
			if err := w.HandleOrderEvent(ctx, event); err != nil {
				w.logger.Error("failed to handle order event",
					slog.String("subject", event.Subject),
					slog.String("order_id", event.OrderID.String()),
					slog.String("error", err.Error()))
			}
		})
		if err != nil {
			return err
		}
		w.sub = sub
		w.logger.Info("worker subscribed to order events")
	}

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			if w.sub != nil {
				if err := w.sub.Drain(); err != nil {
					w.logger.Error("failed to drain subscription",
						slog.String("error", err.Error()))
				}
			}
			return ctx.Err()

		case <-ticker.C:
			released, err := w.orders.ReleaseExpiredReservations(ctx)
			if err != nil {
				w.logger.Error("reservation sweep failed",
					slog.String("error", err.Error()))
				continue
			}
			if released > 0 {
				w.logger.Info("released expired reservations",
					slog.Int("count", released))
			}
		}
	}
}

// HandleOrderEvent dispatches one order event to its notification.
func (w *Worker) HandleOrderEvent(ctx context.Context, event events.OrderEvent) error {
	order, err := w.store.GetOrder(ctx, event.OrderID)
	if err != nil {
		return err
	}
	user, err := w.store.GetUser(ctx, order.UserID)
	if err != nil {
		return err
	}

	switch event.Subject {
	case events.SubjectOrderPlaced:
		return w.sendOrderPlaced(ctx, &order, &user)

	case events.SubjectOrderCompleted:
		return w.emails.SendOrderCompleted(ctx, email.OrderCompletedEmail{
			To:           user.Email,
			CustomerName: user.Name,
			OrderNumber:  order.OrderNumber,
			TotalCents:   order.Total,
		})

	case events.SubjectOrderCancelled:
		return w.emails.SendOrderCancelled(ctx, email.OrderCancelledEmail{
			To:           user.Email,
			CustomerName: user.Name,
			OrderNumber:  order.OrderNumber,
			NeedsRefund:  order.NeedsRefund,
		})

	case events.SubjectOrderRefunded:
		return w.emails.SendOrderRefunded(ctx, email.OrderRefundedEmail{
			To:           user.Email,
			CustomerName: user.Name,
			OrderNumber:  order.OrderNumber,
			AmountCents:  order.Total,
		})

	default:
		w.logger.Warn("unknown order event subject",
			slog.String("subject", event.Subject))
		return nil
	}
}

func (w *Worker) sendOrderPlaced(ctx context.Context, order *domain.Order, user *domain.User) error {
	items := make([]email.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.ProductID.String()
		if product, err := w.store.GetProduct(ctx, item.ProductID); err == nil {
			name = product.Name
		}
		items = append(items, email.LineItem{
			Name:      name,
			Quantity:  item.Quantity,
			UnitCents: item.UnitPrice,
		})
	}

	return w.emails.SendOrderPlaced(ctx, email.OrderPlacedEmail{
		To:            user.Email,
		CustomerName:  user.Name,
		OrderNumber:   order.OrderNumber,
		PlacedAt:      order.CreatedAt,
		Items:         items,
		SubtotalCents: order.Subtotal,
		DiscountCents: order.Discount,
		DeliveryCents: order.DeliveryCharge,
		TotalCents:    order.Total,
		DeliveryDate:  order.DeliveryDate,
		ShippingAddr:  order.ShippingAddr,
		PaymentMethod: string(order.PaymentMethod),
	})
}
