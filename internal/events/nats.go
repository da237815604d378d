package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSPublisher publishes order events to a NATS subject per event
// type. Publish failures are logged and swallowed.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

var _ Publisher = (*NATSPublisher)(nil)

func NewNATSPublisher(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("reconnected to nats", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

func (p *NATSPublisher) PublishOrderEvent(ctx context.Context, event OrderEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal order event",
			slog.String("subject", event.Subject),
			slog.String("error", err.Error()))
		return
	}

	if err := p.conn.Publish(event.Subject, payload); err != nil {
		p.logger.Error("failed to publish order event",
			slog.String("subject", event.Subject),
			slog.String("order_id", event.OrderID.String()),
			slog.String("error", err.Error()))
	}
}

// Conn exposes the underlying connection so the worker can subscribe
// over the same socket.
func (p *NATSPublisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.logger.Warn("failed to drain nats connection", slog.String("error", err.Error()))
	}
}
