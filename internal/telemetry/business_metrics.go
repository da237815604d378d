// Package telemetry exposes business-level Prometheus metrics for
// dashboards: order volume and value, checkout session outcomes,
// refunds, reservation sweeps, and email delivery.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds the marketplace-level collectors. HTTP-layer
// metrics live in the middleware package; these track what the
// business cares about regardless of transport.
type BusinessMetrics struct {
	OrdersPlaced *prometheus.CounterVec
	OrderValue   *prometheus.HistogramVec

	CheckoutSessionsStarted   prometheus.Counter
	CheckoutSessionsFinalized prometheus.Counter
	CheckoutSessionsExpired   prometheus.Counter

	RefundsIssued prometheus.Counter
	RefundAmount  prometheus.Counter

	ReservationsReleased prometheus.Counter

	EmailsSent   *prometheus.CounterVec
	EmailsFailed *prometheus.CounterVec
}

// NewBusinessMetrics creates and registers all business metrics.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "souk"
	}

	subsystem := "business"

	return &BusinessMetrics{
		OrdersPlaced: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_placed_total",
				Help:      "Total orders placed",
			},
			[]string{"payment_method"},
		),
		OrderValue: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value_cents",
				Help:      "Order value distribution in cents",
				Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
			},
			[]string{"payment_method"},
		),
		CheckoutSessionsStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_sessions_started_total",
				Help:      "Total hosted checkout sessions created",
			},
		),
		CheckoutSessionsFinalized: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_sessions_finalized_total",
				Help:      "Total checkout sessions that completed payment",
			},
		),
		CheckoutSessionsExpired: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "checkout_sessions_expired_total",
				Help:      "Total checkout sessions released after expiry",
			},
		),
		RefundsIssued: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refunds_issued_total",
				Help:      "Total refunds issued to buyers",
			},
		),
		RefundAmount: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "refund_amount_cents",
				Help:      "Total refunded amount in cents",
			},
		),
		ReservationsReleased: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "reservations_released_total",
				Help:      "Total expired stock reservations restocked by the sweeper",
			},
		),
		EmailsSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_sent_total",
				Help:      "Total notification emails sent",
			},
			[]string{"template"},
		),
		EmailsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "emails_failed_total",
				Help:      "Total notification email delivery failures",
			},
			[]string{"template"},
		),
	}
}

// Business is the global instance. Nil until InitBusinessMetrics runs,
// so every recording helper nil-checks it; tests leave it unset.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance.
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}

func RecordOrderPlaced(paymentMethod string, totalCents int64) {
	if Business == nil {
		return
	}
	Business.OrdersPlaced.WithLabelValues(paymentMethod).Inc()
	Business.OrderValue.WithLabelValues(paymentMethod).Observe(float64(totalCents))
}

func RecordCheckoutSessionStarted() {
	if Business == nil {
		return
	}
	Business.CheckoutSessionsStarted.Inc()
}

func RecordCheckoutSessionFinalized() {
	if Business == nil {
		return
	}
	Business.CheckoutSessionsFinalized.Inc()
}

func RecordCheckoutSessionExpired() {
	if Business == nil {
		return
	}
	Business.CheckoutSessionsExpired.Inc()
}

func RecordRefund(amountCents int64) {
	if Business == nil {
		return
	}
	Business.RefundsIssued.Inc()
	Business.RefundAmount.Add(float64(amountCents))
}

func RecordReservationsReleased(count int) {
	if Business == nil || count <= 0 {
		return
	}
	Business.ReservationsReleased.Add(float64(count))
}

func RecordEmailSent(template string) {
	if Business == nil {
		return
	}
	Business.EmailsSent.WithLabelValues(template).Inc()
}

func RecordEmailFailed(template string) {
	if Business == nil {
		return
	}
	Business.EmailsFailed.WithLabelValues(template).Inc()
}
