package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/telemetry"
)

// BillingWebhook handles POST /webhooks/billing. The provider verifies
// the signature before any event is trusted; a confirmed checkout
// session materializes its order, an expired one releases its stock
// hold.
func (h *Handler) BillingWebhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return domain.Invalid("webhook.Billing", "failed to read request body")
	}

	signature := c.Request().Header.Get("Stripe-Signature")
	if signature == "" {
		return domain.Unauthorized("webhook.Billing", "missing webhook signature")
	}

	event, err := h.billing.VerifyWebhookSignature(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case "checkout.session.completed":
		if event.Session == nil {
			return domain.Invalid("webhook.Billing", "event carries no checkout session")
		}
		order, err := h.orders.FinalizeCheckoutSession(c.Request().Context(), event.Session)
		if err != nil {
			return err
		}
		h.logger.Info("checkout session finalized",
			slog.String("event_id", event.ID),
			slog.String("order_number", order.OrderNumber))

	case "checkout.session.expired":
		if event.Session == nil {
			return domain.Invalid("webhook.Billing", "event carries no checkout session")
		}
		ref := event.Session.Metadata["checkout_ref"]
		if ref != "" {
			if err := h.orders.ReleaseCheckoutSession(c.Request().Context(), ref); err != nil {
				return err
			}
			telemetry.RecordCheckoutSessionExpired()
			h.logger.Info("checkout session released",
				slog.String("event_id", event.ID),
				slog.String("checkout_ref", ref))
		}

	default:
		h.logger.Debug("ignoring webhook event",
			slog.String("event_id", event.ID),
			slog.String("type", event.Type))
	}

	return respond(c, http.StatusOK, map[string]string{"received": event.ID})
}
