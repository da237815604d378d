package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/charge"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/refund"
	"github.com/stripe/stripe-go/v82/transfer"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider using the Stripe API.
type StripeProvider struct {
	webhookSecret string
}

var _ Provider = (*StripeProvider)(nil)

// NewStripeProvider configures the Stripe SDK with the given API key.
func NewStripeProvider(apiKey, webhookSecret string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{webhookSecret: webhookSecret}
}

func (s *StripeProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	p := &stripe.CustomerParams{
		Email: stripe.String(params.Email),
		Name:  stripe.String(params.Name),
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	c, err := customer.New(p)
	if err != nil {
		return nil, mapStripeError(err, "billing.CreateCustomer")
	}

	return &Customer{
		ID:    c.ID,
		Email: c.Email,
		Name:  c.Name,
	}, nil
}

func (s *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	p := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(params.SuccessURL),
		CancelURL:  stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(currency),
					UnitAmount: stripe.Int64(params.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Amount"),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	p.Context = ctx
	if params.CustomerID != "" {
		p.Customer = stripe.String(params.CustomerID)
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	sess, err := session.New(p)
	if err != nil {
		return nil, mapStripeError(err, "billing.CreateCheckoutSession")
	}

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (s *StripeProvider) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	p := &stripe.PaymentIntentParams{}
	p.Context = ctx

	pi, err := paymentintent.Get(id, p)
	if err != nil {
		return nil, mapStripeError(err, "billing.GetPaymentIntent")
	}

	out := &PaymentIntent{
		ID:          pi.ID,
		AmountCents: pi.Amount,
		Status:      string(pi.Status),
		Metadata:    pi.Metadata,
	}
	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
	}
	return out, nil
}

func (s *StripeProvider) GetCharge(ctx context.Context, id string) (*Charge, error) {
	p := &stripe.ChargeParams{}
	p.Context = ctx

	ch, err := charge.Get(id, p)
	if err != nil {
		return nil, mapStripeError(err, "billing.GetCharge")
	}

	return &Charge{
		ID:                  ch.ID,
		AmountCents:         ch.Amount,
		AmountRefundedCents: ch.AmountRefunded,
		Refunded:            ch.Refunded,
	}, nil
}

func (s *StripeProvider) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	p := &stripe.RefundParams{
		Amount: stripe.Int64(params.AmountCents),
	}
	p.Context = ctx
	switch {
	case params.ChargeID != "":
		p.Charge = stripe.String(params.ChargeID)
	case params.PaymentIntentID != "":
		p.PaymentIntent = stripe.String(params.PaymentIntentID)
	default:
		return nil, fmt.Errorf("refund requires a charge or payment intent id")
	}
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	r, err := refund.New(p)
	if err != nil {
		return nil, mapStripeError(err, "billing.CreateRefund")
	}

	return &Refund{ID: r.ID, AmountCents: r.Amount, Status: string(r.Status)}, nil
}

func (s *StripeProvider) CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	currency := params.Currency
	if currency == "" {
		currency = "usd"
	}

	p := &stripe.TransferParams{
		Amount:      stripe.Int64(params.AmountCents),
		Currency:    stripe.String(currency),
		Destination: stripe.String(params.DestinationAccount),
	}
	p.Context = ctx
	for k, v := range params.Metadata {
		p.AddMetadata(k, v)
	}

	t, err := transfer.New(p)
	if err != nil {
		return nil, mapStripeError(err, "billing.CreateTransfer")
	}

	return &Transfer{
		ID:          t.ID,
		AmountCents: t.Amount,
		Destination: t.Destination.ID,
	}, nil
}

func (s *StripeProvider) VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return nil, mapStripeError(err, "billing.VerifyWebhookSignature")
	}

	out := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if event.Type == "checkout.session.completed" || event.Type == "checkout.session.expired" {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to parse checkout session payload: %w", err)
		}
		ws := &WebhookSession{
			ID:          sess.ID,
			AmountTotal: sess.AmountTotal,
			Metadata:    sess.Metadata,
		}
		if sess.PaymentIntent != nil {
			ws.PaymentIntentID = sess.PaymentIntent.ID
		}
		out.Session = ws
	}

	return out, nil
}
