// Package billing abstracts the payment provider behind an interface
// so services and tests never touch the Stripe SDK directly.
package billing

import (
	"context"
	"time"
)

// Provider defines the payment processing surface the marketplace
// needs. All amounts are integer minor-currency units (cents).
type Provider interface {
	// CreateCustomer creates a customer record in the billing provider.
	CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error)

	// CreateCheckoutSession creates a hosted payment page. The metadata
	// is the only way a later webhook can reconstruct the order, so
	// callers must serialize everything needed for finalization.
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)

	// GetPaymentIntent retrieves a live payment intent.
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)

	// GetCharge retrieves a live charge. Charge-level amounts are
	// preferred over payment-intent aggregates for refund math.
	GetCharge(ctx context.Context, id string) (*Charge, error)

	// CreateRefund refunds part or all of a charge or payment intent.
	CreateRefund(ctx context.Context, params RefundParams) (*Refund, error)

	// CreateTransfer moves funds to a vendor's connected account.
	CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error)

	// VerifyWebhookSignature authenticates an incoming webhook payload
	// and returns the parsed event.
	VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error)
}

// CreateCustomerParams contains parameters for creating a customer.
type CreateCustomerParams struct {
	Email    string
	Name     string
	Metadata map[string]string
}

// Customer represents a billing customer.
type Customer struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

// CheckoutSessionParams contains parameters for a hosted checkout.
type CheckoutSessionParams struct {
	CustomerID string

	// AmountCents is charged as a single aggregate line item named
	// "Amount"; the itemization lives in Metadata.
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutSession represents a hosted payment flow.
type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentIntent is a provider payment attempt.
type PaymentIntent struct {
	ID             string
	AmountCents    int64
	Status         string
	LatestChargeID string
	Metadata       map[string]string
}

// Charge is a settled provider charge with its refund ledger.
type Charge struct {
	ID                  string
	AmountCents         int64
	AmountRefundedCents int64
	Refunded            bool
}

// RefundParams targets a charge when known, falling back to the
// payment intent otherwise. Exactly one of the two should be set.
type RefundParams struct {
	ChargeID        string
	PaymentIntentID string
	AmountCents     int64
	Metadata        map[string]string
}

// Refund represents an issued refund.
type Refund struct {
	ID          string
	AmountCents int64
	Status      string
}

// TransferParams contains parameters for a vendor payout.
type TransferParams struct {
	DestinationAccount string
	AmountCents        int64
	Currency           string
	Metadata           map[string]string
}

// Transfer represents funds moved to a connected account.
type Transfer struct {
	ID          string
	AmountCents int64
	Destination string
}

// WebhookEvent is a verified provider event.
type WebhookEvent struct {
	ID   string
	Type string

	// Session is populated for checkout.session.* events.
	Session *WebhookSession
}

// WebhookSession is the checkout-session payload of a webhook event.
type WebhookSession struct {
	ID              string
	PaymentIntentID string
	AmountTotal     int64
	Metadata        map[string]string
}
