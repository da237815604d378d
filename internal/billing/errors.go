package billing

import (
	"errors"

	"github.com/stripe/stripe-go/v82"

	"github.com/rowanvale/souk/internal/domain"
)

// mapStripeError classifies a Stripe API error. Provider-rejected
// requests surface the provider's own message as an invalid-request
// error; anything else is treated as an internal failure.
func mapStripeError(err error, op string) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		switch stripeErr.Type {
		case stripe.ErrorTypeInvalidRequest:
			return domain.WrapError(err, domain.EINVALID, op, stripeErr.Msg)
		case stripe.ErrorTypeCard:
			return domain.WrapError(err, domain.EPAYMENT, op, stripeErr.Msg)
		}
	}
	return domain.Internal(err, op, "payment provider request failed")
}
