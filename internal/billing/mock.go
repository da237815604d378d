package billing

import "context"

// MockProvider is a func-field test double for Provider.
type MockProvider struct {
	CreateCustomerFn         func(ctx context.Context, params CreateCustomerParams) (*Customer, error)
	CreateCheckoutSessionFn  func(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error)
	GetPaymentIntentFn       func(ctx context.Context, id string) (*PaymentIntent, error)
	GetChargeFn              func(ctx context.Context, id string) (*Charge, error)
	CreateRefundFn           func(ctx context.Context, params RefundParams) (*Refund, error)
	CreateTransferFn         func(ctx context.Context, params TransferParams) (*Transfer, error)
	VerifyWebhookSignatureFn func(payload []byte, signature string) (*WebhookEvent, error)
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) CreateCustomer(ctx context.Context, params CreateCustomerParams) (*Customer, error) {
	if m.CreateCustomerFn != nil {
		return m.CreateCustomerFn(ctx, params)
	}
	return &Customer{ID: "cus_mock", Email: params.Email, Name: params.Name}, nil
}

func (m *MockProvider) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	if m.CreateCheckoutSessionFn != nil {
		return m.CreateCheckoutSessionFn(ctx, params)
	}
	return &CheckoutSession{ID: "cs_mock", URL: "https://checkout.example/cs_mock"}, nil
}

func (m *MockProvider) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	if m.GetPaymentIntentFn != nil {
		return m.GetPaymentIntentFn(ctx, id)
	}
	return &PaymentIntent{ID: id, Status: "succeeded"}, nil
}

func (m *MockProvider) GetCharge(ctx context.Context, id string) (*Charge, error) {
	if m.GetChargeFn != nil {
		return m.GetChargeFn(ctx, id)
	}
	return &Charge{ID: id}, nil
}

func (m *MockProvider) CreateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	if m.CreateRefundFn != nil {
		return m.CreateRefundFn(ctx, params)
	}
	return &Refund{ID: "re_mock", AmountCents: params.AmountCents, Status: "succeeded"}, nil
}

func (m *MockProvider) CreateTransfer(ctx context.Context, params TransferParams) (*Transfer, error) {
	if m.CreateTransferFn != nil {
		return m.CreateTransferFn(ctx, params)
	}
	return &Transfer{ID: "tr_mock", AmountCents: params.AmountCents, Destination: params.DestinationAccount}, nil
}

func (m *MockProvider) VerifyWebhookSignature(payload []byte, signature string) (*WebhookEvent, error) {
	if m.VerifyWebhookSignatureFn != nil {
		return m.VerifyWebhookSignatureFn(payload, signature)
	}
	return &WebhookEvent{ID: "evt_mock", Type: "checkout.session.completed"}, nil
}
