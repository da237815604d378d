package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/billing"
	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/events"
	"github.com/rowanvale/souk/internal/pricing"
	"github.com/rowanvale/souk/internal/repository"
	"github.com/rowanvale/souk/internal/shipping"
	"github.com/rowanvale/souk/internal/telemetry"
)

// CheckoutItem is one requested order line. The unit price is always
// resolved server-side.
type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id"`
	VariantID uuid.UUID `json:"variant_id"`
	Quantity  int32     `json:"quantity"`
}

// CheckoutParams contains everything a buyer submits at checkout.
type CheckoutParams struct {
	ShopID         uuid.UUID
	Items          []CheckoutItem
	CouponCode     string
	DeliveryOption domain.DeliveryOption
	ShippingAddr   string
	PaymentMethod  domain.PaymentMethod
}

// CheckoutResult is either a placed COD order or a redirect to the
// provider's hosted payment page.
type CheckoutResult struct {
	Order      *domain.Order `json:"order,omitempty"`
	SessionID  string        `json:"session_id,omitempty"`
	PaymentURL string        `json:"payment_url,omitempty"`
}

// OrderService orchestrates checkout and the order lifecycle.
type OrderService interface {
	// Checkout prices, reserves stock for, and places an order. COD
	// orders are final immediately; online orders return a hosted
	// checkout session and materialize when the webhook confirms.
	Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error)

	// FinalizeCheckoutSession materializes an order from a confirmed
	// checkout session, reconstructing it from session metadata.
	FinalizeCheckoutSession(ctx context.Context, session *billing.WebhookSession) (*domain.Order, error)

	// ReleaseCheckoutSession frees stock held for an abandoned session.
	ReleaseCheckoutSession(ctx context.Context, sessionRef string) error

	// ChangeStatus advances an order through the fulfillment states.
	// Cancellation is rejected here; it has a dedicated operation.
	ChangeStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error)

	// MarkPaid records cash collection for a COD order before it
	// completes, so a later cancellation can flag the refund owed.
	MarkPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)

	// Cancel runs the dedicated cancel operation.
	Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)

	// Refund reconciles the order's payment against the provider ledger
	// and issues a refund when safe.
	Refund(ctx context.Context, orderID uuid.UUID) (string, error)

	// ReleaseExpiredReservations restocks held reservations past their
	// TTL. Called periodically by the worker.
	ReleaseExpiredReservations(ctx context.Context) (int, error)

	Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListMine(ctx context.Context, page Page) ([]domain.Order, *PageMeta, error)
	ListForShop(ctx context.Context, shopID uuid.UUID, page Page) ([]domain.Order, *PageMeta, error)
}

type orderService struct {
	store       repository.Store
	billing     billing.Provider
	shipping    *shipping.Calculator
	coupons     CouponService
	events      events.Publisher
	logger      *slog.Logger
	successURL  string
	cancelURL   string
	holdTTL     time.Duration
	now         func() time.Time
	orderNumber func() string
}

var _ OrderService = (*orderService)(nil)

// OrderServiceConfig wires the orchestrator's collaborators.
type OrderServiceConfig struct {
	Store          repository.Store
	Billing        billing.Provider
	Shipping       *shipping.Calculator
	Coupons        CouponService
	Events         events.Publisher
	Logger         *slog.Logger
	SuccessURL     string
	CancelURL      string
	ReservationTTL time.Duration
}

func NewOrderService(cfg OrderServiceConfig) OrderService {
	ttl := cfg.ReservationTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &orderService{
		store:      cfg.Store,
		billing:    cfg.Billing,
		shipping:   cfg.Shipping,
		coupons:    cfg.Coupons,
		events:     cfg.Events,
		logger:     cfg.Logger,
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		holdTTL:    ttl,
		now:        time.Now,
		orderNumber: func() string {
			return "SO-" + strings.ToUpper(uuid.NewString()[:13])
		},
	}
}

// pricedCheckout is the validated, fully priced candidate order shared
// by the COD and online branches.
type pricedCheckout struct {
	quote        pricing.Quote
	coupon       *domain.Coupon
	deliveryDate time.Time
}

func (s *orderService) price(ctx context.Context, params CheckoutParams) (*pricedCheckout, error) {
	const op = "order.Checkout"

	if len(params.Items) == 0 {
		return nil, domain.Invalid(op, "order must contain at least one item")
	}
	if !domain.ValidDeliveryOption(params.DeliveryOption) {
		return nil, domain.Invalid(op, "unknown delivery option: "+string(params.DeliveryOption))
	}
	if params.ShippingAddr == "" {
		return nil, domain.Invalid(op, "shipping address is required")
	}

	now := s.now()
	lines := make([]pricing.Line, 0, len(params.Items))
	for _, item := range params.Items {
		if item.Quantity <= 0 {
			return nil, domain.Invalid(op, "item quantity must be positive")
		}

		product, err := s.store.GetProduct(ctx, item.ProductID)
		if err != nil {
			if isNoRows(err) {
				return nil, domain.NotFound(op, "product", item.ProductID.String())
			}
			return nil, domain.Internal(err, op, "failed to load product")
		}
		if product.ShopID != params.ShopID {
			return nil, domain.Errorf(domain.EINVALID, op,
				"product %q does not belong to the order's shop", product.Name)
		}

		vd, ok := product.FindVariant(item.VariantID)
		if !ok {
			return nil, domain.Errorf(domain.ENOTFOUND, op,
				"variant not found on product %q", product.Name)
		}

		lines = append(lines, pricing.Line{
			ProductID: product.ID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: pricing.UnitPrice(&product, vd, now),
		})
	}

	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * int64(l.Quantity)
	}

	var (
		coupon   *domain.Coupon
		discount int64
	)
	if params.CouponCode != "" {
		resolution, err := s.coupons.Resolve(ctx, params.CouponCode, params.ShopID, subtotal)
		if err != nil {
			return nil, err
		}
		coupon = &resolution.Coupon
		discount = resolution.Discount
	}

	deliveryCharge, err := s.shipping.Charge(params.ShippingAddr, params.DeliveryOption)
	if err != nil {
		return nil, err
	}

	return &pricedCheckout{
		quote:        pricing.NewQuote(lines, discount, deliveryCharge),
		coupon:       coupon,
		deliveryDate: s.shipping.DeliveryDate(params.DeliveryOption, now),
	}, nil
}

func (s *orderService) Checkout(ctx context.Context, params CheckoutParams) (*CheckoutResult, error) {
	const op = "order.Checkout"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetShop(ctx, params.ShopID); err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "shop", params.ShopID.String())
		}
		return nil, domain.Internal(err, op, "failed to load shop")
	}

	priced, err := s.price(ctx, params)
	if err != nil {
		return nil, err
	}

	switch params.PaymentMethod {
	case domain.PaymentMethodCOD:
		return s.checkoutCOD(ctx, caller, params, priced)
	case domain.PaymentMethodOnline:
		return s.checkoutOnline(ctx, caller, params, priced)
	default:
		return nil, domain.Invalid(op, "unknown payment method: "+string(params.PaymentMethod))
	}
}

// checkoutCOD decrements stock and persists the order in one
// transaction, so partial failure never strands inventory.
func (s *orderService) checkoutCOD(ctx context.Context, caller *domain.Identity, params CheckoutParams, priced *pricedCheckout) (*CheckoutResult, error) {
	const op = "order.Checkout"

	var order domain.Order
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := takeStock(ctx, q, priced.quote.Lines); err != nil {
			return err
		}

		var couponID *uuid.UUID
		if priced.coupon != nil {
			couponID = &priced.coupon.ID
		}

		created, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			OrderNumber:    s.orderNumber(),
			UserID:         caller.ID,
			ShopID:         params.ShopID,
			CouponID:       couponID,
			DeliveryOption: params.DeliveryOption,
			DeliveryDate:   priced.deliveryDate,
			ShippingAddr:   params.ShippingAddr,
			Subtotal:       priced.quote.Subtotal,
			Discount:       priced.quote.Discount,
			DeliveryCharge: priced.quote.DeliveryCharge,
			Total:          priced.quote.Total,
			Status:         domain.OrderStatusPending,
			PaymentMethod:  domain.PaymentMethodCOD,
			PaymentStatus:  domain.PaymentStatusUnpaid,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		for _, line := range priced.quote.Lines {
			item, err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
				OrderID:   created.ID,
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to create order item")
			}
			created.Items = append(created.Items, item)

			err = q.IncrementPurchaseCount(ctx, repository.IncrementPurchaseCountParams{
				ProductID: line.ProductID,
				By:        int64(line.Quantity),
			})
			if err != nil {
				return domain.Internal(err, op, "failed to update purchase count")
			}
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.RecordOrderPlaced(string(domain.PaymentMethodCOD), order.Total)
	s.publish(ctx, events.SubjectOrderPlaced, &order)

	return &CheckoutResult{Order: &order}, nil
}

// checkoutOnline holds stock under a TTL reservation and opens a
// hosted checkout session. The order itself materializes only when the
// webhook confirms payment; the session metadata carries everything
// needed to reconstruct it.
func (s *orderService) checkoutOnline(ctx context.Context, caller *domain.Identity, params CheckoutParams, priced *pricedCheckout) (*CheckoutResult, error) {
	const op = "order.Checkout"

	user, err := s.store.GetUser(ctx, caller.ID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "user", caller.ID.String())
		}
		return nil, domain.Internal(err, op, "failed to load user")
	}

	if user.StripeCustomerID == "" {
		customer, err := s.billing.CreateCustomer(ctx, billing.CreateCustomerParams{
			Email: user.Email,
			Name:  user.Name,
		})
		if err != nil {
			return nil, err
		}
		err = s.store.UpdateUserStripeCustomer(ctx, repository.UpdateUserStripeCustomerParams{
			UserID:           user.ID,
			StripeCustomerID: customer.ID,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to store customer id")
		}
		user.StripeCustomerID = customer.ID
	}

	// Hold stock before opening the session so a confirmed payment can
	// never oversell. The hold expires if the session is abandoned.
	checkoutRef := uuid.NewString()
	expiresAt := s.now().Add(s.holdTTL)
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := takeStock(ctx, q, priced.quote.Lines); err != nil {
			return err
		}
		for _, line := range priced.quote.Lines {
			_, err := q.CreateReservation(ctx, repository.CreateReservationParams{
				SessionRef: checkoutRef,
				ProductID:  line.ProductID,
				VariantID:  line.VariantID,
				Quantity:   line.Quantity,
				ExpiresAt:  expiresAt,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to reserve stock")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metadata, err := encodeSessionMetadata(caller, params, priced, checkoutRef)
	if err != nil {
		s.releaseHold(ctx, checkoutRef)
		return nil, domain.Internal(err, op, "failed to encode session metadata")
	}

	session, err := s.billing.CreateCheckoutSession(ctx, billing.CheckoutSessionParams{
		CustomerID:  user.StripeCustomerID,
		AmountCents: priced.quote.Total,
		SuccessURL:  s.successURL,
		CancelURL:   s.cancelURL,
		Metadata:    metadata,
	})
	if err != nil {
		s.releaseHold(ctx, checkoutRef)
		return nil, err
	}

	telemetry.RecordCheckoutSessionStarted()

	return &CheckoutResult{SessionID: session.ID, PaymentURL: session.URL}, nil
}

// takeStock conditionally decrements every line's variant stock. A
// zero-row update means the variant is short; the whole transaction
// rolls back and the order names the offending product.
func takeStock(ctx context.Context, q repository.Querier, lines []pricing.Line) error {
	const op = "order.Checkout"

	for _, line := range lines {
		affected, err := q.DecrementVariantStock(ctx, repository.VariantStockParams{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to decrement stock")
		}
		if affected == 0 {
			product, err := q.GetProduct(ctx, line.ProductID)
			name := line.ProductID.String()
			if err == nil {
				name = product.Name
			}
			return domain.Errorf(domain.EINVALID, op, "insufficient stock for product %q", name)
		}
	}
	return nil
}

// uncoveredLines compares the order lines against the session's held
// reservations and returns the quantities the hold no longer covers.
func uncoveredLines(ctx context.Context, q repository.Querier, sessionRef string, lines []pricing.Line) ([]pricing.Line, error) {
	const op = "order.FinalizeCheckoutSession"

	held, err := q.ListSessionReservations(ctx, sessionRef)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list reservations")
	}

	type variantKey struct{ product, variant uuid.UUID }
	covered := make(map[variantKey]int32, len(held))
	for _, r := range held {
		covered[variantKey{r.ProductID, r.VariantID}] += r.Quantity
	}

	var uncovered []pricing.Line
	for _, line := range lines {
		key := variantKey{line.ProductID, line.VariantID}
		short := line.Quantity - covered[key]
		if short <= 0 {
			covered[key] -= line.Quantity
			continue
		}
		covered[key] = 0
		shortLine := line
		shortLine.Quantity = short
		uncovered = append(uncovered, shortLine)
	}
	return uncovered, nil
}

// releaseHold restocks and releases every held reservation for a
// session. Used when session creation fails after stock was held.
func (s *orderService) releaseHold(ctx context.Context, sessionRef string) {
	if err := s.ReleaseCheckoutSession(ctx, sessionRef); err != nil {
		s.logger.Error("failed to release checkout hold",
			slog.String("session_ref", sessionRef),
			slog.String("error", err.Error()))
	}
}

func (s *orderService) ReleaseCheckoutSession(ctx context.Context, sessionRef string) error {
	const op = "order.ReleaseCheckoutSession"

	return s.store.ExecTx(ctx, func(q repository.Querier) error {
		reservations, err := q.ListSessionReservations(ctx, sessionRef)
		if err != nil {
			return domain.Internal(err, op, "failed to list reservations")
		}
		for _, r := range reservations {
			err := q.RestoreVariantStock(ctx, repository.VariantStockParams{
				ProductID: r.ProductID,
				VariantID: r.VariantID,
				Quantity:  r.Quantity,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to restore stock")
			}
			if err := q.ReleaseReservation(ctx, r.ID); err != nil {
				return domain.Internal(err, op, "failed to release reservation")
			}
		}
		return nil
	})
}

func (s *orderService) FinalizeCheckoutSession(ctx context.Context, session *billing.WebhookSession) (*domain.Order, error) {
	const op = "order.FinalizeCheckoutSession"

	meta, err := decodeSessionMetadata(session.Metadata)
	if err != nil {
		return nil, domain.WrapError(err, domain.EINVALID, op, "checkout session metadata is malformed")
	}

	// The provider retries webhook delivery; a payment intent maps to
	// at most one order, so a replay returns the order it already made.
	existing, err := s.store.GetOrderByPaymentRef(ctx, session.PaymentIntentID)
	if err == nil {
		s.logger.Info("checkout session already finalized",
			slog.String("payment_ref", session.PaymentIntentID),
			slog.String("order_number", existing.OrderNumber))
		return &existing, nil
	}
	if !isNoRows(err) {
		return nil, domain.Internal(err, op, "failed to check for existing order")
	}

	var order domain.Order
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		// The hold may have expired and been restocked before the
		// confirmation arrived. Whatever the held reservations no
		// longer cover must be taken from live stock, or the finalize
		// fails rather than overselling.
		uncovered, err := uncoveredLines(ctx, q, meta.CheckoutRef, meta.Items)
		if err != nil {
			return err
		}
		if len(uncovered) > 0 {
			if err := takeStock(ctx, q, uncovered); err != nil {
				return err
			}
		}

		created, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			OrderNumber:    s.orderNumber(),
			UserID:         meta.UserID,
			ShopID:         meta.ShopID,
			CouponID:       meta.CouponID,
			DeliveryOption: meta.DeliveryOption,
			DeliveryDate:   meta.DeliveryDate,
			ShippingAddr:   meta.ShippingAddr,
			Subtotal:       meta.Subtotal,
			Discount:       meta.Discount,
			DeliveryCharge: meta.DeliveryCharge,
			Total:          meta.Total,
			Status:         domain.OrderStatusPending,
			PaymentMethod:  domain.PaymentMethodOnline,
			PaymentStatus:  domain.PaymentStatusPaid,
			PaymentRef:     session.PaymentIntentID,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to create order")
		}

		for _, line := range meta.Items {
			item, err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
				OrderID:   created.ID,
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  line.Quantity,
				UnitPrice: line.UnitPrice,
			})
			if err != nil {
				return domain.Internal(err, op, "failed to create order item")
			}
			created.Items = append(created.Items, item)

			err = q.IncrementPurchaseCount(ctx, repository.IncrementPurchaseCountParams{
				ProductID: line.ProductID,
				By:        int64(line.Quantity),
			})
			if err != nil {
				return domain.Internal(err, op, "failed to update purchase count")
			}
		}

		// Stock was already taken at session creation; the hold just
		// becomes permanent.
		if err := q.CommitSessionReservations(ctx, meta.CheckoutRef); err != nil {
			return domain.Internal(err, op, "failed to commit reservations")
		}

		_, err = q.CreatePayment(ctx, repository.CreatePaymentParams{
			OrderID:           created.ID,
			Method:            domain.PaymentMethodOnline,
			ProviderPaymentID: session.PaymentIntentID,
			Amount:            meta.Total,
			Status:            domain.PaymentStatusPaid,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to record payment")
		}

		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.RecordCheckoutSessionFinalized()
	telemetry.RecordOrderPlaced(string(domain.PaymentMethodOnline), order.Total)
	s.publish(ctx, events.SubjectOrderPlaced, &order)

	return &order, nil
}

func (s *orderService) ChangeStatus(ctx context.Context, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	const op = "order.ChangeStatus"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "order", orderID.String())
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	shop, err := s.store.GetShop(ctx, order.ShopID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "shop", order.ShopID.String())
		}
		return nil, domain.Internal(err, op, "failed to load shop")
	}
	if !shop.AuthorizedFor(caller) {
		return nil, domain.Forbidden(op, "caller does not manage this shop")
	}

	if to == domain.OrderStatusCancelled {
		return nil, domain.Invalid(op, "cancellation must go through the cancel endpoint")
	}
	if !domain.CanTransition(order.Status, to) {
		return nil, domain.Errorf(domain.EINVALID, op,
			"cannot transition order from %s to %s", order.Status, to)
	}

	if to == domain.OrderStatusCompleted {
		// Cash settles at the door, so completion itself collects a COD
		// payment. Online orders must already be paid by the webhook.
		if order.PaymentMethod != domain.PaymentMethodCOD &&
			order.PaymentStatus != domain.PaymentStatusPaid {
			return nil, domain.Invalid(op, "order must be paid before it can be completed")
		}
		if err := s.settleForCompletion(ctx, &order, &shop); err != nil {
			return nil, err
		}
	}

	err = s.store.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
		OrderID: order.ID,
		Status:  to,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to update order status")
	}
	order.Status = to

	if to == domain.OrderStatusCompleted {
		s.publish(ctx, events.SubjectOrderCompleted, &order)
	}

	return &order, nil
}

// settleForCompletion runs the money movement that completion implies:
// a payout transfer for online payments, or a synthesized payment
// record for cash collected on delivery.
func (s *orderService) settleForCompletion(ctx context.Context, order *domain.Order, shop *domain.Shop) error {
	const op = "order.ChangeStatus"

	if order.PaymentMethod == domain.PaymentMethodCOD {
		// Already collected through MarkPaid; the payment row exists.
		if order.PaymentStatus == domain.PaymentStatusPaid {
			return nil
		}
		if err := s.collectCashPayment(ctx, order); err != nil {
			return err
		}
		return nil
	}

	if order.TransferredToVendor {
		return nil
	}
	if shop.PayoutAccountID == "" {
		return domain.Invalid(op, "shop has no connected payout account")
	}

	_, err := s.billing.CreateTransfer(ctx, billing.TransferParams{
		DestinationAccount: shop.PayoutAccountID,
		AmountCents:        order.Total,
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
			"shop_id":      shop.ID.String(),
		},
	})
	if err != nil {
		return err
	}

	if err := s.store.MarkOrderTransferred(ctx, order.ID); err != nil {
		return domain.Internal(err, op, "failed to mark order transferred")
	}
	order.TransferredToVendor = true

	s.logger.Info("vendor payout transferred",
		slog.String("order_id", order.ID.String()),
		slog.String("shop_id", shop.ID.String()),
		slog.Int64("amount_cents", order.Total))

	return nil
}

// collectCashPayment records collected cash as a settled payment and
// flips the order's payment axis in one transaction.
func (s *orderService) collectCashPayment(ctx context.Context, order *domain.Order) error {
	const op = "order.MarkPaid"

	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		_, err := q.CreatePayment(ctx, repository.CreatePaymentParams{
			OrderID: order.ID,
			Method:  domain.PaymentMethodCOD,
			Amount:  order.Total,
			Status:  domain.PaymentStatusPaid,
		})
		if err != nil {
			return domain.Internal(err, op, "failed to record cash payment")
		}
		err = q.MarkOrderPaid(ctx, repository.MarkOrderPaidParams{OrderID: order.ID})
		if err != nil {
			return domain.Internal(err, op, "failed to mark order paid")
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.PaymentStatus = domain.PaymentStatusPaid
	return nil
}

func (s *orderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	const op = "order.MarkPaid"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "order", orderID.String())
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	shop, err := s.store.GetShop(ctx, order.ShopID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "shop", order.ShopID.String())
		}
		return nil, domain.Internal(err, op, "failed to load shop")
	}
	if !shop.AuthorizedFor(caller) {
		return nil, domain.Forbidden(op, "caller does not manage this shop")
	}

	if order.PaymentMethod != domain.PaymentMethodCOD {
		return nil, domain.Invalid(op, "only cash orders are marked paid manually")
	}
	if order.PaymentStatus != domain.PaymentStatusUnpaid {
		return nil, domain.Invalid(op, "order is not awaiting payment")
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, domain.Invalid(op, "cancelled orders cannot collect payment")
	}

	if err := s.collectCashPayment(ctx, &order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	const op = "order.Cancel"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "order", orderID.String())
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	if order.UserID != caller.ID {
		shop, err := s.store.GetShop(ctx, order.ShopID)
		if err != nil {
			if isNoRows(err) {
				return nil, domain.NotFound(op, "shop", order.ShopID.String())
			}
			return nil, domain.Internal(err, op, "failed to load shop")
		}
		if !shop.AuthorizedFor(caller) {
			return nil, domain.Forbidden(op, "caller may not cancel this order")
		}
	}

	if !domain.Cancellable(order.Status) {
		return nil, domain.Errorf(domain.EINVALID, op,
			"order in status %s cannot be cancelled", order.Status)
	}

	switch {
	case order.PaymentStatus == domain.PaymentStatusUnpaid:
		err := s.store.MarkOrderCancelled(ctx, repository.MarkOrderCancelledParams{
			OrderID: order.ID,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to cancel order")
		}
		order.Status = domain.OrderStatusCancelled

	case order.PaymentStatus == domain.PaymentStatusPaid && order.NeedsRefund:
		return nil, domain.Invalid(op, "order is already awaiting a refund")

	case order.PaymentStatus == domain.PaymentStatusPaid && order.PaymentMethod == domain.PaymentMethodCOD:
		// Cash was collected physically; the refund is executed later
		// by a separate privileged call.
		err := s.store.MarkOrderCancelled(ctx, repository.MarkOrderCancelledParams{
			OrderID:     order.ID,
			NeedsRefund: true,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to cancel order")
		}
		order.Status = domain.OrderStatusCancelled
		order.NeedsRefund = true

	case order.PaymentStatus == domain.PaymentStatusPaid:
		if _, err := s.refundOrder(ctx, &order); err != nil {
			return nil, err
		}

	default:
		return nil, domain.Errorf(domain.EINVALID, op,
			"order with payment status %s cannot be cancelled", order.PaymentStatus)
	}

	s.publish(ctx, events.SubjectOrderCancelled, &order)

	return &order, nil
}

func (s *orderService) Refund(ctx context.Context, orderID uuid.UUID) (string, error) {
	const op = "order.Refund"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return "", err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return "", domain.NotFound(op, "order", orderID.String())
		}
		return "", domain.Internal(err, op, "failed to load order")
	}

	shop, err := s.store.GetShop(ctx, order.ShopID)
	if err != nil {
		if isNoRows(err) {
			return "", domain.NotFound(op, "shop", order.ShopID.String())
		}
		return "", domain.Internal(err, op, "failed to load shop")
	}
	if !shop.AuthorizedFor(caller) {
		return "", domain.Forbidden(op, "caller does not manage this shop")
	}

	msg, err := s.refundOrder(ctx, &order)
	if err != nil {
		return "", err
	}

	s.publish(ctx, events.SubjectOrderRefunded, &order)

	return msg, nil
}

// refundOrder cross-checks the local payment ledger against the live
// provider state before issuing a refund, so drift between the two can
// never over-refund.
func (s *orderService) refundOrder(ctx context.Context, order *domain.Order) (string, error) {
	const op = "order.Refund"

	payment, err := s.store.GetPaymentByOrder(ctx, order.ID)
	if err != nil {
		if isNoRows(err) {
			return "", domain.NotFound(op, "payment record for order", order.OrderNumber)
		}
		return "", domain.Internal(err, op, "failed to load payment")
	}
	if payment.Status == domain.PaymentStatusRefunded {
		return "", domain.Invalid(op, "payment has already been refunded")
	}
	if payment.Status == domain.PaymentStatusUnpaid {
		return "", domain.Invalid(op, "order has no settled payment to refund")
	}

	if order.PaymentMethod == domain.PaymentMethodCOD {
		if !order.NeedsRefund {
			return "", domain.Invalid(op, "cash order is not marked for refund")
		}
	} else {
		if err := s.refundWithProvider(ctx, order, &payment); err != nil {
			return "", err
		}
	}

	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.MarkOrderRefunded(ctx, order.ID); err != nil {
			return domain.Internal(err, op, "failed to mark order refunded")
		}
		if err := q.MarkPaymentRefunded(ctx, payment.ID); err != nil {
			return domain.Internal(err, op, "failed to mark payment refunded")
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	order.Status = domain.OrderStatusCancelled
	order.PaymentStatus = domain.PaymentStatusRefunded
	order.NeedsRefund = false

	telemetry.RecordRefund(payment.Amount)

	return fmt.Sprintf("order %s refunded", order.OrderNumber), nil
}

func (s *orderService) refundWithProvider(ctx context.Context, order *domain.Order, payment *domain.Payment) error {
	const op = "order.Refund"

	intent, err := s.billing.GetPaymentIntent(ctx, payment.ProviderPaymentID)
	if err != nil {
		return err
	}

	// Charge-level amounts are authoritative when a charge exists; the
	// payment intent's aggregate is the fallback.
	var (
		chargeAmount    int64
		alreadyRefunded int64
		chargeID        string
	)
	if intent.LatestChargeID != "" {
		ch, err := s.billing.GetCharge(ctx, intent.LatestChargeID)
		if err != nil {
			return err
		}
		chargeAmount = ch.AmountCents
		alreadyRefunded = ch.AmountRefundedCents
		chargeID = ch.ID
	} else {
		chargeAmount = intent.AmountCents
	}

	available := chargeAmount - alreadyRefunded
	if available <= 0 {
		return domain.Errorf(domain.EINVALID, op,
			"nothing left to refund: charge %d cents has %d cents already refunded",
			chargeAmount, alreadyRefunded)
	}
	if payment.Amount > available {
		// Deliberately verbose so support can see both ledgers.
		return domain.Errorf(domain.EINVALID, op,
			"recorded payment of %d cents exceeds the %d cents still refundable on the provider (charge %d cents, already refunded %d cents)",
			payment.Amount, available, chargeAmount, alreadyRefunded)
	}

	_, err = s.billing.CreateRefund(ctx, billing.RefundParams{
		ChargeID:        chargeID,
		PaymentIntentID: payment.ProviderPaymentID,
		AmountCents:     payment.Amount,
		Metadata: map[string]string{
			"order_id":     order.ID.String(),
			"order_number": order.OrderNumber,
		},
	})
	return err
}

func (s *orderService) ReleaseExpiredReservations(ctx context.Context) (int, error) {
	const op = "order.ReleaseExpiredReservations"

	expired, err := s.store.ListExpiredReservations(ctx, s.now())
	if err != nil {
		return 0, domain.Internal(err, op, "failed to list expired reservations")
	}

	released := 0
	for _, r := range expired {
		r := r
		err := s.store.ExecTx(ctx, func(q repository.Querier) error {
			err := q.RestoreVariantStock(ctx, repository.VariantStockParams{
				ProductID: r.ProductID,
				VariantID: r.VariantID,
				Quantity:  r.Quantity,
			})
			if err != nil {
				return err
			}
			return q.ReleaseReservation(ctx, r.ID)
		})
		if err != nil {
			s.logger.Error("failed to release expired reservation",
				slog.String("reservation_id", r.ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		released++
	}
	telemetry.RecordReservationsReleased(released)
	return released, nil
}

func (s *orderService) Get(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	const op = "order.Get"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, "order", orderID.String())
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}

	if order.UserID != caller.ID {
		shop, err := s.store.GetShop(ctx, order.ShopID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to load shop")
		}
		if !shop.AuthorizedFor(caller) {
			return nil, domain.Forbidden(op, "caller may not view this order")
		}
	}

	return &order, nil
}

func (s *orderService) ListMine(ctx context.Context, page Page) ([]domain.Order, *PageMeta, error) {
	const op = "order.ListMine"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, nil, err
	}

	page = page.normalize()
	orders, total, err := s.store.ListOrdersByUser(ctx, repository.ListOrdersParams{
		ID:     caller.ID,
		Limit:  page.Limit,
		Offset: page.offset(),
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "failed to list orders")
	}
	return orders, page.meta(total), nil
}

func (s *orderService) ListForShop(ctx context.Context, shopID uuid.UUID, page Page) ([]domain.Order, *PageMeta, error) {
	const op = "order.ListForShop"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, nil, err
	}

	shop, err := s.store.GetShop(ctx, shopID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil, domain.NotFound(op, "shop", shopID.String())
		}
		return nil, nil, domain.Internal(err, op, "failed to load shop")
	}
	if !shop.AuthorizedFor(caller) {
		return nil, nil, domain.Forbidden(op, "caller does not manage this shop")
	}

	page = page.normalize()
	orders, total, err := s.store.ListOrdersByShop(ctx, repository.ListOrdersParams{
		ID:     shopID,
		Limit:  page.Limit,
		Offset: page.offset(),
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "failed to list orders")
	}
	return orders, page.meta(total), nil
}

func (s *orderService) publish(ctx context.Context, subject string, order *domain.Order) {
	s.events.PublishOrderEvent(ctx, events.OrderEvent{
		Subject:     subject,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		ShopID:      order.ShopID,
		TotalCents:  order.Total,
		OccurredAt:  s.now(),
	})
}

// sessionMetadata is the serialized order carried on a checkout
// session. It is the single source the webhook reconstructs from.
type sessionMetadata struct {
	CheckoutRef    string
	UserID         uuid.UUID
	ShopID         uuid.UUID
	CouponID       *uuid.UUID
	DeliveryOption domain.DeliveryOption
	DeliveryDate   time.Time
	ShippingAddr   string
	Subtotal       int64
	Discount       int64
	DeliveryCharge int64
	Total          int64
	Items          []pricing.Line
}

type metadataItem struct {
	ProductID string `json:"p"`
	VariantID string `json:"v"`
	Quantity  int32  `json:"q"`
	UnitPrice int64  `json:"u"`
}

func encodeSessionMetadata(caller *domain.Identity, params CheckoutParams, priced *pricedCheckout, checkoutRef string) (map[string]string, error) {
	items := make([]metadataItem, len(priced.quote.Lines))
	for i, l := range priced.quote.Lines {
		items[i] = metadataItem{
			ProductID: l.ProductID.String(),
			VariantID: l.VariantID.String(),
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{
		"checkout_ref":    checkoutRef,
		"user_id":         caller.ID.String(),
		"shop_id":         params.ShopID.String(),
		"delivery_option": string(params.DeliveryOption),
		"delivery_date":   priced.deliveryDate.Format(time.RFC3339),
		"shipping_addr":   params.ShippingAddr,
		"subtotal":        fmt.Sprintf("%d", priced.quote.Subtotal),
		"discount":        fmt.Sprintf("%d", priced.quote.Discount),
		"delivery_charge": fmt.Sprintf("%d", priced.quote.DeliveryCharge),
		"total":           fmt.Sprintf("%d", priced.quote.Total),
		"items":           string(itemsJSON),
	}
	if priced.coupon != nil {
		meta["coupon_id"] = priced.coupon.ID.String()
	}
	return meta, nil
}

func decodeSessionMetadata(meta map[string]string) (*sessionMetadata, error) {
	out := &sessionMetadata{
		CheckoutRef:    meta["checkout_ref"],
		DeliveryOption: domain.DeliveryOption(meta["delivery_option"]),
		ShippingAddr:   meta["shipping_addr"],
	}
	if out.CheckoutRef == "" {
		return nil, fmt.Errorf("metadata missing checkout_ref")
	}

	var err error
	if out.UserID, err = uuid.Parse(meta["user_id"]); err != nil {
		return nil, fmt.Errorf("metadata user_id: %w", err)
	}
	if out.ShopID, err = uuid.Parse(meta["shop_id"]); err != nil {
		return nil, fmt.Errorf("metadata shop_id: %w", err)
	}
	if raw, ok := meta["coupon_id"]; ok {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("metadata coupon_id: %w", err)
		}
		out.CouponID = &id
	}
	if out.DeliveryDate, err = time.Parse(time.RFC3339, meta["delivery_date"]); err != nil {
		return nil, fmt.Errorf("metadata delivery_date: %w", err)
	}

	for _, field := range []struct {
		key  string
		dest *int64
	}{
		{"subtotal", &out.Subtotal},
		{"discount", &out.Discount},
		{"delivery_charge", &out.DeliveryCharge},
		{"total", &out.Total},
	} {
		if _, err := fmt.Sscanf(meta[field.key], "%d", field.dest); err != nil {
			return nil, fmt.Errorf("metadata %s: %w", field.key, err)
		}
	}

	var items []metadataItem
	if err := json.Unmarshal([]byte(meta["items"]), &items); err != nil {
		return nil, fmt.Errorf("metadata items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("metadata items is empty")
	}
	for _, item := range items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("metadata item product id: %w", err)
		}
		variantID, err := uuid.Parse(item.VariantID)
		if err != nil {
			return nil, fmt.Errorf("metadata item variant id: %w", err)
		}
		out.Items = append(out.Items, pricing.Line{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	return out, nil
}
