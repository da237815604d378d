package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/service"
)

type checkoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	VariantID string `json:"variant_id" validate:"required,uuid4"`
	Quantity  int32  `json:"quantity" validate:"required,gt=0"`
}

type checkoutRequest struct {
	ShopID         string                `json:"shop_id" validate:"required,uuid4"`
	Items          []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
	CouponCode     string                `json:"coupon_code"`
	DeliveryOption string                `json:"delivery_option" validate:"required,oneof=standard express overnight"`
	ShippingAddr   string                `json:"shipping_address" validate:"required"`
	PaymentMethod  string                `json:"payment_method" validate:"required,oneof=cod online"`
}

// Checkout handles POST /orders/checkout.
func (h *Handler) Checkout(c echo.Context) error {
	var req checkoutRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	params, err := req.toParams()
	if err != nil {
		return err
	}

	result, err := h.orders.Checkout(c.Request().Context(), params)
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Order == nil {
		// Online checkout: nothing persisted yet, the client follows
		// the payment URL.
		status = http.StatusOK
	}
	return respond(c, status, result)
}

func (r checkoutRequest) toParams() (service.CheckoutParams, error) {
	shopID, err := uuidField(r.ShopID, "shop_id")
	if err != nil {
		return service.CheckoutParams{}, err
	}

	items := make([]service.CheckoutItem, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := uuidField(item.ProductID, "product_id")
		if err != nil {
			return service.CheckoutParams{}, err
		}
		variantID, err := uuidField(item.VariantID, "variant_id")
		if err != nil {
			return service.CheckoutParams{}, err
		}
		items = append(items, service.CheckoutItem{
			ProductID: productID,
			VariantID: variantID,
			Quantity:  item.Quantity,
		})
	}

	return service.CheckoutParams{
		ShopID:         shopID,
		Items:          items,
		CouponCode:     r.CouponCode,
		DeliveryOption: domain.DeliveryOption(r.DeliveryOption),
		ShippingAddr:   r.ShippingAddr,
		PaymentMethod:  domain.PaymentMethod(r.PaymentMethod),
	}, nil
}

// GetOrder handles GET /orders/:id.
func (h *Handler) GetOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

// ListMyOrders handles GET /orders.
func (h *Handler) ListMyOrders(c echo.Context) error {
	var page service.Page
	if err := c.Bind(&page); err != nil {
		return domain.Invalid("http.bind", "malformed pagination")
	}

	orders, meta, err := h.orders.ListMine(c.Request().Context(), page)
	if err != nil {
		return err
	}
	return respondPage(c, http.StatusOK, orders, meta)
}

// ListShopOrders handles GET /shops/:id/orders.
func (h *Handler) ListShopOrders(c echo.Context) error {
	shopID, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var page service.Page
	if err := c.Bind(&page); err != nil {
		return domain.Invalid("http.bind", "malformed pagination")
	}

	orders, meta, err := h.orders.ListForShop(c.Request().Context(), shopID, page)
	if err != nil {
		return err
	}
	return respondPage(c, http.StatusOK, orders, meta)
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending processing completed cancelled"`
}

// ChangeOrderStatus handles PATCH /orders/:id/status.
func (h *Handler) ChangeOrderStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req changeStatusRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	order, err := h.orders.ChangeStatus(c.Request().Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

// MarkOrderPaid handles POST /orders/:id/mark-paid. Records cash
// collection for a COD order.
func (h *Handler) MarkOrderPaid(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.MarkPaid(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

// CancelOrder handles POST /orders/:id/cancel.
func (h *Handler) CancelOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orders.Cancel(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, order)
}

// RefundOrder handles POST /orders/:id/refund.
func (h *Handler) RefundOrder(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	msg, err := h.orders.Refund(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, map[string]string{"message": msg})
}
