package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/service"
)

type createCouponRequest struct {
	ShopID       string    `json:"shop_id" validate:"required,uuid4"`
	Code         string    `json:"code" validate:"required"`
	DiscountType string    `json:"discount_type" validate:"required,oneof=flat percentage"`
	Amount       int64     `json:"amount" validate:"gte=0"`
	Percent      float64   `json:"percent" validate:"gte=0,lte=100"`
	MaxDiscount  *int64    `json:"max_discount" validate:"omitempty,gt=0"`
	MinOrder     *int64    `json:"min_order" validate:"omitempty,gt=0"`
	StartsAt     time.Time `json:"starts_at" validate:"required"`
	EndsAt       time.Time `json:"ends_at" validate:"required"`
}

// CreateCoupon handles POST /coupons.
func (h *Handler) CreateCoupon(c echo.Context) error {
	var req createCouponRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	shopID, err := uuidField(req.ShopID, "shop_id")
	if err != nil {
		return err
	}

	coupon, err := h.coupons.Create(c.Request().Context(), service.CreateCouponParams{
		ShopID:       shopID,
		Code:         req.Code,
		DiscountType: domain.DiscountType(req.DiscountType),
		Amount:       req.Amount,
		Percent:      req.Percent,
		MaxDiscount:  req.MaxDiscount,
		MinOrder:     req.MinOrder,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, coupon)
}

// ListShopCoupons handles GET /shops/:id/coupons.
func (h *Handler) ListShopCoupons(c echo.Context) error {
	shopID, err := parseID(c, "id")
	if err != nil {
		return err
	}

	coupons, err := h.coupons.ListByShop(c.Request().Context(), shopID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, coupons)
}

type previewCouponRequest struct {
	ShopID      string `json:"shop_id" validate:"required,uuid4"`
	Code        string `json:"code" validate:"required"`
	OrderAmount int64  `json:"order_amount" validate:"required,gt=0"`
}

// PreviewCoupon handles POST /coupons/preview. It runs the same
// resolution as checkout, so the preview can never disagree with the
// charged discount.
func (h *Handler) PreviewCoupon(c echo.Context) error {
	var req previewCouponRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	shopID, err := uuidField(req.ShopID, "shop_id")
	if err != nil {
		return err
	}

	resolution, err := h.coupons.Resolve(c.Request().Context(), req.Code, shopID, req.OrderAmount)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, resolution)
}
