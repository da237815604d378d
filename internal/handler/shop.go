package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetShop handles GET /shops/:id.
func (h *Handler) GetShop(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	shop, err := h.shops.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, shop)
}

type payoutAccountRequest struct {
	AccountID string `json:"account_id" validate:"required"`
}

// RegisterPayoutAccount handles PUT /shops/:id/payout-account.
func (h *Handler) RegisterPayoutAccount(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req payoutAccountRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	shop, err := h.shops.RegisterPayoutAccount(c.Request().Context(), id, req.AccountID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, shop)
}
