package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/service"
)

// GetProduct handles GET /products/:id.
func (h *Handler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, product)
}

// ListProducts handles GET /products with optional shop_id and search
// filters.
func (h *Handler) ListProducts(c echo.Context) error {
	var page service.Page
	if err := c.Bind(&page); err != nil {
		return domain.Invalid("http.bind", "malformed pagination")
	}

	params := service.ListProductsParams{
		Search: c.QueryParam("search"),
		Page:   page,
	}
	if raw := c.QueryParam("shop_id"); raw != "" {
		shopID, err := uuid.Parse(raw)
		if err != nil {
			return domain.Invalid("http.parse", "invalid shop_id")
		}
		params.ShopID = &shopID
	}

	products, meta, err := h.products.List(c.Request().Context(), params)
	if err != nil {
		return err
	}
	return respondPage(c, http.StatusOK, products, meta)
}

type createVariantRequest struct {
	Attributes map[string]string `json:"attributes" validate:"required,min=1"`
	Quantity   int32             `json:"quantity" validate:"gte=0"`
	Price      *int64            `json:"price" validate:"omitempty,gte=0"`
}

type createProductRequest struct {
	ShopID      string                 `json:"shop_id" validate:"required,uuid4"`
	Name        string                 `json:"name" validate:"required"`
	Description string                 `json:"description"`
	BasePrice   int64                  `json:"base_price" validate:"gte=0"`
	Variants    []createVariantRequest `json:"variants" validate:"required,min=1,dive"`
}

// CreateProduct handles POST /products.
func (h *Handler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	shopID, err := uuidField(req.ShopID, "shop_id")
	if err != nil {
		return err
	}

	variants := make([]service.CreateVariantInput, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, service.CreateVariantInput{
			Attributes: v.Attributes,
			Quantity:   v.Quantity,
			Price:      v.Price,
		})
	}

	product, err := h.products.Create(c.Request().Context(), service.CreateProductParams{
		ShopID:      shopID,
		Name:        req.Name,
		Description: req.Description,
		BasePrice:   req.BasePrice,
		Variants:    variants,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, product)
}
