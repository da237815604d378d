// Package handler exposes the marketplace over HTTP. Every response
// uses a uniform envelope so clients can branch on success without
// inspecting status codes.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/billing"
	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/service"
)

// Handler carries the service layer into the HTTP routes.
type Handler struct {
	orders   service.OrderService
	products service.ProductService
	coupons  service.CouponService
	reviews  service.ReviewService
	shops    service.ShopService
	billing  billing.Provider
	validate *validator.Validate
	logger   *slog.Logger
}

// Config wires the handler's collaborators.
type Config struct {
	Orders   service.OrderService
	Products service.ProductService
	Coupons  service.CouponService
	Reviews  service.ReviewService
	Shops    service.ShopService
	Billing  billing.Provider
	Logger   *slog.Logger
}

func New(cfg Config) *Handler {
	return &Handler{
		orders:   cfg.Orders,
		products: cfg.Products,
		coupons:  cfg.Coupons,
		reviews:  cfg.Reviews,
		shops:    cfg.Shops,
		billing:  cfg.Billing,
		validate: validator.New(),
		logger:   cfg.Logger,
	}
}

// envelope is the uniform response shape.
type envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message,omitempty"`
	Data       any         `json:"data,omitempty"`
	Meta       any         `json:"meta,omitempty"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, envelope{Success: true, StatusCode: status, Data: data})
}

func respondPage(c echo.Context, status int, data any, meta *service.PageMeta) error {
	return c.JSON(status, envelope{Success: true, StatusCode: status, Data: data, Meta: meta})
}

// statusFromCode maps domain error codes onto HTTP status codes.
func statusFromCode(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EFORBIDDEN:
		return http.StatusForbidden
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler is the echo HTTPErrorHandler for the whole API. Domain
// errors map to their status; anything unexpected is logged in full
// and collapsed to a generic 500 for the client.
func ErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := domain.ErrorMessage(err)

		var httpErr *echo.HTTPError
		var domainErr *domain.Error
		switch {
		case errors.As(err, &domainErr):
			status = statusFromCode(domain.ErrorCode(err))
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				message = m
			}
		}

		if status >= http.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.String("error", err.Error()))
		}

		_ = c.JSON(status, envelope{
			Success:    false,
			StatusCode: status,
			Message:    message,
		})
	}
}

// bind decodes and validates a request payload.
func (h *Handler) bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return domain.Invalid("http.bind", "malformed request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return domain.Invalid("http.bind", validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		f := fields[0]
		return "invalid field " + f.Field() + ": failed " + f.Tag() + " validation"
	}
	return "invalid request body"
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.Invalid("http.parse", "invalid "+name)
	}
	return id, nil
}

func uuidField(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Invalid("http.parse", "invalid "+name)
	}
	return id, nil
}
