package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/domain"
)

// RequestLogger logs one structured line per request after it
// completes. Authenticated requests carry the caller id.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			attrs := []any{
				slog.String("method", c.Request().Method),
				slog.String("path", c.Request().URL.Path),
				slog.Int("status", c.Response().Status),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
			}
			if rid := c.Response().Header().Get(echo.HeaderXRequestID); rid != "" {
				attrs = append(attrs, slog.String("request_id", rid))
			}
			if identity := domain.IdentityFromContext(c.Request().Context()); identity != nil {
				attrs = append(attrs, slog.String("user_id", identity.ID.String()))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.Warn("request", attrs...)
				return err
			}

			logger.Info("request", attrs...)
			return nil
		}
	}
}
