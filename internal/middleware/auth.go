// Package middleware holds the echo middleware shared by every route
// group: bearer-token auth, request logging, and HTTP metrics.
package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/domain"
)

// Claims is the JWT payload carried by access tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate verifies the bearer token and stores the resolved
// identity on the request context for the service layer.
func Authenticate(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				return domain.Unauthorized("auth", "missing bearer token")
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !parsed.Valid {
				return domain.Unauthorized("auth", "invalid or expired token")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return domain.Unauthorized("auth", "malformed token subject")
			}

			identity := &domain.Identity{
				ID:    userID,
				Email: claims.Email,
				Role:  domain.Role(claims.Role),
			}
			c.SetRequest(c.Request().WithContext(
				domain.WithIdentity(c.Request().Context(), identity)))
			return next(c)
		}
	}
}

// RequireStaff rejects callers without a platform staff role. Must run
// after Authenticate.
func RequireStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := domain.IdentityFromContext(c.Request().Context())
			if identity == nil {
				return domain.Unauthorized("auth", "authentication required")
			}
			if !identity.Role.Staff() {
				return domain.Forbidden("auth", "staff role required")
			}
			return next(c)
		}
	}
}

// NewToken signs an access token for an identity. Token issuance
// happens outside this service; this exists for tooling and tests.
func NewToken(secret string, identity *domain.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: identity.Email,
		Role:  string(identity.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
