package domain

import (
	"context"

	"github.com/google/uuid"
)

// Role identifies the privilege level of an authenticated caller.
type Role string

const (
	RoleUser       Role = "USER"
	RoleVendor     Role = "VENDOR"
	RoleShopAdmin  Role = "SHOP_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// Staff reports whether the role belongs to platform staff.
func (r Role) Staff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Identity is the authenticated caller resolved from the request token.
type Identity struct {
	ID    uuid.UUID
	Email string
	Role  Role
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the authenticated caller.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated caller from the context.
// Returns nil when the request is anonymous.
func IdentityFromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey).(*Identity)
	if !ok {
		return nil
	}
	return id
}

// RequireIdentity extracts the caller or returns an unauthorized error.
func RequireIdentity(ctx context.Context, op string) (*Identity, error) {
	id := IdentityFromContext(ctx)
	if id == nil {
		return nil, Unauthorized(op, "authentication required")
	}
	return id, nil
}
