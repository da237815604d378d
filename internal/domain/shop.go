package domain

import (
	"time"

	"github.com/google/uuid"
)

// Shop is a vendor storefront. Deleted shops remain in the database but
// are invisible to every read path.
type Shop struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`

	// PayoutAccountID is the vendor's connected account for marketplace
	// fund transfers. Empty until the vendor registers one.
	PayoutAccountID string `json:"payout_account_id,omitempty"`

	AdminIDs  []uuid.UUID `json:"admin_ids,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AuthorizedFor reports whether the caller may act on this shop's
// orders, products, and coupons. Platform staff always may; otherwise
// the caller must own the shop or be one of its admins.
func (s *Shop) AuthorizedFor(caller *Identity) bool {
	if caller == nil {
		return false
	}
	if caller.Role.Staff() {
		return true
	}
	if s.OwnerID == caller.ID {
		return true
	}
	for _, id := range s.AdminIDs {
		if id == caller.ID {
			return true
		}
	}
	return false
}

// User is a marketplace account.
type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Role             Role      `json:"role"`
	StripeCustomerID string    `json:"stripe_customer_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
