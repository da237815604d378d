package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewTargetKind discriminates what a review points at.
type ReviewTargetKind string

const (
	ReviewTargetProduct ReviewTargetKind = "product"
	ReviewTargetShop    ReviewTargetKind = "shop"
)

// ValidReviewTargetKind reports whether k is a known target kind.
func ValidReviewTargetKind(k ReviewTargetKind) bool {
	return k == ReviewTargetProduct || k == ReviewTargetShop
}

// ReviewTarget is a tagged reference to one of several entity types.
// The kind selects which repository resolves the id.
type ReviewTarget struct {
	Kind ReviewTargetKind `json:"kind"`
	ID   uuid.UUID        `json:"id"`
}

// Review is a user rating of a product or shop.
type Review struct {
	ID        uuid.UUID    `json:"id"`
	Target    ReviewTarget `json:"target"`
	UserID    uuid.UUID    `json:"user_id"`
	Rating    int32        `json:"rating"`
	Body      string       `json:"body,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
