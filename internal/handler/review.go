package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/service"
)

type createReviewRequest struct {
	TargetKind string `json:"target_kind" validate:"required,oneof=product shop"`
	TargetID   string `json:"target_id" validate:"required,uuid4"`
	Rating     int32  `json:"rating" validate:"required,min=1,max=5"`
	Body       string `json:"body"`
}

// CreateReview handles POST /reviews.
func (h *Handler) CreateReview(c echo.Context) error {
	var req createReviewRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	targetID, err := uuidField(req.TargetID, "target_id")
	if err != nil {
		return err
	}

	review, err := h.reviews.Create(c.Request().Context(), service.CreateReviewParams{
		Target: domain.ReviewTarget{
			Kind: domain.ReviewTargetKind(req.TargetKind),
			ID:   targetID,
		},
		Rating: req.Rating,
		Body:   req.Body,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, review)
}

// ListReviews handles GET /reviews?target_kind=product&target_id=...
func (h *Handler) ListReviews(c echo.Context) error {
	targetID, err := uuidField(c.QueryParam("target_id"), "target_id")
	if err != nil {
		return err
	}
	var page service.Page
	if err := c.Bind(&page); err != nil {
		return domain.Invalid("http.bind", "malformed pagination")
	}

	reviews, meta, err := h.reviews.ListByTarget(c.Request().Context(), domain.ReviewTarget{
		Kind: domain.ReviewTargetKind(c.QueryParam("target_kind")),
		ID:   targetID,
	}, page)
	if err != nil {
		return err
	}
	return respondPage(c, http.StatusOK, reviews, meta)
}
