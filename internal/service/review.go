package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rowanvale/souk/internal/domain"
	"github.com/rowanvale/souk/internal/repository"
)

// ReviewService manages reviews of products and shops. The review
// target is a tagged reference; a dispatch table maps each kind to the
// lookup that proves the target exists.
type ReviewService interface {
	Create(ctx context.Context, params CreateReviewParams) (*domain.Review, error)
	ListByTarget(ctx context.Context, target domain.ReviewTarget, page Page) ([]domain.Review, *PageMeta, error)
}

// CreateReviewParams contains parameters for creating a review.
type CreateReviewParams struct {
	Target domain.ReviewTarget
	Rating int32
	Body   string
}

type reviewService struct {
	store  repository.Store
	logger *slog.Logger

	// resolve maps a target kind to its existence check.
	resolve map[domain.ReviewTargetKind]func(ctx context.Context, id uuid.UUID) error
}

var _ ReviewService = (*reviewService)(nil)

func NewReviewService(store repository.Store, logger *slog.Logger) ReviewService {
	s := &reviewService{store: store, logger: logger}
	s.resolve = map[domain.ReviewTargetKind]func(ctx context.Context, id uuid.UUID) error{
		domain.ReviewTargetProduct: func(ctx context.Context, id uuid.UUID) error {
			_, err := store.GetProduct(ctx, id)
			return err
		},
		domain.ReviewTargetShop: func(ctx context.Context, id uuid.UUID) error {
			_, err := store.GetShop(ctx, id)
			return err
		},
	}
	return s
}

func (s *reviewService) Create(ctx context.Context, params CreateReviewParams) (*domain.Review, error) {
	const op = "review.Create"

	caller, err := domain.RequireIdentity(ctx, op)
	if err != nil {
		return nil, err
	}

	if !domain.ValidReviewTargetKind(params.Target.Kind) {
		return nil, domain.Invalid(op, "unknown review target kind: "+string(params.Target.Kind))
	}
	if params.Rating < 1 || params.Rating > 5 {
		return nil, domain.Invalid(op, "rating must be between 1 and 5")
	}

	if err := s.resolve[params.Target.Kind](ctx, params.Target.ID); err != nil {
		if isNoRows(err) {
			return nil, domain.NotFound(op, string(params.Target.Kind), params.Target.ID.String())
		}
		return nil, domain.Internal(err, op, "failed to resolve review target")
	}

	review, err := s.store.CreateReview(ctx, repository.CreateReviewParams{
		TargetKind: params.Target.Kind,
		TargetID:   params.Target.ID,
		UserID:     caller.ID,
		Rating:     params.Rating,
		Body:       params.Body,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create review")
	}

	return &review, nil
}

func (s *reviewService) ListByTarget(ctx context.Context, target domain.ReviewTarget, page Page) ([]domain.Review, *PageMeta, error) {
	const op = "review.ListByTarget"

	if !domain.ValidReviewTargetKind(target.Kind) {
		return nil, nil, domain.Invalid(op, "unknown review target kind: "+string(target.Kind))
	}

	page = page.normalize()
	reviews, total, err := s.store.ListReviewsByTarget(ctx, repository.ListReviewsParams{
		TargetKind: target.Kind,
		TargetID:   target.ID,
		Limit:      page.Limit,
		Offset:     page.offset(),
	})
	if err != nil {
		return nil, nil, domain.Internal(err, op, "failed to list reviews")
	}
	return reviews, page.meta(total), nil
}
