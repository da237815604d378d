package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rowanvale/souk/internal/domain"
)

type CreateReviewParams struct {
	TargetKind domain.ReviewTargetKind
	TargetID   uuid.UUID
	UserID     uuid.UUID
	Rating     int32
	Body       string
}

const createReview = `
INSERT INTO reviews (target_kind, target_id, user_id, rating, body)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, target_kind, target_id, user_id, rating, body, created_at, updated_at
`

func (q *Queries) CreateReview(ctx context.Context, arg CreateReviewParams) (domain.Review, error) {
	row := q.db.QueryRow(ctx, createReview,
		string(arg.TargetKind), pgUUID(arg.TargetID), pgUUID(arg.UserID), arg.Rating, arg.Body)
	return scanReview(row)
}

type ListReviewsParams struct {
	TargetKind domain.ReviewTargetKind
	TargetID   uuid.UUID
	Limit      int32
	Offset     int32
}

const listReviewsByTarget = `
SELECT id, target_kind, target_id, user_id, rating, body, created_at, updated_at,
       COUNT(*) OVER() AS total
FROM reviews
WHERE target_kind = $1 AND target_id = $2 AND is_deleted = FALSE
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`

func (q *Queries) ListReviewsByTarget(ctx context.Context, arg ListReviewsParams) ([]domain.Review, int64, error) {
	rows, err := q.db.Query(ctx, listReviewsByTarget,
		string(arg.TargetKind), pgUUID(arg.TargetID), arg.Limit, arg.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		reviews []domain.Review
		total   int64
	)
	for rows.Next() {
		var (
			r         domain.Review
			id        pgtype.UUID
			kind      string
			targetID  pgtype.UUID
			userID    pgtype.UUID
			createdAt pgtype.Timestamptz
			updatedAt pgtype.Timestamptz
		)
		err := rows.Scan(&id, &kind, &targetID, &userID, &r.Rating, &r.Body, &createdAt, &updatedAt, &total)
		if err != nil {
			return nil, 0, err
		}
		r.ID = fromUUID(id)
		r.Target = domain.ReviewTarget{Kind: domain.ReviewTargetKind(kind), ID: fromUUID(targetID)}
		r.UserID = fromUUID(userID)
		r.CreatedAt = createdAt.Time
		r.UpdatedAt = updatedAt.Time
		reviews = append(reviews, r)
	}
	return reviews, total, rows.Err()
}

func scanReview(row rowScanner) (domain.Review, error) {
	var (
		r         domain.Review
		id        pgtype.UUID
		kind      string
		targetID  pgtype.UUID
		userID    pgtype.UUID
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	err := row.Scan(&id, &kind, &targetID, &userID, &r.Rating, &r.Body, &createdAt, &updatedAt)
	if err != nil {
		return domain.Review{}, err
	}
	r.ID = fromUUID(id)
	r.Target = domain.ReviewTarget{Kind: domain.ReviewTargetKind(kind), ID: fromUUID(targetID)}
	r.UserID = fromUUID(userID)
	r.CreatedAt = createdAt.Time
	r.UpdatedAt = updatedAt.Time
	return r, nil
}
