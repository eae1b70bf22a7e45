package repository

import (
	"context"
	"time"

	"github.com/mentorconnect/mentorconnect-api/internal/models"
)

// RatingRepository writes session ratings
type RatingRepository struct {
	db DBTX
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db DBTX) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create inserts the rating of a session. A second rating is a conflict.
func (r *RatingRepository) Create(ctx context.Context, sessionID string, score int, review string) (*models.Rating, error) {
	start := time.Now()
	op := "createRating"

	var out models.Rating
	var text *string
	err := r.db.QueryRow(ctx, `
		INSERT INTO ratings (session_id, rating, review)
		VALUES ($1, $2, $3)
		RETURNING id, session_id, rating, review, created_at`,
		sessionID, score, nilIfEmpty(review),
	).Scan(&out.ID, &out.SessionID, &out.Rating, &text, &out.CreatedAt)
	observe(op, start, err)
	if err != nil {
		return nil, mapError(op, "rating", err)
	}
	if text != nil {
		out.Review = *text
	}
	return &out, nil
}
