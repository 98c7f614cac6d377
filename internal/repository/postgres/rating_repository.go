package postgres

import (
	"context"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type ratingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) repository.RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Upsert(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ride_ratings (match_id, rater_id, type, stars, comment)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (match_id, rater_id)
		DO UPDATE SET type = EXCLUDED.type, stars = EXCLUDED.stars,
		              comment = EXCLUDED.comment, updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.db).QueryRowxContext(ctx, query,
		rating.MatchID, rating.RaterID, rating.Type, rating.Stars, rating.Comment,
	).Scan(&rating.CreatedAt, &rating.UpdatedAt)
}

func (r *ratingRepository) ListByMatch(ctx context.Context, matchID string) ([]*domain.Rating, error) {
	var ratings []*domain.Rating
	query := `SELECT * FROM ride_ratings WHERE match_id = $1 ORDER BY created_at ASC`
	err := conn(ctx, r.db).SelectContext(ctx, &ratings, query, matchID)
	return ratings, err
}
