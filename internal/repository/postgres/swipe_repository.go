package postgres

import (
	"context"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type swipeRepository struct {
	db *sqlx.DB
}

func NewSwipeRepository(db *sqlx.DB) repository.SwipeRepository {
	return &swipeRepository{db: db}
}

func (r *swipeRepository) Upsert(ctx context.Context, swipe *domain.Swipe) error {
	query := `
		INSERT INTO swipe_actions (seeker_id, ride_id, action)
		VALUES ($1, $2, $3)
		ON CONFLICT (seeker_id, ride_id)
		DO UPDATE SET action = EXCLUDED.action, reset_at = NULL, updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`
	return conn(ctx, r.db).QueryRowxContext(ctx, query, swipe.SeekerID, swipe.RideID, swipe.Action).
		Scan(&swipe.CreatedAt, &swipe.UpdatedAt)
}

func (r *swipeRepository) Get(ctx context.Context, seekerID, rideID string) (*domain.Swipe, error) {
	var swipe domain.Swipe
	query := `SELECT * FROM swipe_actions WHERE seeker_id = $1 AND ride_id = $2`
	err := conn(ctx, r.db).GetContext(ctx, &swipe, query, seekerID, rideID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrSwipeNotFound
		}
		return nil, err
	}
	return &swipe, nil
}

func (r *swipeRepository) ListRideIDsBySeeker(ctx context.Context, seekerID string) ([]string, error) {
	var ids []string
	query := `SELECT ride_id FROM swipe_actions WHERE seeker_id = $1 AND reset_at IS NULL`
	err := conn(ctx, r.db).SelectContext(ctx, &ids, query, seekerID)
	return ids, err
}

func (r *swipeRepository) ResetPasses(ctx context.Context, seekerID string, at time.Time) (int, error) {
	query := `
		UPDATE swipe_actions
		SET reset_at = $2
		WHERE seeker_id = $1 AND action = 'pass' AND reset_at IS NULL
	`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, seekerID, at)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
