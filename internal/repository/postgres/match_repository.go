package postgres

import (
	"context"
	"errors"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) Create(ctx context.Context, match *domain.Match) error {
	query := `
		INSERT INTO matches (id, ride_id, rider_id, seeker_id, status, rider_accepted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		match.ID, match.RideID, match.RiderID, match.SeekerID,
		match.Status, match.RiderAccepted, match.CreatedAt, match.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrRideAlreadyMatched
	}
	return err
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var match domain.Match
	query := `SELECT * FROM matches WHERE id = $1`
	err := conn(ctx, r.db).GetContext(ctx, &match, query, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) GetByRideAndSeeker(ctx context.Context, rideID, seekerID string) (*domain.Match, error) {
	var match domain.Match
	query := `SELECT * FROM matches WHERE ride_id = $1 AND seeker_id = $2`
	err := conn(ctx, r.db).GetContext(ctx, &match, query, rideID, seekerID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	return &match, nil
}

func (r *matchRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.Match, error) {
	var matches []*domain.Match
	query := `
		SELECT * FROM matches
		WHERE ride_id = $1
		ORDER BY created_at ASC
	`
	err := conn(ctx, r.db).SelectContext(ctx, &matches, query, rideID)
	return matches, err
}

func (r *matchRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Match, error) {
	var matches []*domain.Match
	query := `
		SELECT * FROM matches
		WHERE (rider_id = $1 OR seeker_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	err := conn(ctx, r.db).SelectContext(ctx, &matches, query, userID, limit, offset)
	return matches, err
}

func (r *matchRepository) Update(ctx context.Context, match *domain.Match) error {
	query := `
		UPDATE matches
		SET status = $1, rider_accepted = $2, rider_rating = $3, seeker_rating = $4,
		    responded_at = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		match.Status, match.RiderAccepted, match.RiderRating, match.SeekerRating,
		match.RespondedAt, match.UpdatedAt, match.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}
