package postgres

import (
	"context"
	"errors"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (
			user_id, name, age, bio, photos, hobbies, habits, personality
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		profile.UserID, profile.Name, profile.Age, profile.Bio,
		pq.Array(profile.Photos), pq.Array(profile.Hobbies),
		pq.Array(profile.Habits), pq.Array(profile.Personality),
	).Scan(&profile.CreatedAt, &profile.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrProfileAlreadyExists
	}
	return err
}

const selectProfile = `
	SELECT user_id, name, age, bio, photos, hobbies, habits, personality,
	       created_at, updated_at
	FROM profiles WHERE user_id = $1
`

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.get(ctx, selectProfile, userID)
}

func (r *profileRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Profile, error) {
	return r.get(ctx, selectProfile+` FOR UPDATE`, userID)
}

func (r *profileRepository) get(ctx context.Context, query, userID string) (*domain.Profile, error) {
	var profile domain.Profile
	err := conn(ctx, r.db).QueryRowxContext(ctx, query, userID).Scan(
		&profile.UserID, &profile.Name, &profile.Age, &profile.Bio,
		pq.Array(&profile.Photos), pq.Array(&profile.Hobbies),
		pq.Array(&profile.Habits), pq.Array(&profile.Personality),
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *domain.Profile) error {
	query := `
		UPDATE profiles
		SET name = $1, age = $2, bio = $3, photos = $4,
		    hobbies = $5, habits = $6, personality = $7,
		    updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $8
		RETURNING updated_at
	`
	err := conn(ctx, r.db).QueryRowxContext(
		ctx, query,
		profile.Name, profile.Age, profile.Bio, pq.Array(profile.Photos),
		pq.Array(profile.Hobbies), pq.Array(profile.Habits), pq.Array(profile.Personality),
		profile.UserID,
	).Scan(&profile.UpdatedAt)
	if isNotFound(err) {
		return domain.ErrProfileNotFound
	}
	return err
}
