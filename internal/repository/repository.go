package repository

import (
	"context"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
)

// TxManager runs fn so that every repository call made with the ctx passed
// to fn belongs to one atomic unit. Nested calls join the outer transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpdateKYC(ctx context.Context, id string, status domain.KYCStatus, documentURL *string) error
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	GetByUserID(ctx context.Context, userID string) (*domain.Profile, error)
	// GetByUserIDForUpdate locks the profile row until the surrounding
	// transaction ends.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Profile, error)
	Update(ctx context.Context, profile *domain.Profile) error
}

type RideRepository interface {
	Create(ctx context.Context, ride *domain.Ride) error
	GetByID(ctx context.Context, id string) (*domain.Ride, error)
	// GetForUpdate returns the ride and, inside a transaction, holds a row
	// lock on it until commit.
	GetForUpdate(ctx context.Context, id string) (*domain.Ride, error)
	Update(ctx context.Context, ride *domain.Ride) error
	// ListWithin returns every ride in status whose start lies inside box.
	ListWithin(ctx context.Context, status domain.RideStatus, box domain.BoundingBox) ([]*domain.Ride, error)
	ListByRider(ctx context.Context, riderID string, limit, offset int) ([]*domain.Ride, error)
}

type SwipeRepository interface {
	// Upsert stores the swipe, replacing the action of an earlier swipe on
	// the same (seeker, ride) pair.
	Upsert(ctx context.Context, swipe *domain.Swipe) error
	Get(ctx context.Context, seekerID, rideID string) (*domain.Swipe, error)
	// ListRideIDsBySeeker returns the rides the seeker has swiped on, leaving
	// out passes that were reset.
	ListRideIDsBySeeker(ctx context.Context, seekerID string) ([]string, error)
	// ResetPasses stamps the seeker's open passes with at and returns how
	// many. The rows are kept.
	ResetPasses(ctx context.Context, seekerID string, at time.Time) (int, error)
}

type MatchRepository interface {
	Create(ctx context.Context, match *domain.Match) error
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	GetByRideAndSeeker(ctx context.Context, rideID, seekerID string) (*domain.Match, error)
	ListByRide(ctx context.Context, rideID string) ([]*domain.Match, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Match, error)
	Update(ctx context.Context, match *domain.Match) error
}

type RatingRepository interface {
	Upsert(ctx context.Context, rating *domain.Rating) error
	ListByMatch(ctx context.Context, matchID string) ([]*domain.Rating, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByMatch(ctx context.Context, matchID string) (*domain.Payment, error)
	GetByProviderIntent(ctx context.Context, intentID string) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error
}
