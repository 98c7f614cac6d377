// Package testutil seeds an in-memory store for usecase tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository/memory"
)

type Repos struct {
	Store    *memory.Store
	Tx       repository.TxManager
	Users    repository.UserRepository
	Profiles repository.ProfileRepository
	Rides    repository.RideRepository
	Swipes   repository.SwipeRepository
	Matches  repository.MatchRepository
	Ratings  repository.RatingRepository
	Payments repository.PaymentRepository
}

func NewRepos() *Repos {
	s := memory.NewStore()
	return &Repos{
		Store:    s,
		Tx:       memory.NewTxManager(s),
		Users:    memory.NewUserRepository(s),
		Profiles: memory.NewProfileRepository(s),
		Rides:    memory.NewRideRepository(s),
		Swipes:   memory.NewSwipeRepository(s),
		Matches:  memory.NewMatchRepository(s),
		Ratings:  memory.NewRatingRepository(s),
		Payments: memory.NewPaymentRepository(s),
	}
}

// Rider creates a rider with the given KYC status and a profile.
func (r *Repos) Rider(t *testing.T, kyc domain.KYCStatus) *domain.User {
	t.Helper()
	u := r.user(t, domain.RoleRider, "Riley")
	doc := "/uploads/kyc/" + u.ID + ".jpg"
	if err := r.Users.UpdateKYC(context.Background(), u.ID, kyc, &doc); err != nil {
		t.Fatalf("UpdateKYC() error = %v", err)
	}
	u.KYCStatus = &kyc
	return u
}

// Seeker creates a seeker with a profile.
func (r *Repos) Seeker(t *testing.T) *domain.User {
	t.Helper()
	return r.user(t, domain.RoleSeeker, "Sam")
}

func (r *Repos) user(t *testing.T, role domain.Role, name string) *domain.User {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	id := uuid.NewString()
	u := domain.NewUser(id, "+1"+digits(id), role, now)
	if err := r.Users.Create(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	photo := "/uploads/photos/" + id + "/main.jpg"
	if err := r.Profiles.Create(ctx, &domain.Profile{
		UserID:    id,
		Name:      name,
		Age:       28,
		Photos:    []string{photo},
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return u
}

// Ride stores a ride in the given status at the given start point.
func (r *Repos) Ride(t *testing.T, riderID string, status domain.RideStatus, start domain.Location, fare float64) *domain.Ride {
	t.Helper()
	now := time.Now()
	ride := &domain.Ride{
		ID:            uuid.NewString(),
		RiderID:       riderID,
		Start:         start,
		FarePerSeat:   fare,
		Currency:      "usd",
		Status:        status,
		PaymentStatus: domain.PaymentStateUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Rides.Create(context.Background(), ride); err != nil {
		t.Fatalf("create ride: %v", err)
	}
	return ride
}

// Match stores a match in the given status.
func (r *Repos) Match(t *testing.T, ride *domain.Ride, seekerID string, status domain.MatchStatus) *domain.Match {
	t.Helper()
	now := time.Now()
	m := &domain.Match{
		ID:            uuid.NewString(),
		RideID:        ride.ID,
		RiderID:       ride.RiderID,
		SeekerID:      seekerID,
		Status:        status,
		RiderAccepted: status == domain.MatchActive || status == domain.MatchCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Matches.Create(context.Background(), m); err != nil {
		t.Fatalf("create match: %v", err)
	}
	return m
}

// CompletedRide stores a completed ride with a completed match between a
// fresh verified rider and a fresh seeker.
func (r *Repos) CompletedRide(t *testing.T, fare float64) (*domain.Ride, *domain.Match) {
	t.Helper()
	rider := r.Rider(t, domain.KYCVerified)
	seeker := r.Seeker(t)
	ride := r.Ride(t, rider.ID, domain.RideCompleted, domain.Location{Lat: 40.7128, Lon: -74.0060}, fare)
	return ride, r.Match(t, ride, seeker.ID, domain.MatchCompleted)
}

func (r *Repos) MustRide(t *testing.T, id string) *domain.Ride {
	t.Helper()
	ride, err := r.Rides.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get ride %s: %v", id, err)
	}
	return ride
}

func (r *Repos) MustMatch(t *testing.T, id string) *domain.Match {
	t.Helper()
	m, err := r.Matches.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get match %s: %v", id, err)
	}
	return m
}

func digits(s string) string {
	out := make([]byte, 0, 12)
	for i := 0; i < len(s) && len(out) < 12; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			out = append(out, c)
		case c >= 'a' && c <= 'f':
			out = append(out, '0'+(c-'a'))
		}
	}
	return string(out)
}
