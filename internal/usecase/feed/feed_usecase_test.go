package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/testutil"
)

var (
	nyc      = domain.Location{Lat: 40.7128, Lon: -74.0060}
	brooklyn = domain.Location{Lat: 40.6782, Lon: -73.9442}
	boston   = domain.Location{Lat: 42.3601, Lon: -71.0589}
)

func swipe(t *testing.T, repos *testutil.Repos, seekerID, rideID string, action domain.SwipeAction) {
	t.Helper()
	now := time.Now()
	if err := repos.Swipes.Upsert(context.Background(), &domain.Swipe{
		SeekerID: seekerID, RideID: rideID, Action: action, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Upsert swipe: %v", err)
	}
}

func TestGetNearbyRides(t *testing.T) {
	repos := testutil.NewRepos()
	uc := NewFeedUseCase(repos.Users, repos.Rides, repos.Profiles, repos.Swipes)
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)
	seeker := repos.Seeker(t)

	far := repos.Ride(t, rider.ID, domain.RideAvailable, brooklyn, 10)
	near := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 10)
	repos.Ride(t, rider.ID, domain.RideAvailable, boston, 10)
	repos.Ride(t, rider.ID, domain.RideMatched, nyc, 10)

	rides, err := uc.GetNearbyRides(ctx, seeker.ID, &NearbyQuery{Lat: nyc.Lat, Lon: nyc.Lon, RadiusKm: 20})
	if err != nil {
		t.Fatalf("GetNearbyRides() error = %v", err)
	}
	if len(rides) != 2 {
		t.Fatalf("GetNearbyRides() returned %d rides, want 2", len(rides))
	}
	if rides[0].ID != near.ID || rides[1].ID != far.ID {
		t.Errorf("order = [%s %s], want nearest first", rides[0].ID, rides[1].ID)
	}
	if rides[0].DistanceKm != 0 {
		t.Errorf("distance to same point = %f", rides[0].DistanceKm)
	}
	if r := rides[0].Rider; r == nil || r.Name != "Riley" || r.MainPhoto == nil {
		t.Errorf("rider = %+v", r)
	}

	swipe(t, repos, seeker.ID, near.ID, domain.SwipePass)
	rides, err = uc.GetNearbyRides(ctx, seeker.ID, &NearbyQuery{Lat: nyc.Lat, Lon: nyc.Lon, RadiusKm: 20, ExcludeSwiped: true})
	if err != nil {
		t.Fatalf("GetNearbyRides(exclude_swiped) error = %v", err)
	}
	if len(rides) != 1 || rides[0].ID != far.ID {
		t.Errorf("exclude_swiped returned %d rides", len(rides))
	}

	own, _ := uc.GetNearbyRides(ctx, rider.ID, &NearbyQuery{Lat: nyc.Lat, Lon: nyc.Lon, RadiusKm: 20})
	if len(own) != 0 {
		t.Errorf("rider sees %d own rides", len(own))
	}
}

func TestGetNearbyRidesDefaultsAndValidation(t *testing.T) {
	repos := testutil.NewRepos()
	uc := NewFeedUseCase(repos.Users, repos.Rides, repos.Profiles, repos.Swipes)
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)

	// Brooklyn is about 7 km from lower Manhattan, inside the default radius.
	repos.Ride(t, rider.ID, domain.RideAvailable, brooklyn, 10)
	rides, err := uc.GetNearbyRides(ctx, "someone", &NearbyQuery{Lat: nyc.Lat, Lon: nyc.Lon})
	if err != nil {
		t.Fatalf("GetNearbyRides() error = %v", err)
	}
	if len(rides) != 1 {
		t.Errorf("default radius returned %d rides, want 1", len(rides))
	}

	bad := []*NearbyQuery{
		{Lat: 91, Lon: 0},
		{Lat: 0, Lon: -181},
		{Lat: 0, Lon: 0, RadiusKm: MaxRadiusKm + 1},
	}
	for _, q := range bad {
		if _, err := uc.GetNearbyRides(ctx, "someone", q); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("GetNearbyRides(%+v) error = %v, want ErrInvalidInput", q, err)
		}
	}
}

func TestGetNearbyRidesIsNotCappedByAge(t *testing.T) {
	repos := testutil.NewRepos()
	uc := NewFeedUseCase(repos.Users, repos.Rides, repos.Profiles, repos.Swipes)
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)

	old := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 10)
	for i := 0; i < 2500; i++ {
		repos.Ride(t, rider.ID, domain.RideAvailable, boston, 10)
	}

	rides, err := uc.GetNearbyRides(ctx, "someone", &NearbyQuery{Lat: nyc.Lat, Lon: nyc.Lon, RadiusKm: 5})
	if err != nil {
		t.Fatalf("GetNearbyRides() error = %v", err)
	}
	if len(rides) != 1 || rides[0].ID != old.ID {
		t.Errorf("GetNearbyRides() returned %d rides, want the oldest nearby one", len(rides))
	}
}

func TestGetNextRideAndResetPasses(t *testing.T) {
	repos := testutil.NewRepos()
	uc := NewFeedUseCase(repos.Users, repos.Rides, repos.Profiles, repos.Swipes)
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)
	seeker := repos.Seeker(t)
	q := &NearbyQuery{Lat: nyc.Lat, Lon: nyc.Lon, RadiusKm: 20}

	near := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 10)
	far := repos.Ride(t, rider.ID, domain.RideAvailable, brooklyn, 10)

	next, err := uc.GetNextRide(ctx, seeker.ID, q)
	if err != nil || next == nil || next.ID != near.ID {
		t.Fatalf("GetNextRide() = %v, %v, want nearest ride", next, err)
	}

	swipe(t, repos, seeker.ID, near.ID, domain.SwipePass)
	swipe(t, repos, seeker.ID, far.ID, domain.SwipeLike)
	next, err = uc.GetNextRide(ctx, seeker.ID, q)
	if err != nil || next != nil {
		t.Fatalf("GetNextRide() after swiping all = %v, %v, want nil", next, err)
	}

	n, err := uc.ResetPasses(ctx, seeker.ID)
	if err != nil || n != 1 {
		t.Fatalf("ResetPasses() = %d, %v, want 1", n, err)
	}
	next, _ = uc.GetNextRide(ctx, seeker.ID, q)
	if next == nil || next.ID != near.ID {
		t.Errorf("passed ride not back in feed: %v", next)
	}
	if _, err := repos.Swipes.Get(ctx, seeker.ID, far.ID); err != nil {
		t.Errorf("like was removed: %v", err)
	}
	pass, err := repos.Swipes.Get(ctx, seeker.ID, near.ID)
	if err != nil {
		t.Fatalf("pass was removed: %v", err)
	}
	if pass.Action != domain.SwipePass || pass.ResetAt == nil {
		t.Errorf("reset pass = %+v, want pass with reset_at", pass)
	}
	if n, _ := uc.ResetPasses(ctx, seeker.ID); n != 0 {
		t.Errorf("second ResetPasses() = %d, want 0", n)
	}

	// swiping again makes the pass count
	swipe(t, repos, seeker.ID, near.ID, domain.SwipePass)
	if next, _ = uc.GetNextRide(ctx, seeker.ID, q); next != nil {
		t.Errorf("GetNextRide() after passing again = %v, want nil", next.ID)
	}

	if _, err := uc.GetNextRide(ctx, rider.ID, q); !errors.Is(err, domain.ErrNotSeeker) {
		t.Errorf("GetNextRide() by rider error = %v, want ErrNotSeeker", err)
	}
	if _, err := uc.ResetPasses(ctx, rider.ID); !errors.Is(err, domain.ErrNotSeeker) {
		t.Errorf("ResetPasses() by rider error = %v, want ErrNotSeeker", err)
	}
}
