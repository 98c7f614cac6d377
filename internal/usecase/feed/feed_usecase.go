package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/validation"
)

const (
	DefaultRadiusKm = 10.0
	MaxRadiusKm     = 200.0
)

type FeedUseCase struct {
	userRepo    repository.UserRepository
	rideRepo    repository.RideRepository
	profileRepo repository.ProfileRepository
	swipeRepo   repository.SwipeRepository
	now         func() time.Time
}

func NewFeedUseCase(
	userRepo repository.UserRepository,
	rideRepo repository.RideRepository,
	profileRepo repository.ProfileRepository,
	swipeRepo repository.SwipeRepository,
) *FeedUseCase {
	return &FeedUseCase{
		userRepo:    userRepo,
		rideRepo:    rideRepo,
		profileRepo: profileRepo,
		swipeRepo:   swipeRepo,
		now:         time.Now,
	}
}

// NearbyQuery represents a nearby search
type NearbyQuery struct {
	Lat           float64 `form:"lat" json:"lat" validate:"min=-90,max=90"`
	Lon           float64 `form:"lon" json:"lon" validate:"min=-180,max=180"`
	RadiusKm      float64 `form:"radius_km" json:"radius_km" validate:"gte=0,lte=200"`
	ExcludeSwiped bool    `form:"exclude_swiped" json:"exclude_swiped"`
}

// NearbyRide is a ride card shown in the feed
type NearbyRide struct {
	*domain.Ride
	DistanceKm float64               `json:"distance_km"`
	Rider      *domain.PublicProfile `json:"rider,omitempty"`
}

// GetNearbyRides lists available rides around a point, nearest first, with
// the rider's public profile. The caller's own rides are left out.
func (uc *FeedUseCase) GetNearbyRides(ctx context.Context, userID string, q *NearbyQuery) ([]*NearbyRide, error) {
	if err := validation.ValidateStruct(q); err != nil {
		return nil, err
	}
	radius := q.RadiusKm
	if radius == 0 {
		radius = DefaultRadiusKm
	}

	origin := domain.Location{Lat: q.Lat, Lon: q.Lon}
	rides, err := uc.rideRepo.ListWithin(ctx, domain.RideAvailable, domain.BoundingBoxAround(origin, radius))
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}

	swiped := map[string]bool{}
	if q.ExcludeSwiped {
		ids, err := uc.swipeRepo.ListRideIDsBySeeker(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to get swipes: %w", err)
		}
		for _, id := range ids {
			swiped[id] = true
		}
	}

	nearby := make([]*NearbyRide, 0)
	riders := map[string]*domain.PublicProfile{}
	for _, r := range rides {
		// Skip own rides and already swiped ones
		if r.RiderID == userID || swiped[r.ID] {
			continue
		}
		dist := domain.HaversineKm(origin, r.Start)
		if dist > radius {
			continue
		}

		rider, ok := riders[r.RiderID]
		if !ok {
			if p, err := uc.profileRepo.GetByUserID(ctx, r.RiderID); err == nil {
				rider = p.Public()
			}
			riders[r.RiderID] = rider
		}
		nearby = append(nearby, &NearbyRide{Ride: r, DistanceKm: dist, Rider: rider})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

// GetNextRide returns the nearest ride the seeker has not swiped yet, or nil
// when the feed is empty.
func (uc *FeedUseCase) GetNextRide(ctx context.Context, seekerID string, q *NearbyQuery) (*NearbyRide, error) {
	if err := uc.requireSeeker(ctx, seekerID); err != nil {
		return nil, err
	}
	next := *q
	next.ExcludeSwiped = true
	rides, err := uc.GetNearbyRides(ctx, seekerID, &next)
	if err != nil {
		return nil, err
	}
	if len(rides) == 0 {
		return nil, nil
	}
	return rides[0], nil
}

// ResetPasses brings the seeker's passed rides back into the feed. The pass
// swipes themselves are kept.
func (uc *FeedUseCase) ResetPasses(ctx context.Context, seekerID string) (int, error) {
	if err := uc.requireSeeker(ctx, seekerID); err != nil {
		return 0, err
	}
	n, err := uc.swipeRepo.ResetPasses(ctx, seekerID, uc.now())
	if err != nil {
		return 0, fmt.Errorf("failed to reset passes: %w", err)
	}
	return n, nil
}

func (uc *FeedUseCase) requireSeeker(ctx context.Context, userID string) error {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsSeeker() {
		return domain.ErrNotSeeker
	}
	return nil
}
