package ride

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/validation"
)

type RideUseCase struct {
	tx        repository.TxManager
	rideRepo  repository.RideRepository
	matchRepo repository.MatchRepository
	userRepo  repository.UserRepository
	publisher events.Publisher
	currency  string
	now       func() time.Time
}

func NewRideUseCase(
	tx repository.TxManager,
	rideRepo repository.RideRepository,
	matchRepo repository.MatchRepository,
	userRepo repository.UserRepository,
	publisher events.Publisher,
	currency string,
) *RideUseCase {
	return &RideUseCase{
		tx:        tx,
		rideRepo:  rideRepo,
		matchRepo: matchRepo,
		userRepo:  userRepo,
		publisher: publisher,
		currency:  currency,
		now:       time.Now,
	}
}

// CreateRideRequest represents a ride offer
type CreateRideRequest struct {
	Start       domain.Location  `json:"start"`
	End         *domain.Location `json:"end"`
	FarePerSeat float64          `json:"fare_per_seat" validate:"gt=0,lte=10000"`
}

// UpdateStatusRequest represents a status change requested by the rider
type UpdateStatusRequest struct {
	Status domain.RideStatus `json:"status" validate:"required"`
}

// CreateRide publishes a ride offer. Only KYC verified riders may offer rides.
func (uc *RideUseCase) CreateRide(ctx context.Context, riderID string, req *CreateRideRequest) (*domain.Ride, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if !user.IsRider() {
		return nil, domain.ErrNotRider
	}
	if !user.CanOfferRides() {
		return nil, domain.ErrKYCNotVerified
	}

	now := uc.now()
	ride := &domain.Ride{
		ID:            uuid.NewString(),
		RiderID:       riderID,
		Start:         req.Start,
		End:           req.End,
		FarePerSeat:   domain.RoundCents(req.FarePerSeat),
		Currency:      uc.currency,
		Status:        domain.RideAvailable,
		PaymentStatus: domain.PaymentStateUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.rideRepo.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to create ride: %w", err)
	}

	metrics.RidesTotal.WithLabelValues(string(ride.Status)).Inc()
	uc.publisher.Publish(ctx, events.RideEvent(events.RideCreated, ride))
	return ride, nil
}

// GetRide returns a ride by id
func (uc *RideUseCase) GetRide(ctx context.Context, rideID string) (*domain.Ride, error) {
	return uc.rideRepo.GetByID(ctx, rideID)
}

// ListMyRides returns the rider's own rides, newest first
func (uc *RideUseCase) ListMyRides(ctx context.Context, riderID string, limit, offset int) ([]*domain.Ride, error) {
	return uc.rideRepo.ListByRider(ctx, riderID, limit, offset)
}

// UpdateRideStatus applies a rider requested status change. available and
// matched are driven by matching and cannot be requested directly.
func (uc *RideUseCase) UpdateRideStatus(ctx context.Context, riderID, rideID string, req *UpdateStatusRequest) (*domain.Ride, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	switch req.Status {
	case domain.RideCancelled:
		return uc.CancelRide(ctx, riderID, rideID)
	case domain.RideInProgress:
		return uc.StartRide(ctx, riderID, rideID)
	case domain.RideCompleted:
		return uc.CompleteRide(ctx, riderID, rideID)
	case domain.RideAvailable, domain.RideMatched:
		return nil, fmt.Errorf("%w: %s is set by matching", domain.ErrInvalidTransition, req.Status)
	default:
		return nil, fmt.Errorf("%w: unknown ride status %q", domain.ErrInvalidInput, req.Status)
	}
}

// CancelRide cancels the ride and every open match on it.
func (uc *RideUseCase) CancelRide(ctx context.Context, riderID, rideID string) (*domain.Ride, error) {
	var (
		ride      *domain.Ride
		cancelled []*domain.Match
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ride, err = uc.lockOwnRide(ctx, riderID, rideID)
		if err != nil {
			return err
		}
		now := uc.now()
		if err := domain.TransitionRide(ride, domain.RideCancelled, now); err != nil {
			return err
		}
		if err := uc.rideRepo.Update(ctx, ride); err != nil {
			return err
		}

		matches, err := uc.matchRepo.ListByRide(ctx, ride.ID)
		if err != nil {
			return err
		}
		for _, m := range matches {
			if !m.Status.IsOpen() {
				continue
			}
			if err := domain.TransitionMatch(m, domain.MatchCancelled, now); err != nil {
				return err
			}
			if err := uc.matchRepo.Update(ctx, m); err != nil {
				return err
			}
			cancelled = append(cancelled, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(string(ride.Status)).Inc()
	evs := []events.Event{events.RideEvent(events.RideStatusChange, ride)}
	for _, m := range cancelled {
		metrics.MatchesTotal.WithLabelValues(string(m.Status)).Inc()
		evs = append(evs, events.MatchEvent(events.MatchCancelled, m))
	}
	uc.publisher.Publish(ctx, evs...)
	return ride, nil
}

// StartRide moves a matched ride to in_progress once the rider accepted a
// seeker.
func (uc *RideUseCase) StartRide(ctx context.Context, riderID, rideID string) (*domain.Ride, error) {
	var ride *domain.Ride
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ride, err = uc.lockOwnRide(ctx, riderID, rideID)
		if err != nil {
			return err
		}
		if _, err := uc.activeMatch(ctx, ride.ID); err != nil {
			return err
		}
		if err := domain.TransitionRide(ride, domain.RideInProgress, uc.now()); err != nil {
			return err
		}
		return uc.rideRepo.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(string(ride.Status)).Inc()
	uc.publisher.Publish(ctx, events.RideEvent(events.RideStatusChange, ride))
	return ride, nil
}

// CompleteRide finishes the ride and its active match together.
func (uc *RideUseCase) CompleteRide(ctx context.Context, riderID, rideID string) (*domain.Ride, error) {
	var (
		ride  *domain.Ride
		match *domain.Match
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		ride, err = uc.lockOwnRide(ctx, riderID, rideID)
		if err != nil {
			return err
		}
		now := uc.now()
		if err := domain.TransitionRide(ride, domain.RideCompleted, now); err != nil {
			return err
		}
		match, err = uc.activeMatch(ctx, ride.ID)
		if err != nil {
			return err
		}
		if err := domain.TransitionMatch(match, domain.MatchCompleted, now); err != nil {
			return err
		}
		if err := uc.rideRepo.Update(ctx, ride); err != nil {
			return err
		}
		return uc.matchRepo.Update(ctx, match)
	})
	if err != nil {
		return nil, err
	}

	metrics.RidesTotal.WithLabelValues(string(ride.Status)).Inc()
	metrics.MatchesTotal.WithLabelValues(string(match.Status)).Inc()
	uc.publisher.Publish(ctx,
		events.RideEvent(events.RideStatusChange, ride),
		events.MatchEvent(events.MatchCompleted, match),
	)
	return ride, nil
}

func (uc *RideUseCase) lockOwnRide(ctx context.Context, riderID, rideID string) (*domain.Ride, error) {
	ride, err := uc.rideRepo.GetForUpdate(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if !ride.IsOwnedBy(riderID) {
		return nil, domain.ErrForbidden
	}
	return ride, nil
}

func (uc *RideUseCase) activeMatch(ctx context.Context, rideID string) (*domain.Match, error) {
	matches, err := uc.matchRepo.ListByRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if m.Status == domain.MatchActive {
			return m, nil
		}
	}
	return nil, domain.ErrMatchNotActive
}
