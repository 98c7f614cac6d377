package swipe

import (
	"context"
	"fmt"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/validation"
)

// MatchEvaluator opens a match after a like. The match usecase implements it.
type MatchEvaluator interface {
	Evaluate(ctx context.Context, seekerID, rideID string) (*domain.Match, error)
}

type SwipeUseCase struct {
	swipeRepo repository.SwipeRepository
	rideRepo  repository.RideRepository
	userRepo  repository.UserRepository
	evaluator MatchEvaluator
	now       func() time.Time
}

func NewSwipeUseCase(
	swipeRepo repository.SwipeRepository,
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	evaluator MatchEvaluator,
) *SwipeUseCase {
	return &SwipeUseCase{
		swipeRepo: swipeRepo,
		rideRepo:  rideRepo,
		userRepo:  userRepo,
		evaluator: evaluator,
		now:       time.Now,
	}
}

// SwipeRequest represents a swipe action
type SwipeRequest struct {
	RideID string             `json:"ride_id" validate:"required,uuid"`
	Action domain.SwipeAction `json:"action" validate:"required,oneof=like pass super"`
}

// SwipeResponse represents swipe result
type SwipeResponse struct {
	IsMatch bool          `json:"is_match"`
	Swipe   *domain.Swipe `json:"swipe"`
	Match   *domain.Match `json:"match,omitempty"`
}

// RecordSwipe stores the seeker's latest action on a ride and, for like and
// super, runs match evaluation in the same request. The swipe stays recorded
// when evaluation fails.
func (uc *SwipeUseCase) RecordSwipe(ctx context.Context, seekerID string, req *SwipeRequest) (*SwipeResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, seekerID)
	if err != nil {
		return nil, err
	}
	if !user.IsSeeker() {
		return nil, domain.ErrNotSeeker
	}

	ride, err := uc.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}
	if ride.IsOwnedBy(seekerID) {
		return nil, domain.ErrCannotSwipeOwnRide
	}

	now := uc.now()
	swipe := &domain.Swipe{
		SeekerID:  seekerID,
		RideID:    ride.ID,
		Action:    req.Action,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.swipeRepo.Upsert(ctx, swipe); err != nil {
		return nil, fmt.Errorf("failed to record swipe: %w", err)
	}
	metrics.SwipesTotal.WithLabelValues(string(swipe.Action)).Inc()

	resp := &SwipeResponse{Swipe: swipe}
	if !req.Action.ExpressesInterest() {
		return resp, nil
	}

	match, err := uc.evaluator.Evaluate(ctx, seekerID, ride.ID)
	if err != nil {
		return nil, err
	}
	resp.Match = match
	resp.IsMatch = match.Status.IsOpen()
	return resp, nil
}
