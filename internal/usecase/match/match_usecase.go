package match

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
)

type MatchUseCase struct {
	tx          repository.TxManager
	matchRepo   repository.MatchRepository
	rideRepo    repository.RideRepository
	profileRepo repository.ProfileRepository
	publisher   events.Publisher
	now         func() time.Time
}

func NewMatchUseCase(
	tx repository.TxManager,
	matchRepo repository.MatchRepository,
	rideRepo repository.RideRepository,
	profileRepo repository.ProfileRepository,
	publisher events.Publisher,
) *MatchUseCase {
	return &MatchUseCase{
		tx:          tx,
		matchRepo:   matchRepo,
		rideRepo:    rideRepo,
		profileRepo: profileRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

// RespondRequest represents the rider's answer to a pending match
type RespondRequest struct {
	Accepted bool `json:"accepted"`
}

// MatchView is a match as listed to one of its participants
type MatchView struct {
	*domain.Match
	Ride      *domain.Ride          `json:"ride,omitempty"`
	OtherUser *domain.PublicProfile `json:"other_user,omitempty"`
}

// Evaluate opens a pending match between the seeker and the ride. It
// returns the existing match when the pair already matched. The ride row is
// locked for the whole check-and-create.
func (uc *MatchUseCase) Evaluate(ctx context.Context, seekerID, rideID string) (*domain.Match, error) {
	var (
		match   *domain.Match
		created bool
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		ride, err := uc.rideRepo.GetForUpdate(ctx, rideID)
		if err != nil {
			return err
		}

		match, err = uc.matchRepo.GetByRideAndSeeker(ctx, rideID, seekerID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrMatchNotFound) {
			return err
		}

		switch ride.Status {
		case domain.RideAvailable:
		case domain.RideMatched:
			if _, err := uc.activeMatch(ctx, rideID); err == nil {
				return domain.ErrRideAlreadyMatched
			} else if !errors.Is(err, domain.ErrMatchNotActive) {
				return err
			}
		default:
			return domain.ErrRideNotAvailable
		}

		now := uc.now()
		match = &domain.Match{
			ID:        uuid.NewString(),
			RideID:    ride.ID,
			RiderID:   ride.RiderID,
			SeekerID:  seekerID,
			Status:    domain.MatchPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.matchRepo.Create(ctx, match); err != nil {
			return err
		}
		created = true

		if ride.Status == domain.RideAvailable {
			if err := domain.TransitionRide(ride, domain.RideMatched, now); err != nil {
				return err
			}
			return uc.rideRepo.Update(ctx, ride)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.MatchesTotal.WithLabelValues(string(match.Status)).Inc()
		uc.publisher.Publish(ctx, events.MatchEvent(events.MatchCreated, match))
	}
	return match, nil
}

// RespondToMatch records the rider's decision. Accepting cancels every other
// pending match on the ride; declining the last open match frees the ride.
func (uc *MatchUseCase) RespondToMatch(ctx context.Context, riderID, matchID string, req *RespondRequest) (*domain.Match, error) {
	var (
		match     *domain.Match
		ride      *domain.Ride
		cancelled []*domain.Match
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		m, err := uc.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if m.RiderID != riderID {
			return domain.ErrForbidden
		}

		ride, err = uc.rideRepo.GetForUpdate(ctx, m.RideID)
		if err != nil {
			return err
		}
		// Re-read under the ride lock.
		match, err = uc.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if match.Status != domain.MatchPending {
			return domain.ErrMatchNotPending
		}

		now := uc.now()
		match.RespondedAt = &now
		if req.Accepted {
			cancelled, err = uc.accept(ctx, match, now)
			return err
		}

		if err := domain.TransitionMatch(match, domain.MatchCancelled, now); err != nil {
			return err
		}
		if err := uc.matchRepo.Update(ctx, match); err != nil {
			return err
		}
		return uc.releaseRide(ctx, ride, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.MatchesTotal.WithLabelValues(string(match.Status)).Inc()
	var evs []events.Event
	if req.Accepted {
		evs = append(evs, events.MatchEvent(events.MatchAccepted, match))
	} else {
		evs = append(evs, events.MatchEvent(events.MatchDeclined, match))
		if ride.Status == domain.RideAvailable {
			evs = append(evs, events.RideEvent(events.RideStatusChange, ride))
		}
	}
	for _, m := range cancelled {
		metrics.MatchesTotal.WithLabelValues(string(m.Status)).Inc()
		evs = append(evs, events.MatchEvent(events.MatchCancelled, m))
	}
	uc.publisher.Publish(ctx, evs...)
	return match, nil
}

func (uc *MatchUseCase) accept(ctx context.Context, match *domain.Match, now time.Time) ([]*domain.Match, error) {
	if _, err := uc.activeMatch(ctx, match.RideID); err == nil {
		return nil, domain.ErrRideAlreadyMatched
	} else if !errors.Is(err, domain.ErrMatchNotActive) {
		return nil, err
	}

	others, err := uc.matchRepo.ListByRide(ctx, match.RideID)
	if err != nil {
		return nil, err
	}
	var cancelled []*domain.Match
	for _, other := range others {
		if other.ID == match.ID || other.Status != domain.MatchPending {
			continue
		}
		if err := domain.TransitionMatch(other, domain.MatchCancelled, now); err != nil {
			return nil, err
		}
		if err := uc.matchRepo.Update(ctx, other); err != nil {
			return nil, err
		}
		cancelled = append(cancelled, other)
	}

	if err := domain.TransitionMatch(match, domain.MatchActive, now); err != nil {
		return nil, err
	}
	match.RiderAccepted = true
	if err := uc.matchRepo.Update(ctx, match); err != nil {
		return nil, err
	}
	return cancelled, nil
}

// releaseRide puts a matched ride back to available when no open match is
// left on it.
func (uc *MatchUseCase) releaseRide(ctx context.Context, ride *domain.Ride, now time.Time) error {
	if ride.Status != domain.RideMatched {
		return nil
	}
	matches, err := uc.matchRepo.ListByRide(ctx, ride.ID)
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.Status.IsOpen() {
			return nil
		}
	}
	if err := domain.TransitionRide(ride, domain.RideAvailable, now); err != nil {
		return err
	}
	return uc.rideRepo.Update(ctx, ride)
}

func (uc *MatchUseCase) activeMatch(ctx context.Context, rideID string) (*domain.Match, error) {
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

// ListMatches returns the user's matches with the ride and the other side's
// public profile
func (uc *MatchUseCase) ListMatches(ctx context.Context, userID string, limit, offset int) ([]*MatchView, error) {
	matches, err := uc.matchRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	views := make([]*MatchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, uc.view(ctx, userID, m))
	}
	return views, nil
}

// GetMatch returns a single match to one of its participants
func (uc *MatchUseCase) GetMatch(ctx context.Context, userID, matchID string) (*MatchView, error) {
	m, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	return uc.view(ctx, userID, m), nil
}

func (uc *MatchUseCase) view(ctx context.Context, userID string, m *domain.Match) *MatchView {
	v := &MatchView{Match: m}
	if ride, err := uc.rideRepo.GetByID(ctx, m.RideID); err == nil {
		v.Ride = ride
	}
	if otherID, ok := m.GetOtherUserID(userID); ok {
		if p, err := uc.profileRepo.GetByUserID(ctx, otherID); err == nil {
			v.OtherUser = p.Public()
		}
	}
	return v
}
