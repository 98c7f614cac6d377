package match

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/testutil"
)

var nyc = domain.Location{Lat: 40.7128, Lon: -74.0060}

func newTestUseCase() (*MatchUseCase, *testutil.Repos, *events.Recorder) {
	repos := testutil.NewRepos()
	rec := &events.Recorder{}
	return NewMatchUseCase(repos.Tx, repos.Matches, repos.Rides, repos.Profiles, rec), repos, rec
}

func TestEvaluateCreatesPendingMatch(t *testing.T) {
	uc, repos, rec := newTestUseCase()
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)
	seeker := repos.Seeker(t)
	ride := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 20)

	m, err := uc.Evaluate(ctx, seeker.ID, ride.ID)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if m.Status != domain.MatchPending || m.RiderID != rider.ID || m.SeekerID != seeker.ID {
		t.Errorf("match = %+v", m)
	}
	if got := repos.MustRide(t, ride.ID).Status; got != domain.RideMatched {
		t.Errorf("ride status = %s, want matched", got)
	}
	if !rec.Has(events.MatchCreated) {
		t.Error("no match.created event")
	}

	again, err := uc.Evaluate(ctx, seeker.ID, ride.ID)
	if err != nil {
		t.Fatalf("second Evaluate() error = %v", err)
	}
	if again.ID != m.ID {
		t.Errorf("second Evaluate() created %s, want existing %s", again.ID, m.ID)
	}
}

func TestEvaluateRejectsUnavailableRides(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	rider := repos.Rider(t, domain.KYCVerified)
	seeker := repos.Seeker(t)

	tests := []struct {
		status domain.RideStatus
		want   error
	}{
		{domain.RideInProgress, domain.ErrRideNotAvailable},
		{domain.RideCompleted, domain.ErrRideNotAvailable},
		{domain.RideCancelled, domain.ErrRideNotAvailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			ride := repos.Ride(t, rider.ID, tt.status, nyc, 20)
			if _, err := uc.Evaluate(context.Background(), seeker.ID, ride.ID); !errors.Is(err, tt.want) {
				t.Errorf("Evaluate() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("active match", func(t *testing.T) {
		ride := repos.Ride(t, rider.ID, domain.RideMatched, nyc, 20)
		repos.Match(t, ride, repos.Seeker(t).ID, domain.MatchActive)
		if _, err := uc.Evaluate(context.Background(), seeker.ID, ride.ID); !errors.Is(err, domain.ErrRideAlreadyMatched) {
			t.Errorf("Evaluate() error = %v, want ErrRideAlreadyMatched", err)
		}
	})
}

func TestAcceptCancelsOtherPendingMatches(t *testing.T) {
	uc, repos, rec := newTestUseCase()
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)
	ride := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 20)

	first, err := uc.Evaluate(ctx, repos.Seeker(t).ID, ride.ID)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	second, err := uc.Evaluate(ctx, repos.Seeker(t).ID, ride.ID)
	if err != nil {
		t.Fatalf("Evaluate() on matched ride with pending matches error = %v", err)
	}

	accepted, err := uc.RespondToMatch(ctx, rider.ID, first.ID, &RespondRequest{Accepted: true})
	if err != nil {
		t.Fatalf("RespondToMatch() error = %v", err)
	}
	if accepted.Status != domain.MatchActive || !accepted.RiderAccepted || accepted.RespondedAt == nil {
		t.Errorf("accepted match = %+v", accepted)
	}
	if got := repos.MustMatch(t, second.ID).Status; got != domain.MatchCancelled {
		t.Errorf("other match status = %s, want cancelled", got)
	}
	if got := repos.MustRide(t, ride.ID).Status; got != domain.RideMatched {
		t.Errorf("ride status = %s, want matched", got)
	}
	if !rec.Has(events.MatchAccepted) || !rec.Has(events.MatchCancelled) {
		t.Errorf("events = %v", rec.Types())
	}

	if _, err := uc.RespondToMatch(ctx, rider.ID, second.ID, &RespondRequest{Accepted: true}); !errors.Is(err, domain.ErrMatchNotPending) {
		t.Errorf("accepting a cancelled match error = %v, want ErrMatchNotPending", err)
	}
}

func TestDeclineFreesRideWhenNoOpenMatchLeft(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)
	ride := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 20)

	a, _ := uc.Evaluate(ctx, repos.Seeker(t).ID, ride.ID)
	b, _ := uc.Evaluate(ctx, repos.Seeker(t).ID, ride.ID)

	if _, err := uc.RespondToMatch(ctx, rider.ID, a.ID, &RespondRequest{Accepted: false}); err != nil {
		t.Fatalf("decline a error = %v", err)
	}
	if got := repos.MustRide(t, ride.ID).Status; got != domain.RideMatched {
		t.Errorf("ride status with b still pending = %s, want matched", got)
	}

	declined, err := uc.RespondToMatch(ctx, rider.ID, b.ID, &RespondRequest{Accepted: false})
	if err != nil {
		t.Fatalf("decline b error = %v", err)
	}
	if declined.Status != domain.MatchCancelled || declined.RiderAccepted {
		t.Errorf("declined match = %+v", declined)
	}
	if got := repos.MustRide(t, ride.ID).Status; got != domain.RideAvailable {
		t.Errorf("ride status = %s, want available", got)
	}
}

func TestRespondOnlyByRider(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	rider := repos.Rider(t, domain.KYCVerified)
	seeker := repos.Seeker(t)
	ride := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 20)
	m, _ := uc.Evaluate(context.Background(), seeker.ID, ride.ID)

	_, err := uc.RespondToMatch(context.Background(), seeker.ID, m.ID, &RespondRequest{Accepted: true})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("RespondToMatch() by seeker error = %v, want ErrForbidden", err)
	}
}

func TestConcurrentEvaluateOneMatchPerSeeker(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	rider := repos.Rider(t, domain.KYCVerified)
	seeker := repos.Seeker(t)
	ride := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 20)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := uc.Evaluate(context.Background(), seeker.ID, ride.ID)
			if err != nil {
				t.Errorf("Evaluate() error = %v", err)
				return
			}
			ids[i] = m.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids[1:] {
		if id != ids[0] {
			t.Fatalf("concurrent Evaluate() produced different matches: %v", ids)
		}
	}
}

func TestListAndGetMatches(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	ctx := context.Background()
	rider := repos.Rider(t, domain.KYCVerified)
	seeker := repos.Seeker(t)
	ride := repos.Ride(t, rider.ID, domain.RideAvailable, nyc, 20)
	m, _ := uc.Evaluate(ctx, seeker.ID, ride.ID)

	views, err := uc.ListMatches(ctx, seeker.ID, 20, 0)
	if err != nil {
		t.Fatalf("ListMatches() error = %v", err)
	}
	if len(views) != 1 || views[0].OtherUser == nil || views[0].OtherUser.UserID != rider.ID || views[0].Ride == nil {
		t.Fatalf("ListMatches() = %+v", views)
	}

	if _, err := uc.GetMatch(ctx, repos.Seeker(t).ID, m.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("GetMatch() by outsider error = %v, want ErrForbidden", err)
	}
}
