package rating

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/payment"
	"github.com/gdugdh24/rider-seeker-backend/internal/testutil"
	paymentuc "github.com/gdugdh24/rider-seeker-backend/internal/usecase/payment"
)

func newTestUseCase() (*RatingUseCase, *testutil.Repos, *payment.SandboxProvider) {
	repos := testutil.NewRepos()
	sandbox := payment.NewSandboxProvider()
	rec := &events.Recorder{}
	payments := paymentuc.NewPaymentUseCase(repos.Tx, repos.Payments, repos.Matches, repos.Rides, repos.Ratings,
		sandbox, rec, domain.DefaultFeePolicy, zerolog.Nop())
	return NewRatingUseCase(repos.Tx, repos.Ratings, repos.Matches, payments, rec, zerolog.Nop()), repos, sandbox
}

func rate(typ domain.RatingType, stars int) *SubmitRatingRequest {
	return &SubmitRatingRequest{Type: typ, Stars: stars}
}

func TestMutualDateWaivesPayment(t *testing.T) {
	uc, repos, sandbox := newTestUseCase()
	ctx := context.Background()
	ride, m := repos.CompletedRide(t, 10)

	first, err := uc.SubmitRating(ctx, m.SeekerID, m.ID, rate(domain.RatingDate, 5))
	if err != nil {
		t.Fatalf("SubmitRating(seeker) error = %v", err)
	}
	if first.MutualDate || first.Payment == nil || first.Payment.Status != domain.PaymentPending {
		t.Fatalf("seeker result = %+v, want pending payment", first)
	}

	second, err := uc.SubmitRating(ctx, m.RiderID, m.ID, rate(domain.RatingDate, 4))
	if err != nil {
		t.Fatalf("SubmitRating(rider) error = %v", err)
	}
	if !second.MutualDate {
		t.Fatal("mutual date not detected")
	}
	if second.Payment == nil || second.Payment.Status != domain.PaymentWaived || second.Payment.ID != first.Payment.ID {
		t.Errorf("payment = %+v, want the pending payment waived", second.Payment)
	}
	if s := repos.MustRide(t, ride.ID).PaymentStatus; s != domain.PaymentStateWaived {
		t.Errorf("ride payment status = %s, want waived", s)
	}
	if s := sandbox.Status(*first.Payment.ProviderIntentID); s != payment.IntentCanceled {
		t.Errorf("intent status = %s, want canceled", s)
	}

	mutual, err := uc.CheckMutualDateRating(ctx, m.ID)
	if err != nil || !mutual {
		t.Errorf("CheckMutualDateRating() = %v, %v", mutual, err)
	}

	got := repos.MustMatch(t, m.ID)
	if got.RiderRating == nil || *got.RiderRating != 4 || got.SeekerRating == nil || *got.SeekerRating != 5 {
		t.Errorf("mirrored stars rider=%v seeker=%v", got.RiderRating, got.SeekerRating)
	}
}

func TestMutualDateWithoutPriorPayment(t *testing.T) {
	uc, repos, sandbox := newTestUseCase()
	ctx := context.Background()
	ride, m := repos.CompletedRide(t, 10)

	if _, err := uc.SubmitRating(ctx, m.RiderID, m.ID, rate(domain.RatingDate, 5)); err != nil {
		t.Fatalf("SubmitRating(rider) error = %v", err)
	}
	res, err := uc.SubmitRating(ctx, m.SeekerID, m.ID, rate(domain.RatingDate, 5))
	if err != nil {
		t.Fatalf("SubmitRating(seeker) error = %v", err)
	}
	if !res.MutualDate || res.Payment == nil || res.Payment.Status != domain.PaymentWaived || res.ClientSecret != "" {
		t.Errorf("result = %+v, want waived payment without client secret", res)
	}
	if sandbox.Created != 0 {
		t.Errorf("provider intents created = %d, want 0", sandbox.Created)
	}
	if s := repos.MustRide(t, ride.ID).PaymentStatus; s != domain.PaymentStateWaived {
		t.Errorf("ride payment status = %s, want waived", s)
	}
}

func TestDateAndRideRatingsChargeFullTotal(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	ctx := context.Background()
	_, m := repos.CompletedRide(t, 30)

	riderRes, err := uc.SubmitRating(ctx, m.RiderID, m.ID, rate(domain.RatingRide, 5))
	if err != nil {
		t.Fatalf("SubmitRating(rider) error = %v", err)
	}
	if riderRes.Payment != nil {
		t.Error("rider rating opened a payment")
	}

	res, err := uc.SubmitRating(ctx, m.SeekerID, m.ID, rate(domain.RatingDate, 5))
	if err != nil {
		t.Fatalf("SubmitRating(seeker) error = %v", err)
	}
	if res.MutualDate {
		t.Error("date + ride reported as mutual date")
	}
	if res.Payment == nil || res.Payment.Amount != 31.5 || res.ClientSecret == "" {
		t.Errorf("result = %+v, want payment of 31.50 with client secret", res)
	}
	if res.PaymentError != "" {
		t.Errorf("payment error = %q", res.PaymentError)
	}
}

func TestResubmittingOverwritesRating(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	ctx := context.Background()
	_, m := repos.CompletedRide(t, 10)

	if _, err := uc.SubmitRating(ctx, m.RiderID, m.ID, rate(domain.RatingDate, 2)); err != nil {
		t.Fatalf("SubmitRating() error = %v", err)
	}
	comment := "  great company  "
	if _, err := uc.SubmitRating(ctx, m.RiderID, m.ID, &SubmitRatingRequest{Type: domain.RatingRide, Stars: 5, Comment: &comment}); err != nil {
		t.Fatalf("SubmitRating() error = %v", err)
	}

	ratings, err := uc.GetRatings(ctx, m.SeekerID, m.ID)
	if err != nil {
		t.Fatalf("GetRatings() error = %v", err)
	}
	if len(ratings) != 1 {
		t.Fatalf("len(ratings) = %d, want 1", len(ratings))
	}
	r := ratings[0]
	if r.Type != domain.RatingRide || r.Stars != 5 || r.Comment == nil || *r.Comment != "great company" {
		t.Errorf("rating = %+v", r)
	}
}

func TestSubmitRatingRejections(t *testing.T) {
	uc, repos, _ := newTestUseCase()
	ctx := context.Background()
	_, completed := repos.CompletedRide(t, 10)

	rider := repos.Rider(t, domain.KYCVerified)
	ride := repos.Ride(t, rider.ID, domain.RideInProgress, domain.Location{}, 10)
	active := repos.Match(t, ride, repos.Seeker(t).ID, domain.MatchActive)

	tests := []struct {
		name    string
		raterID string
		matchID string
		req     *SubmitRatingRequest
		want    error
	}{
		{"stranger", repos.Seeker(t).ID, completed.ID, rate(domain.RatingRide, 3), domain.ErrForbidden},
		{"match not completed", active.SeekerID, active.ID, rate(domain.RatingRide, 3), domain.ErrMatchNotCompleted},
		{"zero stars", completed.SeekerID, completed.ID, rate(domain.RatingRide, 0), domain.ErrInvalidInput},
		{"six stars", completed.SeekerID, completed.ID, rate(domain.RatingRide, 6), domain.ErrInvalidInput},
		{"unknown type", completed.SeekerID, completed.ID, rate("friendship", 3), domain.ErrInvalidInput},
		{"unknown match", completed.SeekerID, "missing", rate(domain.RatingRide, 3), domain.ErrMatchNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.SubmitRating(ctx, tt.raterID, tt.matchID, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("SubmitRating() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := uc.GetRatings(ctx, repos.Seeker(t).ID, completed.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("GetRatings() stranger error = %v, want ErrForbidden", err)
	}
}

type failingPayments struct{}

func (failingPayments) CreatePaymentIntent(context.Context, string, string) (*domain.PaymentIntent, error) {
	return nil, domain.ErrPaymentUnavailable
}

func (failingPayments) WaiveForMatch(context.Context, string) (*domain.Payment, error) {
	return nil, domain.ErrPaymentUnavailable
}

func TestRatingSurvivesPaymentFailure(t *testing.T) {
	repos := testutil.NewRepos()
	uc := NewRatingUseCase(repos.Tx, repos.Ratings, repos.Matches, failingPayments{}, events.NopPublisher{}, zerolog.Nop())
	_, m := repos.CompletedRide(t, 10)

	res, err := uc.SubmitRating(context.Background(), m.SeekerID, m.ID, rate(domain.RatingRide, 4))
	if err != nil {
		t.Fatalf("SubmitRating() error = %v", err)
	}
	if res.PaymentError == "" || res.Payment != nil {
		t.Errorf("result = %+v, want payment error", res)
	}
	ratings, _ := repos.Ratings.ListByMatch(context.Background(), m.ID)
	if len(ratings) != 1 {
		t.Errorf("rating not stored")
	}
}
