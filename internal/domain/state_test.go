package domain

import (
	"errors"
	"testing"
	"time"
)

func TestTransitionRide(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		from RideStatus
		to   RideStatus
		want error
	}{
		{RideAvailable, RideMatched, nil},
		{RideAvailable, RideCancelled, nil},
		{RideMatched, RideAvailable, nil},
		{RideMatched, RideInProgress, nil},
		{RideInProgress, RideCompleted, nil},
		{RideInProgress, RideCancelled, nil},
		{RideAvailable, RideCompleted, ErrInvalidTransition},
		{RideAvailable, RideInProgress, ErrInvalidTransition},
		{RideCompleted, RideCancelled, ErrCannotCancel},
		{RideCompleted, RideAvailable, ErrInvalidTransition},
		{RideCancelled, RideAvailable, ErrInvalidTransition},
		{RideAvailable, "parked", ErrInvalidInput},
	}

	for _, tt := range tests {
		ride := &Ride{Status: tt.from}
		err := TransitionRide(ride, tt.to, now)
		if !errors.Is(err, tt.want) {
			t.Errorf("TransitionRide(%s -> %s) error = %v, want %v", tt.from, tt.to, err, tt.want)
			continue
		}
		if err != nil && ride.Status != tt.from {
			t.Errorf("failed transition %s -> %s changed status to %s", tt.from, tt.to, ride.Status)
		}
		if err == nil && (ride.Status != tt.to || !ride.UpdatedAt.Equal(now)) {
			t.Errorf("TransitionRide(%s -> %s) left %+v", tt.from, tt.to, ride)
		}
	}
}

func TestTransitionRideStampsTerminalTimes(t *testing.T) {
	now := time.Now()

	done := &Ride{Status: RideInProgress}
	if err := TransitionRide(done, RideCompleted, now); err != nil || done.CompletedAt == nil {
		t.Errorf("completion: err = %v completed_at = %v", err, done.CompletedAt)
	}

	cancelled := &Ride{Status: RideMatched}
	if err := TransitionRide(cancelled, RideCancelled, now); err != nil || cancelled.CancelledAt == nil {
		t.Errorf("cancel: err = %v cancelled_at = %v", err, cancelled.CancelledAt)
	}
}

func TestTransitionMatch(t *testing.T) {
	tests := []struct {
		from MatchStatus
		to   MatchStatus
		ok   bool
	}{
		{MatchPending, MatchActive, true},
		{MatchPending, MatchCancelled, true},
		{MatchActive, MatchCompleted, true},
		{MatchActive, MatchCancelled, true},
		{MatchPending, MatchCompleted, false},
		{MatchCompleted, MatchCancelled, false},
		{MatchCancelled, MatchActive, false},
	}

	for _, tt := range tests {
		m := &Match{Status: tt.from}
		err := TransitionMatch(m, tt.to, time.Now())
		if (err == nil) != tt.ok {
			t.Errorf("TransitionMatch(%s -> %s) error = %v, want ok = %v", tt.from, tt.to, err, tt.ok)
		}
		if err != nil && !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("TransitionMatch(%s -> %s) error = %v, want ErrInvalidTransition", tt.from, tt.to, err)
		}
	}
}

func TestIsMutualDate(t *testing.T) {
	m := &Match{ID: "m1", RiderID: "r", SeekerID: "s"}
	rating := func(rater string, typ RatingType) *Rating {
		return &Rating{MatchID: "m1", RaterID: rater, Type: typ}
	}

	tests := []struct {
		name    string
		ratings []*Rating
		want    bool
	}{
		{"both date", []*Rating{rating("r", RatingDate), rating("s", RatingDate)}, true},
		{"date and ride", []*Rating{rating("r", RatingDate), rating("s", RatingRide)}, false},
		{"only one rating", []*Rating{rating("s", RatingDate)}, false},
		{"none", nil, false},
		{"stranger", []*Rating{rating("r", RatingDate), rating("x", RatingDate)}, false},
		{"other match", []*Rating{rating("r", RatingDate), {MatchID: "m2", RaterID: "s", Type: RatingDate}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMutualDate(m, tt.ratings); got != tt.want {
				t.Errorf("IsMutualDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUser(t *testing.T) {
	rider := NewUser("u1", "+15551234567", RoleRider, time.Now())
	if rider.KYCStatus == nil || *rider.KYCStatus != KYCPending {
		t.Errorf("rider KYC = %v, want pending", rider.KYCStatus)
	}
	if rider.CanOfferRides() || rider.IsVerifiedForRides() {
		t.Error("pending rider may not offer rides")
	}

	seeker := NewUser("u2", "+15551234568", RoleSeeker, time.Now())
	if seeker.KYCStatus != nil {
		t.Errorf("seeker KYC = %v, want nil", *seeker.KYCStatus)
	}
	if !seeker.IsVerifiedForRides() || seeker.CanOfferRides() {
		t.Error("seeker should be verified for rides but not offer them")
	}

	verified := KYCVerified
	rider.KYCStatus = &verified
	if !rider.CanOfferRides() {
		t.Error("verified rider should offer rides")
	}
}

func TestProfilePhotos(t *testing.T) {
	p := &Profile{Photos: []string{"a", "b", "c"}}
	if main := p.MainPhoto(); main == nil || *main != "a" {
		t.Errorf("MainPhoto() = %v, want a", main)
	}
	if !p.RemovePhoto("b") || p.HasPhoto("b") || len(p.Photos) != 2 {
		t.Errorf("RemovePhoto(b) left %v", p.Photos)
	}
	if p.RemovePhoto("zzz") {
		t.Error("RemovePhoto of unknown url reported true")
	}
	if (&Profile{}).MainPhoto() != nil {
		t.Error("MainPhoto() of empty profile should be nil")
	}
}
