package domain

import (
	"fmt"
	"time"
)

type RideStatus string

const (
	RideAvailable  RideStatus = "available"
	RideMatched    RideStatus = "matched"
	RideInProgress RideStatus = "in_progress"
	RideCompleted  RideStatus = "completed"
	RideCancelled  RideStatus = "cancelled"
)

type PaymentState string

const (
	PaymentStateUnpaid PaymentState = "unpaid"
	PaymentStatePaid   PaymentState = "paid"
	PaymentStateWaived PaymentState = "waived"
)

// rideTransitions lists the allowed next states. matched -> available only
// happens when the last pending match of a ride is declined.
var rideTransitions = map[RideStatus][]RideStatus{
	RideAvailable:  {RideMatched, RideCancelled},
	RideMatched:    {RideAvailable, RideInProgress, RideCancelled},
	RideInProgress: {RideCompleted, RideCancelled},
}

func (s RideStatus) Valid() bool {
	switch s {
	case RideAvailable, RideMatched, RideInProgress, RideCompleted, RideCancelled:
		return true
	}
	return false
}

func (s RideStatus) IsTerminal() bool {
	return s == RideCompleted || s == RideCancelled
}

func (s RideStatus) CanTransitionTo(next RideStatus) bool {
	for _, allowed := range rideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Ride struct {
	ID            string       `json:"id"`
	RiderID       string       `json:"rider_id"`
	Start         Location     `json:"start"`
	End           *Location    `json:"end,omitempty"`
	FarePerSeat   float64      `json:"fare_per_seat"`
	Currency      string       `json:"currency"`
	Status        RideStatus   `json:"status"`
	PaymentStatus PaymentState `json:"payment_status"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	CancelledAt   *time.Time   `json:"cancelled_at,omitempty"`
}

// TransitionRide moves the ride to next if the state machine allows it.
// Completed and cancelled rides are immutable.
func TransitionRide(r *Ride, next RideStatus, now time.Time) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown ride status %q", ErrInvalidInput, next)
	}
	if next == RideCancelled && r.Status == RideCompleted {
		return ErrCannotCancel
	}
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: ride %s -> %s", ErrInvalidTransition, r.Status, next)
	}

	r.Status = next
	r.UpdatedAt = now
	switch next {
	case RideCompleted:
		r.CompletedAt = &now
	case RideCancelled:
		r.CancelledAt = &now
	}
	return nil
}

func (r *Ride) IsOwnedBy(userID string) bool {
	return r.RiderID == userID
}
