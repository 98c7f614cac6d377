package domain

import "time"

type SwipeAction string

const (
	SwipeLike  SwipeAction = "like"
	SwipePass  SwipeAction = "pass"
	SwipeSuper SwipeAction = "super"
)

func (a SwipeAction) Valid() bool {
	return a == SwipeLike || a == SwipePass || a == SwipeSuper
}

// ExpressesInterest is true for actions that open a match.
func (a SwipeAction) ExpressesInterest() bool {
	return a == SwipeLike || a == SwipeSuper
}

// Swipe is keyed by (SeekerID, RideID); a later swipe replaces the action.
// Swipes are never deleted: ResetAt marks a pass the seeker asked to see
// again, and a later swipe clears it.
type Swipe struct {
	SeekerID  string      `json:"seeker_id" db:"seeker_id"`
	RideID    string      `json:"ride_id" db:"ride_id"`
	Action    SwipeAction `json:"action" db:"action"`
	ResetAt   *time.Time  `json:"reset_at,omitempty" db:"reset_at"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
