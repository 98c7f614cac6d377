package domain

import (
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchActive    MatchStatus = "active"
	MatchCompleted MatchStatus = "completed"
	MatchCancelled MatchStatus = "cancelled"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchPending: {MatchActive, MatchCancelled},
	MatchActive:  {MatchCompleted, MatchCancelled},
}

func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsOpen is true while the match still holds the ride.
func (s MatchStatus) IsOpen() bool {
	return s == MatchPending || s == MatchActive
}

type Match struct {
	ID            string      `json:"id" db:"id"`
	RideID        string      `json:"ride_id" db:"ride_id"`
	RiderID       string      `json:"rider_id" db:"rider_id"`
	SeekerID      string      `json:"seeker_id" db:"seeker_id"`
	Status        MatchStatus `json:"status" db:"status"`
	RiderAccepted bool        `json:"rider_accepted" db:"rider_accepted"`
	RiderRating   *int        `json:"rider_rating,omitempty" db:"rider_rating"`
	SeekerRating  *int        `json:"seeker_rating,omitempty" db:"seeker_rating"`
	RespondedAt   *time.Time  `json:"responded_at,omitempty" db:"responded_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

func TransitionMatch(m *Match, next MatchStatus, now time.Time) error {
	if !m.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: match %s -> %s", ErrInvalidTransition, m.Status, next)
	}
	m.Status = next
	m.UpdatedAt = now
	return nil
}

func (m *Match) HasUser(userID string) bool {
	return m.RiderID == userID || m.SeekerID == userID
}

func (m *Match) GetOtherUserID(userID string) (string, bool) {
	if m.RiderID == userID {
		return m.SeekerID, true
	}
	if m.SeekerID == userID {
		return m.RiderID, true
	}
	return "", false
}

func (m *Match) IsSeeker(userID string) bool {
	return m.SeekerID == userID
}
