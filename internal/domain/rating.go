package domain

import "time"

type RatingType string

const (
	RatingDate RatingType = "date"
	RatingRide RatingType = "ride"
)

func (t RatingType) Valid() bool {
	return t == RatingDate || t == RatingRide
}

const (
	MinStars = 1
	MaxStars = 5
)

// Rating is keyed by (MatchID, RaterID); resubmitting overwrites.
type Rating struct {
	MatchID   string     `json:"match_id" db:"match_id"`
	RaterID   string     `json:"rater_id" db:"rater_id"`
	Type      RatingType `json:"type" db:"type"`
	Stars     int        `json:"stars" db:"stars"`
	Comment   *string    `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// IsMutualDate reports whether both participants of the match rated the
// ride as a date.
func IsMutualDate(m *Match, ratings []*Rating) bool {
	var riderDate, seekerDate bool
	for _, r := range ratings {
		if r.MatchID != m.ID || r.Type != RatingDate {
			continue
		}
		switch r.RaterID {
		case m.RiderID:
			riderDate = true
		case m.SeekerID:
			seekerDate = true
		}
	}
	return riderDate && seekerDate
}
