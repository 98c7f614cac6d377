package events

import "github.com/gdugdh24/rider-seeker-backend/internal/domain"

type RidePayload struct {
	RideID  string            `json:"ride_id"`
	RiderID string            `json:"rider_id"`
	Status  domain.RideStatus `json:"status"`
}

type MatchPayload struct {
	MatchID  string             `json:"match_id"`
	RideID   string             `json:"ride_id"`
	RiderID  string             `json:"rider_id"`
	SeekerID string             `json:"seeker_id"`
	Status   domain.MatchStatus `json:"status"`
}

type RatingPayload struct {
	MatchID    string            `json:"match_id"`
	RaterID    string            `json:"rater_id"`
	Type       domain.RatingType `json:"type"`
	Stars      int               `json:"stars"`
	MutualDate bool              `json:"mutual_date"`
}

type PaymentPayload struct {
	PaymentID     string               `json:"payment_id"`
	MatchID       string               `json:"match_id"`
	PayerID       string               `json:"payer_id"`
	Amount        float64              `json:"amount"`
	Currency      string               `json:"currency"`
	Status        domain.PaymentStatus `json:"status"`
	FailureReason string               `json:"failure_reason,omitempty"`
}

type KYCPayload struct {
	UserID string           `json:"user_id"`
	Status domain.KYCStatus `json:"status"`
}

func RideEvent(t Type, r *domain.Ride) Event {
	return New(t, r.ID, RidePayload{RideID: r.ID, RiderID: r.RiderID, Status: r.Status}, r.RiderID)
}

func MatchEvent(t Type, m *domain.Match) Event {
	return New(t, m.RideID, MatchPayload{
		MatchID:  m.ID,
		RideID:   m.RideID,
		RiderID:  m.RiderID,
		SeekerID: m.SeekerID,
		Status:   m.Status,
	}, m.RiderID, m.SeekerID)
}

func PaymentEvent(t Type, p *domain.Payment) Event {
	payload := PaymentPayload{
		PaymentID: p.ID,
		MatchID:   p.MatchID,
		PayerID:   p.PayerID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		Status:    p.Status,
	}
	if p.FailureReason != nil {
		payload.FailureReason = *p.FailureReason
	}
	return New(t, p.MatchID, payload, p.PayerID)
}
