package domain

import (
	"fmt"
	"math"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
	PaymentWaived    PaymentStatus = "waived"
)

// IsSettled is true once the payment can no longer be charged.
func (s PaymentStatus) IsSettled() bool {
	return s == PaymentCompleted || s == PaymentRefunded || s == PaymentWaived
}

type Payment struct {
	ID               string        `json:"id" db:"id"`
	MatchID          string        `json:"match_id" db:"match_id"`
	PayerID          string        `json:"payer_id" db:"payer_id"`
	Fare             float64       `json:"fare" db:"fare"`
	PlatformFee      float64       `json:"platform_fee" db:"platform_fee"`
	Amount           float64       `json:"amount" db:"amount"`
	Currency         string        `json:"currency" db:"currency"`
	Status           PaymentStatus `json:"status" db:"status"`
	ProviderIntentID *string       `json:"-" db:"provider_intent_id"`
	IdempotencyKey   string        `json:"-" db:"idempotency_key"`
	Attempt          int           `json:"attempt" db:"attempt"`
	FailureReason    *string       `json:"failure_reason,omitempty" db:"failure_reason"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// PaymentIntent is a payment plus the secret the app needs to collect the
// card for it.
type PaymentIntent struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"client_secret,omitempty"`
}

// IdempotencyKeyFor is stable for one attempt group of a payment, so a
// retried intent creation returns the same provider intent.
func IdempotencyKeyFor(paymentID string, attempt int) string {
	return fmt.Sprintf("payment:%s:attempt:%d", paymentID, attempt)
}

// FeePolicy computes the platform fee on top of a seat fare.
type FeePolicy struct {
	Rate    float64
	Minimum float64
}

var DefaultFeePolicy = FeePolicy{Rate: 0.05, Minimum: 1.00}

type Fare struct {
	Fare        float64 `json:"fare"`
	PlatformFee float64 `json:"platform_fee"`
	Total       float64 `json:"total"`
}

func (p FeePolicy) PlatformFee(fare float64) float64 {
	return RoundCents(math.Max(p.Minimum, fare*p.Rate))
}

func (p FeePolicy) Total(fare float64) float64 {
	return RoundCents(fare + p.PlatformFee(fare))
}

func (p FeePolicy) Quote(fare float64) Fare {
	return Fare{
		Fare:        RoundCents(fare),
		PlatformFee: p.PlatformFee(fare),
		Total:       p.Total(fare),
	}
}

func RoundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// MinorUnits converts an amount to the provider's smallest currency unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
