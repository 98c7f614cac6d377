// Package events publishes domain events for the notification layer.
// Publishing happens after commit and is best effort.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	RideCreated      Type = "ride.created"
	RideStatusChange Type = "ride.status_changed"
	MatchCreated     Type = "match.created"
	MatchAccepted    Type = "match.accepted"
	MatchDeclined    Type = "match.declined"
	MatchCancelled   Type = "match.cancelled"
	MatchCompleted   Type = "match.completed"
	RatingSubmitted  Type = "rating.submitted"
	PaymentCreated   Type = "payment.created"
	PaymentCompleted Type = "payment.completed"
	PaymentFailed    Type = "payment.failed"
	PaymentRefunded  Type = "payment.refunded"
	PaymentWaived    Type = "payment.waived"
	KYCReviewed      Type = "kyc.reviewed"
)

type Event struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	// Recipients are the users the push layer should notify.
	Recipients []string `json:"recipients,omitempty"`
	Payload    any      `json:"payload"`
}

func New(t Type, key string, payload any, recipients ...string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Recipients: recipients,
		Payload:    payload,
	}
}

// Publisher delivers events. Failures are logged, never returned, so a
// broker outage cannot fail a committed request.
type Publisher interface {
	Publish(ctx context.Context, events ...Event)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, events ...Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func (r *Recorder) Has(t Type) bool {
	for _, got := range r.Types() {
		if got == t {
			return true
		}
	}
	return false
}
