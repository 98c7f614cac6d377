// Package payment talks to the card payment provider. Card details never
// reach this service: the app tokenises the card and sends a payment method
// id, which Confirm charges.
package payment

import (
	"context"
	"errors"
)

// ErrDeclined wraps a provider-side decline. The message is safe to show to
// the payer.
var ErrDeclined = errors.New("payment declined")

// ErrUnavailable is returned while the circuit breaker rejects calls.
var ErrUnavailable = errors.New("payment provider unavailable")

type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	// FailureMessage carries the last decline reason, if any.
	FailureMessage string
}

type EventType string

const (
	EventIntentSucceeded EventType = "payment_intent.succeeded"
	EventIntentFailed    EventType = "payment_intent.payment_failed"
	EventChargeRefunded  EventType = "charge.refunded"
)

type Event struct {
	ID             string
	Type           EventType
	IntentID       string
	FailureMessage string
}

type Provider interface {
	// CreateIntent is idempotent per idempotencyKey. A replay returns the
	// intent as it was first created, not its current state; use Get for that.
	CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error)
	Get(ctx context.Context, intentID string) (*Intent, error)
	Confirm(ctx context.Context, intentID, paymentMethodID string) (*Intent, error)
	Cancel(ctx context.Context, intentID string) error
	// ParseWebhook verifies the signature and returns the event. Unknown
	// event types come back with their raw type and an empty IntentID.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}
