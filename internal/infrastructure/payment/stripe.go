package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountMinor),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) Get(ctx context.Context, intentID string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) Confirm(ctx context.Context, intentID, paymentMethodID string) (*Intent, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(paymentMethodID),
	}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return nil, fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Msg)
		}
		return nil, fmt.Errorf("stripe: confirm payment intent: %w", err)
	}
	return toIntent(pi), nil
}

func (p *StripeProvider) Cancel(ctx context.Context, intentID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := p.api.PaymentIntents.Cancel(intentID, params); err != nil {
		return fmt.Errorf("stripe: cancel payment intent: %w", err)
	}
	return nil
}

func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe: invalid webhook: %w", err)
	}
	return fromStripeEvent(event)
}

func fromStripeEvent(event stripe.Event) (*Event, error) {
	out := &Event{ID: event.ID, Type: EventType(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventIntentSucceeded, EventIntentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		if pi.LastPaymentError != nil {
			out.FailureMessage = pi.LastPaymentError.Msg
		}
	case EventChargeRefunded:
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("stripe: decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.IntentID = ch.PaymentIntent.ID
		}
	}
	return out, nil
}

func toIntent(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       IntentStatus(pi.Status),
	}
	if pi.LastPaymentError != nil {
		intent.FailureMessage = pi.LastPaymentError.Msg
	}
	return intent
}
