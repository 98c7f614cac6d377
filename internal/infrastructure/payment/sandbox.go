package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Payment method ids the sandbox understands, named after the provider's
// test cards.
const (
	SandboxCardOK       = "pm_card_visa"
	SandboxCardDeclined = "pm_card_chargeDeclined"
)

// SandboxProvider is an in-process provider for local runs and tests. Every
// payment method succeeds except SandboxCardDeclined. Like the real provider
// it answers an idempotent replay with the response of the first request.
type SandboxProvider struct {
	mu      sync.Mutex
	intents map[string]*Intent
	byKey   map[string]Intent

	// Created counts intents actually created, not idempotent replays.
	Created int
}

func NewSandboxProvider() *SandboxProvider {
	return &SandboxProvider{
		intents: make(map[string]*Intent),
		byKey:   make(map[string]Intent),
	}
}

func (p *SandboxProvider) CreateIntent(_ context.Context, amountMinor int64, currency, idempotencyKey string, _ map[string]string) (*Intent, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("sandbox: amount must be positive")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if first, ok := p.byKey[idempotencyKey]; ok {
		return &first, nil
	}

	id := "pi_" + uuid.NewString()
	intent := &Intent{
		ID:           id,
		ClientSecret: id + "_secret",
		Status:       IntentRequiresPaymentMethod,
	}
	p.intents[id] = intent
	p.byKey[idempotencyKey] = *intent
	p.Created++

	out := *intent
	return &out, nil
}

func (p *SandboxProvider) Get(_ context.Context, intentID string) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("sandbox: no such payment intent %s", intentID)
	}
	out := *intent
	return &out, nil
}

func (p *SandboxProvider) Confirm(_ context.Context, intentID, paymentMethodID string) (*Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("sandbox: no such payment intent %s", intentID)
	}
	switch intent.Status {
	case IntentSucceeded, IntentCanceled:
		return nil, fmt.Errorf("sandbox: payment intent %s is %s", intentID, intent.Status)
	}
	if paymentMethodID == SandboxCardDeclined {
		intent.Status = IntentRequiresPaymentMethod
		intent.FailureMessage = "Your card was declined."
		return nil, fmt.Errorf("%w: %s", ErrDeclined, intent.FailureMessage)
	}
	intent.Status = IntentSucceeded
	intent.FailureMessage = ""

	out := *intent
	return &out, nil
}

func (p *SandboxProvider) Cancel(_ context.Context, intentID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	intent, ok := p.intents[intentID]
	if !ok {
		return fmt.Errorf("sandbox: no such payment intent %s", intentID)
	}
	if intent.Status == IntentSucceeded {
		return fmt.Errorf("sandbox: payment intent %s already succeeded", intentID)
	}
	intent.Status = IntentCanceled
	return nil
}

// Status returns the current status of an intent, for tests.
func (p *SandboxProvider) Status(intentID string) IntentStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	if intent, ok := p.intents[intentID]; ok {
		return intent.Status
	}
	return ""
}

// ParseWebhook accepts unsigned events of the form
// {"id": "...", "type": "...", "intent_id": "...", "failure_message": "..."}.
func (p *SandboxProvider) ParseWebhook(payload []byte, _ string) (*Event, error) {
	var raw struct {
		ID             string `json:"id"`
		Type           string `json:"type"`
		IntentID       string `json:"intent_id"`
		FailureMessage string `json:"failure_message"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("sandbox: invalid webhook payload: %w", err)
	}
	return &Event{
		ID:             raw.ID,
		Type:           EventType(raw.Type),
		IntentID:       raw.IntentID,
		FailureMessage: raw.FailureMessage,
	}, nil
}
