package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
)

// BreakerProvider guards a Provider with a circuit breaker. Declines are
// answers from a healthy provider and do not count as failures.
type BreakerProvider struct {
	next   Provider
	cb     *gobreaker.CircuitBreaker[*Intent]
	name   string
	logger zerolog.Logger
}

func NewBreakerProvider(next Provider, logger zerolog.Logger) *BreakerProvider {
	name := "payment-provider"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*Intent](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrDeclined)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})

	return &BreakerProvider{next: next, cb: cb, name: name, logger: logger}
}

func (b *BreakerProvider) execute(fn func() (*Intent, error)) (*Intent, error) {
	intent, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
	}
	return intent, err
}

func (b *BreakerProvider) CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error) {
	return b.execute(func() (*Intent, error) {
		return b.next.CreateIntent(ctx, amountMinor, currency, idempotencyKey, metadata)
	})
}

func (b *BreakerProvider) Get(ctx context.Context, intentID string) (*Intent, error) {
	return b.execute(func() (*Intent, error) {
		return b.next.Get(ctx, intentID)
	})
}

func (b *BreakerProvider) Confirm(ctx context.Context, intentID, paymentMethodID string) (*Intent, error) {
	return b.execute(func() (*Intent, error) {
		return b.next.Confirm(ctx, intentID, paymentMethodID)
	})
}

func (b *BreakerProvider) Cancel(ctx context.Context, intentID string) error {
	_, err := b.execute(func() (*Intent, error) {
		return nil, b.next.Cancel(ctx, intentID)
	})
	return err
}

// ParseWebhook is local signature verification and bypasses the breaker.
func (b *BreakerProvider) ParseWebhook(payload []byte, signature string) (*Event, error) {
	return b.next.ParseWebhook(payload, signature)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
