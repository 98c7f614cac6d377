package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/payment"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/validation"
)

type PaymentUseCase struct {
	tx          repository.TxManager
	paymentRepo repository.PaymentRepository
	matchRepo   repository.MatchRepository
	rideRepo    repository.RideRepository
	ratingRepo  repository.RatingRepository
	provider    payment.Provider
	publisher   events.Publisher
	fees        domain.FeePolicy
	log         zerolog.Logger
	now         func() time.Time
}

func NewPaymentUseCase(
	tx repository.TxManager,
	paymentRepo repository.PaymentRepository,
	matchRepo repository.MatchRepository,
	rideRepo repository.RideRepository,
	ratingRepo repository.RatingRepository,
	provider payment.Provider,
	publisher events.Publisher,
	fees domain.FeePolicy,
	log zerolog.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		tx:          tx,
		paymentRepo: paymentRepo,
		matchRepo:   matchRepo,
		rideRepo:    rideRepo,
		ratingRepo:  ratingRepo,
		provider:    provider,
		publisher:   publisher,
		fees:        fees,
		log:         log,
		now:         time.Now,
	}
}

// ConfirmRequest carries the payment method the app tokenised
type ConfirmRequest struct {
	PaymentMethodID string `json:"payment_method_id" validate:"required,max=255"`
}

// Quote returns what the seeker of the match will be charged
func (uc *PaymentUseCase) Quote(ctx context.Context, userID, matchID string) (*domain.Fare, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	ride, err := uc.rideRepo.GetByID(ctx, match.RideID)
	if err != nil {
		return nil, err
	}
	quote := uc.fees.Quote(ride.FarePerSeat)
	return &quote, nil
}

// CreatePaymentIntent returns the match's payment with a provider intent the
// seeker can confirm. Repeated calls reuse the same payment and, until the
// provider cancels it, the same intent.
func (uc *PaymentUseCase) CreatePaymentIntent(ctx context.Context, payerID, matchID string) (*domain.PaymentIntent, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsSeeker(payerID) {
		return nil, domain.ErrForbidden
	}
	if match.Status != domain.MatchCompleted {
		return nil, domain.ErrMatchNotCompleted
	}
	ratings, err := uc.ratingRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if domain.IsMutualDate(match, ratings) {
		return nil, domain.ErrPaymentWaived
	}

	var (
		p       *domain.Payment
		created bool
	)
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		ride, err := uc.rideRepo.GetForUpdate(ctx, match.RideID)
		if err != nil {
			return err
		}
		p, err = uc.paymentRepo.GetByMatch(ctx, matchID)
		switch {
		case err == nil:
			return settledError(p.Status)
		case !errors.Is(err, domain.ErrPaymentNotFound):
			return err
		}
		p = uc.newPayment(match, ride, domain.PaymentPending)
		created = true
		return uc.paymentRepo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	if created {
		metrics.PaymentsTotal.WithLabelValues(string(p.Status)).Inc()
		uc.publisher.Publish(ctx, events.PaymentEvent(events.PaymentCreated, p))
	}

	intent, err := uc.currentIntent(ctx, p)
	if err != nil {
		return nil, err
	}
	if intent.Status == payment.IntentSucceeded {
		if _, err := uc.markCompleted(ctx, p.ID); err != nil {
			return nil, err
		}
		return nil, domain.ErrAlreadyPaid
	}

	// The provider call ran without the lock: a waiver or a payment may have
	// committed since.
	var orphan string
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := uc.rideRepo.GetForUpdate(ctx, match.RideID); err != nil {
			return err
		}
		current, err := uc.paymentRepo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		stale := current.ProviderIntentID == nil || *current.ProviderIntentID != intent.ID
		if err := settledError(current.Status); err != nil {
			if errors.Is(err, domain.ErrPaymentWaived) && stale {
				orphan = intent.ID
			}
			return err
		}
		ratings, err := uc.ratingRepo.ListByMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if domain.IsMutualDate(match, ratings) {
			orphan = intent.ID
			return domain.ErrPaymentWaived
		}

		current.Attempt = p.Attempt
		current.IdempotencyKey = p.IdempotencyKey
		current.ProviderIntentID = &intent.ID
		current.Status = domain.PaymentPending
		current.FailureReason = nil
		current.UpdatedAt = uc.now()
		p = current
		return uc.paymentRepo.Update(ctx, current)
	})
	if orphan != "" {
		uc.cancelIntent(ctx, p.ID, orphan)
	}
	if err != nil {
		return nil, err
	}
	return &domain.PaymentIntent{Payment: p, ClientSecret: intent.ClientSecret}, nil
}

// currentIntent returns the live intent of the payment's attempt group and
// opens the next group when that intent was cancelled. An idempotent replay
// answers with the intent as first created, so a known intent is fetched
// instead.
func (uc *PaymentUseCase) currentIntent(ctx context.Context, p *domain.Payment) (*payment.Intent, error) {
	if p.ProviderIntentID != nil {
		intent, err := uc.provider.Get(ctx, *p.ProviderIntentID)
		if err != nil {
			return nil, providerError("get payment intent", err)
		}
		if intent.Status != payment.IntentCanceled {
			return intent, nil
		}
		p.Attempt++
		p.IdempotencyKey = domain.IdempotencyKeyFor(p.ID, p.Attempt)
	}

	metadata := map[string]string{"payment_id": p.ID, "match_id": p.MatchID}
	intent, err := uc.provider.CreateIntent(ctx, domain.MinorUnits(p.Amount), p.Currency, p.IdempotencyKey, metadata)
	if err != nil {
		return nil, providerError("create payment intent", err)
	}
	return intent, nil
}

func (uc *PaymentUseCase) cancelIntent(ctx context.Context, paymentID, intentID string) {
	if err := uc.provider.Cancel(ctx, intentID); err != nil {
		log := logger.FromContext(ctx, uc.log)
		log.Warn().Err(err).
			Str("payment_id", paymentID).
			Str("intent_id", intentID).
			Msg("failed to cancel payment intent")
	}
}

// ConfirmPayment charges the payment method against the payment's intent. A
// decline marks the payment failed and may be retried with another method.
// A match that has become a mutual date is waived instead of charged.
func (uc *PaymentUseCase) ConfirmPayment(ctx context.Context, payerID, paymentID string, req *ConfirmRequest) (*domain.Payment, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PayerID != payerID {
		return nil, domain.ErrForbidden
	}
	if err := settledError(p.Status); err != nil {
		return nil, err
	}
	if p.ProviderIntentID == nil {
		return nil, domain.ErrPaymentPending
	}

	match, err := uc.matchRepo.GetByID(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}
	ratings, err := uc.ratingRepo.ListByMatch(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}
	if domain.IsMutualDate(match, ratings) {
		if _, err := uc.WaiveForMatch(ctx, p.MatchID); err != nil {
			return nil, err
		}
		return nil, domain.ErrPaymentWaived
	}

	intent, err := uc.provider.Confirm(ctx, *p.ProviderIntentID, req.PaymentMethodID)
	if err != nil {
		if errors.Is(err, payment.ErrDeclined) {
			reason := declineReason(err)
			if _, ferr := uc.markFailed(ctx, p.ID, reason); ferr != nil {
				return nil, ferr
			}
			return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, reason)
		}
		return nil, providerError("confirm payment", err)
	}

	switch intent.Status {
	case payment.IntentSucceeded:
		done, err := uc.markCompleted(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if done.Status != domain.PaymentCompleted {
			log := logger.FromContext(ctx, uc.log)
			log.Error().
				Str("payment_id", p.ID).
				Str("status", string(done.Status)).
				Msg("provider charged a payment that was already settled")
		}
		return done, nil
	case payment.IntentRequiresPaymentMethod:
		reason := intent.FailureMessage
		if reason == "" {
			reason = "payment method was not accepted"
		}
		if _, err := uc.markFailed(ctx, p.ID, reason); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrPaymentFailed, reason)
	default:
		// requires_action or processing: the webhook settles it later.
		return p, nil
	}
}

// HandleProviderEvent applies a verified provider webhook. Events for
// intents this service does not know are ignored.
func (uc *PaymentUseCase) HandleProviderEvent(ctx context.Context, payload []byte, signature string) error {
	ev, err := uc.provider.ParseWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	log := logger.FromContext(ctx, uc.log).With().
		Str("event_id", ev.ID).
		Str("event_type", string(ev.Type)).
		Logger()

	if ev.IntentID == "" {
		log.Debug().Msg("ignoring provider event without intent")
		return nil
	}
	p, err := uc.paymentRepo.GetByProviderIntent(ctx, ev.IntentID)
	if errors.Is(err, domain.ErrPaymentNotFound) {
		log.Info().Str("intent_id", ev.IntentID).Msg("ignoring provider event for unknown intent")
		return nil
	}
	if err != nil {
		return err
	}

	switch ev.Type {
	case payment.EventIntentSucceeded:
		_, err = uc.markCompleted(ctx, p.ID)
	case payment.EventIntentFailed:
		_, err = uc.markFailed(ctx, p.ID, ev.FailureMessage)
	case payment.EventChargeRefunded:
		_, err = uc.markRefunded(ctx, p.ID)
	default:
		log.Debug().Msg("ignoring provider event")
	}
	return err
}

// GetPayment returns a payment to its payer or to the rider of its match
func (uc *PaymentUseCase) GetPayment(ctx context.Context, userID, paymentID string) (*domain.Payment, error) {
	p, err := uc.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.PayerID == userID {
		return p, nil
	}
	match, err := uc.matchRepo.GetByID(ctx, p.MatchID)
	if err != nil {
		return nil, err
	}
	if match.RiderID != userID {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

// WaiveForMatch waives the fare of a mutual-date match. An open payment is
// marked waived and its intent cancelled; without a payment a waived record
// is stored. A completed payment is left as it is.
func (uc *PaymentUseCase) WaiveForMatch(ctx context.Context, matchID string) (*domain.Payment, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}

	var (
		p       *domain.Payment
		changed bool
		created bool
		intent  *string
	)
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		ride, err := uc.rideRepo.GetForUpdate(ctx, match.RideID)
		if err != nil {
			return err
		}
		now := uc.now()

		p, err = uc.paymentRepo.GetByMatch(ctx, matchID)
		switch {
		case errors.Is(err, domain.ErrPaymentNotFound):
			p = uc.newPayment(match, ride, domain.PaymentWaived)
			if err := uc.paymentRepo.Create(ctx, p); err != nil {
				return err
			}
			changed, created = true, true
		case err != nil:
			return err
		case p.Status.IsSettled():
			return nil
		default:
			intent = p.ProviderIntentID
			p.Status = domain.PaymentWaived
			p.FailureReason = nil
			p.UpdatedAt = now
			if err := uc.paymentRepo.Update(ctx, p); err != nil {
				return err
			}
			changed = true
		}

		ride.PaymentStatus = domain.PaymentStateWaived
		ride.UpdatedAt = now
		return uc.rideRepo.Update(ctx, ride)
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return p, nil
	}

	if intent != nil {
		uc.cancelIntent(ctx, p.ID, *intent)
	}
	metrics.PaymentsTotal.WithLabelValues(string(p.Status)).Inc()
	evs := []events.Event{events.PaymentEvent(events.PaymentWaived, p)}
	if created {
		evs = append([]events.Event{events.PaymentEvent(events.PaymentCreated, p)}, evs...)
	}
	uc.publisher.Publish(ctx, evs...)
	return p, nil
}

func (uc *PaymentUseCase) markCompleted(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return uc.settle(ctx, paymentID, events.PaymentCompleted, func(p *domain.Payment, ride *domain.Ride, now time.Time) bool {
		if p.Status.IsSettled() {
			return false
		}
		p.Status = domain.PaymentCompleted
		p.FailureReason = nil
		p.CompletedAt = &now
		ride.PaymentStatus = domain.PaymentStatePaid
		return true
	})
}

func (uc *PaymentUseCase) markFailed(ctx context.Context, paymentID, reason string) (*domain.Payment, error) {
	return uc.settle(ctx, paymentID, events.PaymentFailed, func(p *domain.Payment, _ *domain.Ride, _ time.Time) bool {
		if p.Status.IsSettled() {
			return false
		}
		p.Status = domain.PaymentFailed
		p.FailureReason = &reason
		return true
	})
}

func (uc *PaymentUseCase) markRefunded(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return uc.settle(ctx, paymentID, events.PaymentRefunded, func(p *domain.Payment, _ *domain.Ride, _ time.Time) bool {
		if p.Status != domain.PaymentCompleted {
			return false
		}
		p.Status = domain.PaymentRefunded
		return true
	})
}

// settle applies apply to the payment and its ride under the ride lock and
// publishes evType when apply reports a change.
func (uc *PaymentUseCase) settle(
	ctx context.Context,
	paymentID string,
	evType events.Type,
	apply func(p *domain.Payment, ride *domain.Ride, now time.Time) bool,
) (*domain.Payment, error) {
	var (
		p       *domain.Payment
		changed bool
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = uc.paymentRepo.GetByID(ctx, paymentID); err != nil {
			return err
		}
		match, err := uc.matchRepo.GetByID(ctx, p.MatchID)
		if err != nil {
			return err
		}
		ride, err := uc.rideRepo.GetForUpdate(ctx, match.RideID)
		if err != nil {
			return err
		}
		// re-read under the lock
		if p, err = uc.paymentRepo.GetByID(ctx, paymentID); err != nil {
			return err
		}

		now := uc.now()
		before := ride.PaymentStatus
		if changed = apply(p, ride, now); !changed {
			return nil
		}
		p.UpdatedAt = now
		if err := uc.paymentRepo.Update(ctx, p); err != nil {
			return err
		}
		if ride.PaymentStatus != before {
			ride.UpdatedAt = now
			return uc.rideRepo.Update(ctx, ride)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		metrics.PaymentsTotal.WithLabelValues(string(p.Status)).Inc()
		uc.publisher.Publish(ctx, events.PaymentEvent(evType, p))
	}
	return p, nil
}

func (uc *PaymentUseCase) newPayment(match *domain.Match, ride *domain.Ride, status domain.PaymentStatus) *domain.Payment {
	now := uc.now()
	quote := uc.fees.Quote(ride.FarePerSeat)
	id := uuid.NewString()
	return &domain.Payment{
		ID:             id,
		MatchID:        match.ID,
		PayerID:        match.SeekerID,
		Fare:           quote.Fare,
		PlatformFee:    quote.PlatformFee,
		Amount:         quote.Total,
		Currency:       ride.Currency,
		Status:         status,
		IdempotencyKey: domain.IdempotencyKeyFor(id, 1),
		Attempt:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func settledError(status domain.PaymentStatus) error {
	switch status {
	case domain.PaymentCompleted, domain.PaymentRefunded:
		return domain.ErrAlreadyPaid
	case domain.PaymentWaived:
		return domain.ErrPaymentWaived
	}
	return nil
}

func declineReason(err error) string {
	return strings.TrimPrefix(err.Error(), payment.ErrDeclined.Error()+": ")
}

func providerError(op string, err error) error {
	if errors.Is(err, payment.ErrUnavailable) {
		return fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
