package rating

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/validation"
)

// PaymentInitiator settles the fare once a match has been rated.
type PaymentInitiator interface {
	CreatePaymentIntent(ctx context.Context, payerID, matchID string) (*domain.PaymentIntent, error)
	WaiveForMatch(ctx context.Context, matchID string) (*domain.Payment, error)
}

type RatingUseCase struct {
	tx         repository.TxManager
	ratingRepo repository.RatingRepository
	matchRepo  repository.MatchRepository
	payments   PaymentInitiator
	publisher  events.Publisher
	log        zerolog.Logger
	now        func() time.Time
}

func NewRatingUseCase(
	tx repository.TxManager,
	ratingRepo repository.RatingRepository,
	matchRepo repository.MatchRepository,
	payments PaymentInitiator,
	publisher events.Publisher,
	log zerolog.Logger,
) *RatingUseCase {
	return &RatingUseCase{
		tx:         tx,
		ratingRepo: ratingRepo,
		matchRepo:  matchRepo,
		payments:   payments,
		publisher:  publisher,
		log:        log,
		now:        time.Now,
	}
}

// SubmitRatingRequest represents a rating of a completed match
type SubmitRatingRequest struct {
	Type    domain.RatingType `json:"type" validate:"required,oneof=date ride"`
	Stars   int               `json:"stars" validate:"min=1,max=5"`
	Comment *string           `json:"comment" validate:"omitempty,max=500"`
}

// RatingResult is the stored rating plus the payment step it triggered.
// PaymentError is set when the rating was stored but the payment step
// failed; the seeker can retry it through the payment endpoints.
type RatingResult struct {
	Rating       *domain.Rating  `json:"rating"`
	MutualDate   bool            `json:"mutual_date"`
	Payment      *domain.Payment `json:"payment,omitempty"`
	ClientSecret string          `json:"client_secret,omitempty"`
	PaymentError string          `json:"payment_error,omitempty"`
}

// SubmitRating stores the rater's rating of a completed match and mirrors
// the stars into the match. A mutual date waives the fare; otherwise a
// rating by the seeker opens the payment.
func (uc *RatingUseCase) SubmitRating(ctx context.Context, raterID, matchID string, req *SubmitRatingRequest) (*RatingResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	var (
		match   *domain.Match
		rating  *domain.Rating
		ratings []*domain.Rating
	)
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		match, err = uc.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if !match.HasUser(raterID) {
			return domain.ErrForbidden
		}
		if match.Status != domain.MatchCompleted {
			return domain.ErrMatchNotCompleted
		}

		now := uc.now()
		rating = &domain.Rating{
			MatchID:   matchID,
			RaterID:   raterID,
			Type:      req.Type,
			Stars:     req.Stars,
			Comment:   trimComment(req.Comment),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := uc.ratingRepo.Upsert(ctx, rating); err != nil {
			return err
		}

		stars := req.Stars
		if raterID == match.RiderID {
			match.RiderRating = &stars
		} else {
			match.SeekerRating = &stars
		}
		match.UpdatedAt = now
		if err := uc.matchRepo.Update(ctx, match); err != nil {
			return err
		}

		ratings, err = uc.ratingRepo.ListByMatch(ctx, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &RatingResult{Rating: rating, MutualDate: domain.IsMutualDate(match, ratings)}
	metrics.RatingsTotal.WithLabelValues(string(rating.Type)).Inc()
	uc.publisher.Publish(ctx, events.New(events.RatingSubmitted, matchID, events.RatingPayload{
		MatchID:    matchID,
		RaterID:    raterID,
		Type:       rating.Type,
		Stars:      rating.Stars,
		MutualDate: result.MutualDate,
	}, match.RiderID, match.SeekerID))

	uc.settlePayment(ctx, match, raterID, result)
	return result, nil
}

func (uc *RatingUseCase) settlePayment(ctx context.Context, match *domain.Match, raterID string, result *RatingResult) {
	log := logger.FromContext(ctx, uc.log).With().Str("match_id", match.ID).Logger()

	if result.MutualDate {
		p, err := uc.payments.WaiveForMatch(ctx, match.ID)
		if err != nil {
			log.Error().Err(err).Msg("failed to waive payment for mutual date")
			result.PaymentError = err.Error()
			return
		}
		result.Payment = p
		return
	}
	if !match.IsSeeker(raterID) {
		return
	}

	intent, err := uc.payments.CreatePaymentIntent(ctx, raterID, match.ID)
	switch {
	case err == nil:
		result.Payment = intent.Payment
		result.ClientSecret = intent.ClientSecret
	case errors.Is(err, domain.ErrAlreadyPaid), errors.Is(err, domain.ErrPaymentWaived):
	default:
		log.Error().Err(err).Msg("failed to create payment intent after rating")
		result.PaymentError = err.Error()
	}
}

// CheckMutualDateRating reports whether both participants rated the match
// as a date.
func (uc *RatingUseCase) CheckMutualDateRating(ctx context.Context, matchID string) (bool, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return false, err
	}
	ratings, err := uc.ratingRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return false, err
	}
	return domain.IsMutualDate(match, ratings), nil
}

// GetRatings returns the ratings of a match to its participants
func (uc *RatingUseCase) GetRatings(ctx context.Context, userID, matchID string) ([]*domain.Rating, error) {
	match, err := uc.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.HasUser(userID) {
		return nil, domain.ErrForbidden
	}
	return uc.ratingRepo.ListByMatch(ctx, matchID)
}

func trimComment(c *string) *string {
	if c == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*c)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
