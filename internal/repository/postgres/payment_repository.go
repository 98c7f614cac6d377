package postgres

import (
	"context"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, match_id, payer_id, fare, platform_fee, amount, currency, status,
			provider_intent_id, idempotency_key, attempt, failure_reason,
			completed_at, created_at, updated_at
		)
		VALUES (
			:id, :match_id, :payer_id, :fare, :platform_fee, :amount, :currency, :status,
			:provider_intent_id, :idempotency_key, :attempt, :failure_reason,
			:completed_at, :created_at, :updated_at
		)
	`
	_, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, payment)
	return err
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.get(ctx, `SELECT * FROM payments WHERE id = $1`, id)
}

func (r *paymentRepository) GetByMatch(ctx context.Context, matchID string) (*domain.Payment, error) {
	return r.get(ctx, `SELECT * FROM payments WHERE match_id = $1`, matchID)
}

func (r *paymentRepository) GetByProviderIntent(ctx context.Context, intentID string) (*domain.Payment, error) {
	return r.get(ctx, `SELECT * FROM payments WHERE provider_intent_id = $1`, intentID)
}

func (r *paymentRepository) get(ctx context.Context, query string, arg string) (*domain.Payment, error) {
	var payment domain.Payment
	err := conn(ctx, r.db).GetContext(ctx, &payment, query, arg)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = :status, provider_intent_id = :provider_intent_id,
		    idempotency_key = :idempotency_key, attempt = :attempt,
		    failure_reason = :failure_reason, completed_at = :completed_at,
		    updated_at = :updated_at
		WHERE id = :id
	`
	result, err := sqlx.NamedExecContext(ctx, conn(ctx, r.db), query, payment)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}
