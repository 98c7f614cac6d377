package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, phone_number, role, kyc_status, kyc_document_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := conn(ctx, r.db).ExecContext(ctx, query,
		user.ID, user.PhoneNumber, user.Role, user.KYCStatus, user.KYCDocumentURL,
		user.CreatedAt, user.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return domain.ErrUserAlreadyExists
	}
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	query := `SELECT * FROM users WHERE id = $1`
	err := conn(ctx, r.db).GetContext(ctx, &user, query, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	query := `SELECT * FROM users WHERE phone_number = $1`
	err := conn(ctx, r.db).GetContext(ctx, &user, query, phone)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateKYC(ctx context.Context, id string, status domain.KYCStatus, documentURL *string) error {
	query := `
		UPDATE users
		SET kyc_status = $1, kyc_document_url = COALESCE($2, kyc_document_url), updated_at = CURRENT_TIMESTAMP
		WHERE id = $3 AND role = 'rider'
	`
	result, err := conn(ctx, r.db).ExecContext(ctx, query, status, documentURL, id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

const (
	// uniqueViolation is the Postgres SQLSTATE for unique_violation.
	uniqueViolation = "23505"
	// invalidTextRepresentation is raised for an id that is not a uuid.
	invalidTextRepresentation = "22P02"
)

// isNotFound reports whether err means the row does not exist: no row came
// back, or the id could never name one.
func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}
