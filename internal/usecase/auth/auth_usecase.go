package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/metrics"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/otp"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/validation"
)

type Options struct {
	JWTSecret   string
	TokenTTL    time.Duration
	CodeTTL     time.Duration
	MaxAttempts int
}

type AuthUseCase struct {
	userRepo repository.UserRepository
	codes    otp.CodeStore
	sender   otp.Sender
	opts     Options

	now          func() time.Time
	generateCode func() (string, error)
}

func NewAuthUseCase(
	userRepo repository.UserRepository,
	codes otp.CodeStore,
	sender otp.Sender,
	opts Options,
) *AuthUseCase {
	return &AuthUseCase{
		userRepo:     userRepo,
		codes:        codes,
		sender:       sender,
		opts:         opts,
		now:          time.Now,
		generateCode: randomCode,
	}
}

// SendCodeRequest represents a request for a verification code
type SendCodeRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,phone"`
}

type SendCodeResponse struct {
	VerificationID string    `json:"verification_id"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// VerifyRequest represents a code check. Role is required the first time a
// phone number signs in.
type VerifyRequest struct {
	VerificationID string       `json:"verification_id" validate:"required,uuid"`
	Code           string       `json:"code" validate:"required,otp"`
	Role           *domain.Role `json:"role" validate:"omitempty,oneof=rider seeker"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *domain.User `json:"user"`
	IsNewUser bool         `json:"is_new_user"`
}

type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// SendCode issues a six digit code for the phone number.
func (uc *AuthUseCase) SendCode(ctx context.Context, req *SendCodeRequest) (*SendCodeResponse, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if !validation.ValidatePhoneNumber(req.PhoneNumber) {
		metrics.OTPRequestsTotal.WithLabelValues("send", "invalid_phone").Inc()
		return nil, domain.ErrInvalidPhone
	}

	code, err := uc.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash code: %w", err)
	}

	verificationID := uuid.NewString()
	entry := otp.Entry{PhoneNumber: req.PhoneNumber, CodeHash: string(hash)}
	if err := uc.codes.Save(ctx, verificationID, entry, uc.opts.CodeTTL); err != nil {
		return nil, err
	}
	if err := uc.sender.Send(ctx, req.PhoneNumber, code); err != nil {
		metrics.OTPRequestsTotal.WithLabelValues("send", "error").Inc()
		err = fmt.Errorf("failed to send code: %w", err)
		if delErr := uc.codes.Delete(ctx, verificationID); delErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to discard verification: %w", delErr))
		}
		return nil, err
	}

	metrics.OTPRequestsTotal.WithLabelValues("send", "ok").Inc()
	return &SendCodeResponse{
		VerificationID: verificationID,
		ExpiresAt:      uc.now().Add(uc.opts.CodeTTL),
	}, nil
}

// Verify checks the code and signs the user in, creating the account on the
// first successful verification.
func (uc *AuthUseCase) Verify(ctx context.Context, req *VerifyRequest) (*AuthResponse, error) {
	if !validation.ValidateOTPCode(req.Code) {
		metrics.OTPRequestsTotal.WithLabelValues("verify", "invalid_code").Inc()
		return nil, domain.ErrInvalidCode
	}

	entry, err := uc.codes.Get(ctx, req.VerificationID)
	if errors.Is(err, otp.ErrNotFound) {
		metrics.OTPRequestsTotal.WithLabelValues("verify", "expired").Inc()
		return nil, domain.ErrCodeExpired
	}
	if err != nil {
		return nil, err
	}
	if entry.Attempts >= uc.opts.MaxAttempts {
		return nil, uc.lockOut(ctx, req.VerificationID)
	}

	if bcrypt.CompareHashAndPassword([]byte(entry.CodeHash), []byte(req.Code)) != nil {
		metrics.OTPRequestsTotal.WithLabelValues("verify", "wrong_code").Inc()
		attempts, err := uc.codes.IncrementAttempts(ctx, req.VerificationID)
		if err != nil && !errors.Is(err, otp.ErrNotFound) {
			return nil, err
		}
		if attempts >= uc.opts.MaxAttempts {
			return nil, uc.lockOut(ctx, req.VerificationID)
		}
		return nil, domain.ErrInvalidCode
	}

	existing, err := uc.userRepo.GetByPhone(ctx, entry.PhoneNumber)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	// A missing role leaves the code in place so it can be resent with one.
	if existing == nil && (req.Role == nil || !req.Role.Valid()) {
		return nil, domain.ErrRoleRequired
	}

	// Only the caller that removes the entry signs in.
	if _, err := uc.codes.Consume(ctx, req.VerificationID); err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			metrics.OTPRequestsTotal.WithLabelValues("verify", "expired").Inc()
			return nil, domain.ErrCodeExpired
		}
		return nil, err
	}

	user, isNew := existing, false
	if user == nil {
		user, isNew, err = uc.createUser(ctx, entry.PhoneNumber, *req.Role)
		if err != nil {
			return nil, err
		}
	}

	token, expiresAt, err := uc.issueToken(user)
	if err != nil {
		return nil, err
	}

	metrics.OTPRequestsTotal.WithLabelValues("verify", "ok").Inc()
	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
		IsNewUser: isNew,
	}, nil
}

// lockOut discards a verification that ran out of attempts.
func (uc *AuthUseCase) lockOut(ctx context.Context, verificationID string) error {
	if err := uc.codes.Delete(ctx, verificationID); err != nil {
		return fmt.Errorf("failed to discard verification: %w", err)
	}
	return domain.ErrTooManyAttempts
}

func (uc *AuthUseCase) createUser(ctx context.Context, phone string, role domain.Role) (*domain.User, bool, error) {
	user := domain.NewUser(uuid.NewString(), phone, role, uc.now())
	if err := uc.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			// Lost a race with a parallel verification of the same number.
			existing, getErr := uc.userRepo.GetByPhone(ctx, phone)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	return user, true, nil
}

func (uc *AuthUseCase) issueToken(user *domain.User) (string, time.Time, error) {
	now := uc.now()
	expiresAt := now.Add(uc.opts.TokenTTL)

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.opts.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, expiresAt, nil
}

// ValidateToken verifies a JWT token and returns its claims
func (uc *AuthUseCase) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(uc.opts.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(uc.now),
	)
	if err != nil || !token.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// Me returns the signed-in user
func (uc *AuthUseCase) Me(ctx context.Context, userID string) (*domain.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
