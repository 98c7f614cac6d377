package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/otp"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository/memory"
)

type captureSender struct {
	codes map[string]string
	err   error
}

func (s *captureSender) Send(_ context.Context, phone, code string) error {
	if s.err != nil {
		return s.err
	}
	s.codes[phone] = code
	return nil
}

func newTestUseCase(t *testing.T) (*AuthUseCase, *captureSender) {
	t.Helper()
	store := memory.NewStore()
	sender := &captureSender{codes: map[string]string{}}
	uc := NewAuthUseCase(memory.NewUserRepository(store), otp.NewMemoryCodeStore(), sender, Options{
		JWTSecret:   "test-secret-that-is-at-least-32-chars",
		TokenTTL:    time.Hour,
		CodeTTL:     5 * time.Minute,
		MaxAttempts: 3,
	})
	return uc, sender
}

func rolePtr(r domain.Role) *domain.Role { return &r }

func TestSendCodeRejectsInvalidPhone(t *testing.T) {
	uc, _ := newTestUseCase(t)
	for _, phone := range []string{"", "5551234567", "+123", "+1555abc4567"} {
		_, err := uc.SendCode(context.Background(), &SendCodeRequest{PhoneNumber: phone})
		if !errors.Is(err, domain.ErrInvalidPhone) {
			t.Errorf("SendCode(%q) error = %v, want ErrInvalidPhone", phone, err)
		}
	}
}

func TestVerifyCreatesUserOnce(t *testing.T) {
	uc, sender := newTestUseCase(t)
	ctx := context.Background()
	phone := "+15551234567"

	sent, err := uc.SendCode(ctx, &SendCodeRequest{PhoneNumber: phone})
	if err != nil {
		t.Fatalf("SendCode() error = %v", err)
	}

	// New users must pick a role; the code stays usable.
	_, err = uc.Verify(ctx, &VerifyRequest{VerificationID: sent.VerificationID, Code: sender.codes[phone]})
	if !errors.Is(err, domain.ErrRoleRequired) {
		t.Fatalf("Verify() without role error = %v, want ErrRoleRequired", err)
	}

	resp, err := uc.Verify(ctx, &VerifyRequest{
		VerificationID: sent.VerificationID,
		Code:           sender.codes[phone],
		Role:           rolePtr(domain.RoleRider),
	})
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !resp.IsNewUser {
		t.Error("IsNewUser = false on first sign in")
	}
	if resp.User.KYCStatus == nil || *resp.User.KYCStatus != domain.KYCPending {
		t.Errorf("rider KYC status = %v, want pending", resp.User.KYCStatus)
	}

	claims, err := uc.ValidateToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Subject != resp.User.ID || claims.Role != domain.RoleRider {
		t.Errorf("claims = %+v", claims)
	}

	// Second sign in returns the same account.
	sent, _ = uc.SendCode(ctx, &SendCodeRequest{PhoneNumber: phone})
	again, err := uc.Verify(ctx, &VerifyRequest{VerificationID: sent.VerificationID, Code: sender.codes[phone]})
	if err != nil {
		t.Fatalf("Verify() second time error = %v", err)
	}
	if again.IsNewUser || again.User.ID != resp.User.ID {
		t.Errorf("second sign in = %+v", again)
	}
}

func TestVerifyCodeIsSingleUse(t *testing.T) {
	uc, sender := newTestUseCase(t)
	ctx := context.Background()
	phone := "+15551234567"

	sent, _ := uc.SendCode(ctx, &SendCodeRequest{PhoneNumber: phone})
	req := &VerifyRequest{VerificationID: sent.VerificationID, Code: sender.codes[phone], Role: rolePtr(domain.RoleSeeker)}
	if _, err := uc.Verify(ctx, req); err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if _, err := uc.Verify(ctx, req); !errors.Is(err, domain.ErrCodeExpired) {
		t.Errorf("reused code error = %v, want ErrCodeExpired", err)
	}
}

func TestConcurrentVerifySignsInOnce(t *testing.T) {
	uc, sender := newTestUseCase(t)
	ctx := context.Background()
	phone := "+15551234567"

	sent, _ := uc.SendCode(ctx, &SendCodeRequest{PhoneNumber: phone})
	req := VerifyRequest{VerificationID: sent.VerificationID, Code: sender.codes[phone], Role: rolePtr(domain.RoleSeeker)}

	const callers = 8
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		tokens int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := req
			resp, err := uc.Verify(ctx, &r)
			if err != nil {
				if !errors.Is(err, domain.ErrCodeExpired) {
					t.Errorf("Verify() error = %v, want ErrCodeExpired", err)
				}
				return
			}
			if resp.Token == "" {
				t.Error("Verify() returned an empty token")
			}
			mu.Lock()
			tokens++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if tokens != 1 {
		t.Errorf("tokens issued = %d, want 1", tokens)
	}
}

func TestVerifyLocksAfterMaxAttempts(t *testing.T) {
	uc, sender := newTestUseCase(t)
	ctx := context.Background()
	phone := "+15551234567"

	sent, _ := uc.SendCode(ctx, &SendCodeRequest{PhoneNumber: phone})
	wrong := "000000"
	if sender.codes[phone] == wrong {
		wrong = "111111"
	}

	for i := 0; i < 2; i++ {
		_, err := uc.Verify(ctx, &VerifyRequest{VerificationID: sent.VerificationID, Code: wrong})
		if !errors.Is(err, domain.ErrInvalidCode) {
			t.Fatalf("attempt %d error = %v, want ErrInvalidCode", i+1, err)
		}
	}
	_, err := uc.Verify(ctx, &VerifyRequest{VerificationID: sent.VerificationID, Code: wrong})
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("last attempt error = %v, want ErrTooManyAttempts", err)
	}

	_, err = uc.Verify(ctx, &VerifyRequest{VerificationID: sent.VerificationID, Code: sender.codes[phone], Role: rolePtr(domain.RoleSeeker)})
	if !errors.Is(err, domain.ErrCodeExpired) {
		t.Errorf("correct code after lockout error = %v, want ErrCodeExpired", err)
	}
}

func TestVerifyRejectsMalformedCode(t *testing.T) {
	uc, _ := newTestUseCase(t)
	for _, code := range []string{"12345", "1234567", "12a456"} {
		_, err := uc.Verify(context.Background(), &VerifyRequest{VerificationID: "x", Code: code})
		if !errors.Is(err, domain.ErrInvalidCode) {
			t.Errorf("Verify(code=%q) error = %v, want ErrInvalidCode", code, err)
		}
	}
}

func TestValidateTokenRejectsExpiredAndForeign(t *testing.T) {
	uc, _ := newTestUseCase(t)
	user := domain.NewUser("u1", "+15551234567", domain.RoleSeeker, time.Now())

	token, _, err := uc.issueToken(user)
	if err != nil {
		t.Fatalf("issueToken() error = %v", err)
	}

	uc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := uc.ValidateToken(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("expired token error = %v, want ErrInvalidToken", err)
	}

	other, _ := newTestUseCase(t)
	other.opts.JWTSecret = "another-secret-that-is-at-least-32-chars"
	if _, err := other.ValidateToken(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Errorf("foreign token error = %v, want ErrInvalidToken", err)
	}
}
