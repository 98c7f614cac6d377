package kyc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository/memory"
)

func newTestUseCase(t *testing.T) (*KYCUseCase, *events.Recorder) {
	t.Helper()
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	ctx := context.Background()
	now := time.Now()
	_ = users.Create(ctx, domain.NewUser("rider", "+15550000001", domain.RoleRider, now))
	_ = users.Create(ctx, domain.NewUser("seeker", "+15550000002", domain.RoleSeeker, now))

	files, err := storage.NewLocalStorage(t.TempDir(), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	rec := &events.Recorder{}
	return NewKYCUseCase(users, files, rec, 1024), rec
}

func TestSubmitAndApprove(t *testing.T) {
	uc, rec := newTestUseCase(t)
	ctx := context.Background()

	if _, err := uc.Review(ctx, "rider", &ReviewRequest{Approved: true}); !errors.Is(err, domain.ErrKYCNoDocument) {
		t.Fatalf("Review() before submit error = %v, want ErrKYCNoDocument", err)
	}

	user, err := uc.SubmitDocument(ctx, "rider", "image/jpeg", []byte("passport"))
	if err != nil {
		t.Fatalf("SubmitDocument() error = %v", err)
	}
	if user.KYCDocumentURL == nil || *user.KYCStatus != domain.KYCPending {
		t.Fatalf("after submit user = %+v", user)
	}

	user, err = uc.Review(ctx, "rider", &ReviewRequest{Approved: true})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if !user.CanOfferRides() {
		t.Error("approved rider cannot offer rides")
	}
	if !rec.Has(events.KYCReviewed) {
		t.Error("no kyc.reviewed event")
	}

	if _, err := uc.SubmitDocument(ctx, "rider", "image/jpeg", []byte("again")); !errors.Is(err, domain.ErrKYCAlreadyVerified) {
		t.Errorf("resubmit after approval error = %v, want ErrKYCAlreadyVerified", err)
	}
}

func TestRejectedRiderCanResubmit(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	_, _ = uc.SubmitDocument(ctx, "rider", "image/png", []byte("blurry"))
	user, err := uc.Review(ctx, "rider", &ReviewRequest{Approved: false})
	if err != nil {
		t.Fatalf("Review() error = %v", err)
	}
	if *user.KYCStatus != domain.KYCRejected || user.CanOfferRides() {
		t.Fatalf("rejected user = %+v", user)
	}

	user, err = uc.SubmitDocument(ctx, "rider", "image/png", []byte("sharp"))
	if err != nil {
		t.Fatalf("SubmitDocument() error = %v", err)
	}
	if *user.KYCStatus != domain.KYCPending {
		t.Errorf("status after resubmit = %s, want pending", *user.KYCStatus)
	}
}

func TestSubmitDocumentChecks(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	tests := []struct {
		name        string
		userID      string
		contentType string
		size        int
		want        error
	}{
		{"seeker", "seeker", "image/jpeg", 10, domain.ErrKYCNotApplicable},
		{"too large", "rider", "image/jpeg", 2048, domain.ErrFileTooLarge},
		{"not an image", "rider", "text/plain", 10, domain.ErrUnsupportedFileType},
		{"unknown user", "nobody", "image/jpeg", 10, domain.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.SubmitDocument(ctx, tt.userID, tt.contentType, make([]byte, tt.size))
			if !errors.Is(err, tt.want) {
				t.Errorf("SubmitDocument() error = %v, want %v", err, tt.want)
			}
		})
	}
}
