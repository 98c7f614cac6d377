package kyc

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/events"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
)

type KYCUseCase struct {
	userRepo    repository.UserRepository
	storage     storage.ObjectStorage
	publisher   events.Publisher
	maxDocBytes int64
}

func NewKYCUseCase(
	userRepo repository.UserRepository,
	objectStorage storage.ObjectStorage,
	publisher events.Publisher,
	maxDocBytes int64,
) *KYCUseCase {
	return &KYCUseCase{
		userRepo:    userRepo,
		storage:     objectStorage,
		publisher:   publisher,
		maxDocBytes: maxDocBytes,
	}
}

// ReviewRequest is sent by the internal review tool
type ReviewRequest struct {
	Approved bool `json:"approved"`
}

// SubmitDocument uploads an identity document and puts the rider back into
// review.
func (uc *KYCUseCase) SubmitDocument(ctx context.Context, userID, contentType string, data []byte) (*domain.User, error) {
	if int64(len(data)) > uc.maxDocBytes {
		return nil, domain.ErrFileTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.ErrUnsupportedFileType
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsRider() {
		return nil, domain.ErrKYCNotApplicable
	}
	if user.CanOfferRides() {
		return nil, domain.ErrKYCAlreadyVerified
	}

	url, err := uc.storage.Upload(ctx, storage.ObjectKey("kyc", userID, contentType), contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}
	if err := uc.userRepo.UpdateKYC(ctx, userID, domain.KYCPending, &url); err != nil {
		return nil, err
	}
	return uc.userRepo.GetByID(ctx, userID)
}

// Review records the outcome of a manual document check. It is the only
// place a rider becomes verified.
func (uc *KYCUseCase) Review(ctx context.Context, userID string, req *ReviewRequest) (*domain.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsRider() {
		return nil, domain.ErrKYCNotApplicable
	}
	if user.KYCDocumentURL == nil {
		return nil, domain.ErrKYCNoDocument
	}

	status := domain.KYCRejected
	if req.Approved {
		status = domain.KYCVerified
	}
	if err := uc.userRepo.UpdateKYC(ctx, userID, status, nil); err != nil {
		return nil, err
	}

	uc.publisher.Publish(ctx, events.New(events.KYCReviewed, userID, events.KYCPayload{UserID: userID, Status: status}, userID))
	return uc.userRepo.GetByID(ctx, userID)
}
