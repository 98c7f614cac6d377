package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/gemini"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/rider-seeker-backend/internal/infrastructure/storage"
	"github.com/gdugdh24/rider-seeker-backend/internal/repository"
	"github.com/gdugdh24/rider-seeker-backend/internal/validation"
)

// BioGenerator suggests profile bios. The Gemini client implements it.
type BioGenerator interface {
	GenerateBios(ctx context.Context, p gemini.BioPrompt) ([]string, error)
}

type ProfileUseCase struct {
	tx            repository.TxManager
	profileRepo   repository.ProfileRepository
	userRepo      repository.UserRepository
	storage       storage.ObjectStorage
	bios          BioGenerator
	maxPhotoBytes int64
	log           zerolog.Logger
	now           func() time.Time
}

// NewProfileUseCase wires the profile flows. bios may be nil, in which case
// GenerateBio falls back to templates.
func NewProfileUseCase(
	tx repository.TxManager,
	profileRepo repository.ProfileRepository,
	userRepo repository.UserRepository,
	objectStorage storage.ObjectStorage,
	bios BioGenerator,
	maxPhotoBytes int64,
	log zerolog.Logger,
) *ProfileUseCase {
	return &ProfileUseCase{
		tx:            tx,
		profileRepo:   profileRepo,
		userRepo:      userRepo,
		storage:       objectStorage,
		bios:          bios,
		maxPhotoBytes: maxPhotoBytes,
		log:           log,
		now:           time.Now,
	}
}

// CreateProfileRequest represents profile creation request
type CreateProfileRequest struct {
	Name        string   `json:"name" validate:"required,min=2,max=100"`
	Age         int      `json:"age"`
	Bio         *string  `json:"bio" validate:"omitempty,max=500"`
	Hobbies     []string `json:"hobbies" validate:"omitempty,max=10,dive,min=1,max=50"`
	Habits      []string `json:"habits" validate:"omitempty,max=10,dive,min=1,max=50"`
	Personality []string `json:"personality" validate:"omitempty,max=10,dive,min=1,max=50"`
}

// UpdateProfileRequest represents profile update request. Photos may only
// reorder or drop already uploaded photos.
type UpdateProfileRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=2,max=100"`
	Age         *int      `json:"age"`
	Bio         *string   `json:"bio" validate:"omitempty,max=500"`
	Photos      *[]string `json:"photos" validate:"omitempty,max=5"`
	Hobbies     *[]string `json:"hobbies" validate:"omitempty,max=10,dive,min=1,max=50"`
	Habits      *[]string `json:"habits" validate:"omitempty,max=10,dive,min=1,max=50"`
	Personality *[]string `json:"personality" validate:"omitempty,max=10,dive,min=1,max=50"`
}

// GetMyProfile returns current user's profile
func (uc *ProfileUseCase) GetMyProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	return uc.profileRepo.GetByUserID(ctx, userID)
}

// GetProfileByUserID returns the public part of another user's profile
func (uc *ProfileUseCase) GetProfileByUserID(ctx context.Context, targetUserID string) (*domain.PublicProfile, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	return profile.Public(), nil
}

// CreateProfile creates a new profile (onboarding)
func (uc *ProfileUseCase) CreateProfile(ctx context.Context, userID string, req *CreateProfileRequest) (*domain.Profile, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validation.ValidateAge(req.Age); err != nil {
		return nil, err
	}
	if _, err := uc.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	now := uc.now()
	profile := &domain.Profile{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Age:         req.Age,
		Bio:         req.Bio,
		Photos:      []string{},
		Hobbies:     nonNil(req.Hobbies),
		Habits:      nonNil(req.Habits),
		Personality: nonNil(req.Personality),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, domain.ErrProfileAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile updates user profile
func (uc *ProfileUseCase) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*domain.Profile, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Age != nil {
		if err := validation.ValidateAge(*req.Age); err != nil {
			return nil, err
		}
	}

	var profile *domain.Profile
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		profile, err = uc.profileRepo.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if err := applyUpdate(profile, req); err != nil {
			return err
		}
		profile.UpdatedAt = uc.now()
		if err := uc.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func applyUpdate(profile *domain.Profile, req *UpdateProfileRequest) error {
	if req.Name != nil {
		profile.Name = strings.TrimSpace(*req.Name)
	}
	if req.Age != nil {
		profile.Age = *req.Age
	}
	if req.Bio != nil {
		profile.Bio = req.Bio
	}
	if req.Photos != nil {
		for _, url := range *req.Photos {
			if !profile.HasPhoto(url) {
				return fmt.Errorf("%w: %s", domain.ErrPhotoNotFound, url)
			}
		}
		profile.Photos = append([]string{}, *req.Photos...)
	}
	if req.Hobbies != nil {
		profile.Hobbies = *req.Hobbies
	}
	if req.Habits != nil {
		profile.Habits = *req.Habits
	}
	if req.Personality != nil {
		profile.Personality = *req.Personality
	}
	return nil
}

// UploadPhoto stores an image and appends it to the profile's photos.
func (uc *ProfileUseCase) UploadPhoto(ctx context.Context, userID, contentType string, data []byte) (*domain.Profile, error) {
	if int64(len(data)) > uc.maxPhotoBytes {
		return nil, domain.ErrFileTooLarge
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.ErrUnsupportedFileType
	}

	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(profile.Photos) >= domain.MaxPhotos {
		return nil, domain.ErrTooManyPhotos
	}

	url, err := uc.storage.Upload(ctx, storage.ObjectKey("photos", userID, contentType), contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to upload photo: %w", err)
	}

	// The count is checked again under the row lock; a parallel upload may
	// have filled the last slot while this one was in storage.
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		profile, err = uc.profileRepo.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if len(profile.Photos) >= domain.MaxPhotos {
			return domain.ErrTooManyPhotos
		}
		profile.Photos = append(profile.Photos, url)
		profile.UpdatedAt = uc.now()
		if err := uc.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		uc.deleteObject(ctx, url)
		return nil, err
	}
	return profile, nil
}

// DeletePhoto removes a photo from the profile and from storage.
func (uc *ProfileUseCase) DeletePhoto(ctx context.Context, userID, url string) (*domain.Profile, error) {
	var profile *domain.Profile
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		profile, err = uc.profileRepo.GetByUserIDForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		if !profile.RemovePhoto(url) {
			return domain.ErrPhotoNotFound
		}
		profile.UpdatedAt = uc.now()
		if err := uc.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.deleteObject(ctx, url)
	return profile, nil
}

func (uc *ProfileUseCase) deleteObject(ctx context.Context, url string) {
	if err := uc.storage.Delete(ctx, url); err != nil {
		log := logger.FromContext(ctx, uc.log)
		log.Warn().Err(err).Str("url", url).Msg("failed to delete stored photo")
	}
}

// GenerateBio suggests bios from the user's profile tags
func (uc *ProfileUseCase) GenerateBio(ctx context.Context, userID string) ([]string, error) {
	profile, err := uc.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	prompt := gemini.BioPrompt{
		Name:        profile.Name,
		Age:         profile.Age,
		Hobbies:     profile.Hobbies,
		Habits:      profile.Habits,
		Personality: profile.Personality,
	}
	if uc.bios != nil {
		bios, err := uc.bios.GenerateBios(ctx, prompt)
		if err == nil && len(bios) > 0 {
			return bios, nil
		}
		log := logger.FromContext(ctx, uc.log)
		log.Warn().Err(err).Msg("bio generation failed, using templates")
	}
	return templateBios(prompt), nil
}

func templateBios(p gemini.BioPrompt) []string {
	hobby := "good conversations"
	if len(p.Hobbies) > 0 {
		hobby = p.Hobbies[0]
	}
	trait := "easygoing"
	if len(p.Personality) > 0 {
		trait = p.Personality[0]
	}
	return []string{
		fmt.Sprintf("Hi, I'm %s. Into %s and always up for a ride with good company.", p.Name, hobby),
		fmt.Sprintf("%s, %d. Friends call me %s. Ask me about %s.", p.Name, p.Age, trait, hobby),
		fmt.Sprintf("Looking for someone to share the road and talk about %s.", hobby),
	}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
