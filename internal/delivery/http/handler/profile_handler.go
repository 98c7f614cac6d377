package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/profile"
)

type ProfileHandler struct {
	profileUseCase *profile.ProfileUseCase
	maxPhotoBytes  int64
}

func NewProfileHandler(profileUseCase *profile.ProfileUseCase, maxPhotoBytes int64) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
		maxPhotoBytes:  maxPhotoBytes,
	}
}

// DeletePhotoRequest names the photo to remove
type DeletePhotoRequest struct {
	URL string `json:"url" binding:"required"`
}

// GetMyProfile handles GET /profile/me
// @Summary Get my profile
// @Description Get current user's profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.Profile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/me [get]
func (h *ProfileHandler) GetMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.profileUseCase.GetMyProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get profile")
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile handles PUT /profile/me
// @Summary Update my profile
// @Description Update current user's profile
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profile.UpdateProfileRequest true "Profile update data"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/me [put]
func (h *ProfileHandler) UpdateMyProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req profile.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updatedProfile, err := h.profileUseCase.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, updatedProfile)
}

// CompleteOnboarding handles POST /profile/complete-onboarding
// @Summary Complete onboarding
// @Description Create the current user's profile
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body profile.CreateProfileRequest true "Profile creation data"
// @Success 201 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/complete-onboarding [post]
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req profile.CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	newProfile, err := h.profileUseCase.CreateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "failed to create profile")
		return
	}

	c.JSON(http.StatusCreated, newProfile)
}

// GetProfileByUserID handles GET /profile/:user_id
// @Summary Get user profile
// @Description Get the public part of another user's profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} domain.PublicProfile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/{user_id} [get]
func (h *ProfileHandler) GetProfileByUserID(c *gin.Context) {
	if _, ok := currentUserID(c); !ok {
		return
	}

	targetID, ok := pathID(c, "user_id", domain.ErrProfileNotFound)
	if !ok {
		return
	}

	profileResp, err := h.profileUseCase.GetProfileByUserID(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err, "failed to get profile")
		return
	}

	c.JSON(http.StatusOK, profileResp)
}

// UploadPhoto handles POST /profile/me/photos
// @Summary Upload photo
// @Description Upload an image and append it to the profile photos
// @Tags profile
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Image file"
// @Success 201 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/me/photos [post]
func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contentType, data, err := readUpload(c, "photo", h.maxPhotoBytes)
	if err != nil {
		respondError(c, err, "failed to read upload")
		return
	}

	updated, err := h.profileUseCase.UploadPhoto(c.Request.Context(), userID, contentType, data)
	if err != nil {
		respondError(c, err, "failed to upload photo")
		return
	}

	c.JSON(http.StatusCreated, updated)
}

// DeletePhoto handles DELETE /profile/me/photos
// @Summary Delete photo
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body DeletePhotoRequest true "Photo URL"
// @Success 200 {object} domain.Profile
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profile/me/photos [delete]
func (h *ProfileHandler) DeletePhoto(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req DeletePhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updated, err := h.profileUseCase.DeletePhoto(c.Request.Context(), userID, req.URL)
	if err != nil {
		respondError(c, err, "failed to delete photo")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// GenerateBio handles POST /profile/generate-bio
// @Summary Generate bio with AI
// @Description Suggest bios from the profile's tags
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string][]string
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile/generate-bio [post]
func (h *ProfileHandler) GenerateBio(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	bios, err := h.profileUseCase.GenerateBio(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to generate bio")
		return
	}

	c.JSON(http.StatusOK, gin.H{"bios": bios})
}
