package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/kyc"
)

type KYCHandler struct {
	kycUseCase  *kyc.KYCUseCase
	maxDocBytes int64
}

func NewKYCHandler(kycUseCase *kyc.KYCUseCase, maxDocBytes int64) *KYCHandler {
	return &KYCHandler{
		kycUseCase:  kycUseCase,
		maxDocBytes: maxDocBytes,
	}
}

// SubmitDocument handles POST /kyc/document
// @Summary Submit identity document
// @Description Upload the rider's identity document and move KYC to pending
// @Tags kyc
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param document formData file true "Document image"
// @Success 200 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Router /kyc/document [post]
func (h *KYCHandler) SubmitDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	contentType, data, err := readUpload(c, "document", h.maxDocBytes)
	if err != nil {
		respondError(c, err, "failed to read upload")
		return
	}

	user, err := h.kycUseCase.SubmitDocument(c.Request.Context(), userID, contentType, data)
	if err != nil {
		respondError(c, err, "failed to submit document")
		return
	}

	c.JSON(http.StatusOK, user)
}

// Review handles POST /internal/kyc/:user_id/review
// Called by the back-office review tool with the service token.
func (h *KYCHandler) Review(c *gin.Context) {
	var req kyc.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	targetID, ok := pathID(c, "user_id", domain.ErrUserNotFound)
	if !ok {
		return
	}

	user, err := h.kycUseCase.Review(c.Request.Context(), targetID, &req)
	if err != nil {
		respondError(c, err, "failed to review document")
		return
	}

	c.JSON(http.StatusOK, user)
}
