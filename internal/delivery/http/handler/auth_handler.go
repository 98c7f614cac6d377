package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/auth"
)

type AuthHandler struct {
	authUseCase *auth.AuthUseCase
}

func NewAuthHandler(authUseCase *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

// SendCode handles POST /auth/send-code
// @Summary Send verification code
// @Description Send a one-time code to the phone number
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.SendCodeRequest true "Phone number"
// @Success 200 {object} auth.SendCodeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/send-code [post]
func (h *AuthHandler) SendCode(c *gin.Context) {
	var req auth.SendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.authUseCase.SendCode(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "failed to send code")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Verify handles POST /auth/verify
// @Summary Verify code
// @Description Sign in with the code. New users must pass a role.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body auth.VerifyRequest true "Verification data"
// @Success 200 {object} auth.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) Verify(c *gin.Context) {
	var req auth.VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.authUseCase.Verify(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "authentication failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Me returns current user info
// @Summary Get current user
// @Description Get authenticated user information
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} domain.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.authUseCase.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to get user")
		return
	}

	c.JSON(http.StatusOK, user)
}
