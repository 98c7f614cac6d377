package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/swipe"
)

type SwipeHandler struct {
	swipeUseCase *swipe.SwipeUseCase
}

func NewSwipeHandler(swipeUseCase *swipe.SwipeUseCase) *SwipeHandler {
	return &SwipeHandler{
		swipeUseCase: swipeUseCase,
	}
}

// CreateSwipe handles POST /swipes
// @Summary Swipe on a ride
// @Description Record like, pass or super. A like opens a match with the rider.
// @Tags swipes
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body swipe.SwipeRequest true "Swipe data"
// @Success 200 {object} swipe.SwipeResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /swipes [post]
func (h *SwipeHandler) CreateSwipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req swipe.SwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.swipeUseCase.RecordSwipe(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "failed to record swipe")
		return
	}

	c.JSON(http.StatusOK, result)
}
