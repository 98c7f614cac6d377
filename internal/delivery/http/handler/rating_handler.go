package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/rating"
)

type RatingHandler struct {
	ratingUseCase *rating.RatingUseCase
}

func NewRatingHandler(ratingUseCase *rating.RatingUseCase) *RatingHandler {
	return &RatingHandler{
		ratingUseCase: ratingUseCase,
	}
}

// SubmitRating handles POST /matches/:id/ratings
// @Summary Rate a completed match
// @Description Rate the other participant as a date or a ride. A mutual date waives the fare; a seeker rating otherwise opens the payment.
// @Tags ratings
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param request body rating.SubmitRatingRequest true "Rating"
// @Success 200 {object} rating.RatingResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /matches/{id}/ratings [post]
func (h *RatingHandler) SubmitRating(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req rating.SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	matchID, ok := pathID(c, "id", domain.ErrMatchNotFound)
	if !ok {
		return
	}

	result, err := h.ratingUseCase.SubmitRating(c.Request.Context(), userID, matchID, &req)
	if err != nil {
		respondError(c, err, "failed to submit rating")
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListRatings handles GET /matches/:id/ratings
// @Summary List match ratings
// @Tags ratings
// @Security BearerAuth
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {array} domain.Rating
// @Failure 403 {object} ErrorResponse
// @Router /matches/{id}/ratings [get]
func (h *RatingHandler) ListRatings(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	matchID, ok := pathID(c, "id", domain.ErrMatchNotFound)
	if !ok {
		return
	}

	ratings, err := h.ratingUseCase.GetRatings(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err, "failed to list ratings")
		return
	}

	c.JSON(http.StatusOK, ratings)
}
