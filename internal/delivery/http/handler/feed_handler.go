package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/feed"
)

type FeedHandler struct {
	feedUseCase *feed.FeedUseCase
}

func NewFeedHandler(feedUseCase *feed.FeedUseCase) *FeedHandler {
	return &FeedHandler{
		feedUseCase: feedUseCase,
	}
}

// GetNearbyRides handles GET /feed/nearby
// @Summary Nearby rides
// @Description Available rides around a point, nearest first
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Search radius in km"
// @Param exclude_swiped query bool false "Hide rides already swiped"
// @Success 200 {array} feed.NearbyRide
// @Failure 400 {object} ErrorResponse
// @Router /feed/nearby [get]
func (h *FeedHandler) GetNearbyRides(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var q feed.NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	rides, err := h.feedUseCase.GetNearbyRides(c.Request.Context(), userID, &q)
	if err != nil {
		respondError(c, err, "failed to get nearby rides")
		return
	}

	c.JSON(http.StatusOK, rides)
}

// GetNextRide handles GET /feed/next
// @Summary Next ride card
// @Description Nearest ride the seeker has not swiped yet. 204 when the feed is empty.
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Param lat query number true "Latitude"
// @Param lon query number true "Longitude"
// @Param radius_km query number false "Search radius in km"
// @Success 200 {object} feed.NearbyRide
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Router /feed/next [get]
func (h *FeedHandler) GetNextRide(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var q feed.NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, "invalid query parameters")
		return
	}

	next, err := h.feedUseCase.GetNextRide(c.Request.Context(), userID, &q)
	if err != nil {
		respondError(c, err, "failed to get next ride")
		return
	}
	if next == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, next)
}

// ResetPasses handles POST /feed/reset-passes
// @Summary Reset passes
// @Description Bring passed rides back into the feed
// @Tags feed
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 403 {object} ErrorResponse
// @Router /feed/reset-passes [post]
func (h *FeedHandler) ResetPasses(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	n, err := h.feedUseCase.ResetPasses(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "failed to reset passes")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": n})
}
