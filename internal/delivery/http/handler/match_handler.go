package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/match"
)

type MatchHandler struct {
	matchUseCase *match.MatchUseCase
}

func NewMatchHandler(matchUseCase *match.MatchUseCase) *MatchHandler {
	return &MatchHandler{
		matchUseCase: matchUseCase,
	}
}

// ListMatches handles GET /matches
// @Summary List my matches
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} match.MatchView
// @Router /matches [get]
func (h *MatchHandler) ListMatches(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	matches, err := h.matchUseCase.ListMatches(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err, "failed to list matches")
		return
	}

	c.JSON(http.StatusOK, matches)
}

// GetMatch handles GET /matches/:id
// @Summary Get match
// @Tags matches
// @Security BearerAuth
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} match.MatchView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /matches/{id} [get]
func (h *MatchHandler) GetMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	matchID, ok := pathID(c, "id", domain.ErrMatchNotFound)
	if !ok {
		return
	}

	m, err := h.matchUseCase.GetMatch(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err, "failed to get match")
		return
	}

	c.JSON(http.StatusOK, m)
}

// RespondToMatch handles POST /matches/:id/respond
// @Summary Accept or decline a match
// @Description The rider answers a pending match. Accepting declines the other pending matches of the ride.
// @Tags matches
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Match ID"
// @Param request body match.RespondRequest true "Answer"
// @Success 200 {object} domain.Match
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /matches/{id}/respond [post]
func (h *MatchHandler) RespondToMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req match.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	matchID, ok := pathID(c, "id", domain.ErrMatchNotFound)
	if !ok {
		return
	}

	m, err := h.matchUseCase.RespondToMatch(c.Request.Context(), userID, matchID, &req)
	if err != nil {
		respondError(c, err, "failed to respond to match")
		return
	}

	c.JSON(http.StatusOK, m)
}
