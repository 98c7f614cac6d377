package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/ride"
)

type RideHandler struct {
	rideUseCase *ride.RideUseCase
}

func NewRideHandler(rideUseCase *ride.RideUseCase) *RideHandler {
	return &RideHandler{
		rideUseCase: rideUseCase,
	}
}

// CreateRide handles POST /rides
// @Summary Offer a ride
// @Description Publish a ride offer. The rider must be KYC verified.
// @Tags rides
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ride.CreateRideRequest true "Ride offer"
// @Success 201 {object} domain.Ride
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /rides [post]
func (h *RideHandler) CreateRide(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ride.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	created, err := h.rideUseCase.CreateRide(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, "failed to create ride")
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetRide handles GET /rides/:id
// @Summary Get ride
// @Tags rides
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} domain.Ride
// @Failure 404 {object} ErrorResponse
// @Router /rides/{id} [get]
func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, ok := pathID(c, "id", domain.ErrRideNotFound)
	if !ok {
		return
	}

	r, err := h.rideUseCase.GetRide(c.Request.Context(), rideID)
	if err != nil {
		respondError(c, err, "failed to get ride")
		return
	}

	c.JSON(http.StatusOK, r)
}

// ListMyRides handles GET /rides/mine
// @Summary List my rides
// @Tags rides
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} domain.Ride
// @Router /rides/mine [get]
func (h *RideHandler) ListMyRides(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	limit, offset := pagination(c)
	rides, err := h.rideUseCase.ListMyRides(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err, "failed to list rides")
		return
	}

	c.JSON(http.StatusOK, rides)
}

// UpdateStatus handles PATCH /rides/:id/status
// @Summary Update ride status
// @Description Move the ride to in_progress, completed or cancelled
// @Tags rides
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Ride ID"
// @Param request body ride.UpdateStatusRequest true "New status"
// @Success 200 {object} domain.Ride
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rides/{id}/status [patch]
func (h *RideHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req ride.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	rideID, ok := pathID(c, "id", domain.ErrRideNotFound)
	if !ok {
		return
	}

	updated, err := h.rideUseCase.UpdateRideStatus(c.Request.Context(), userID, rideID, &req)
	if err != nil {
		respondError(c, err, "failed to update ride")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// CancelRide handles POST /rides/:id/cancel
// @Summary Cancel ride
// @Tags rides
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} domain.Ride
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /rides/{id}/cancel [post]
func (h *RideHandler) CancelRide(c *gin.Context) {
	h.transition(c, h.rideUseCase.CancelRide, "failed to cancel ride")
}

// StartRide handles POST /rides/:id/start
// @Summary Start ride
// @Tags rides
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} domain.Ride
// @Failure 409 {object} ErrorResponse
// @Router /rides/{id}/start [post]
func (h *RideHandler) StartRide(c *gin.Context) {
	h.transition(c, h.rideUseCase.StartRide, "failed to start ride")
}

// CompleteRide handles POST /rides/:id/complete
// @Summary Complete ride
// @Tags rides
// @Security BearerAuth
// @Produce json
// @Param id path string true "Ride ID"
// @Success 200 {object} domain.Ride
// @Failure 409 {object} ErrorResponse
// @Router /rides/{id}/complete [post]
func (h *RideHandler) CompleteRide(c *gin.Context) {
	h.transition(c, h.rideUseCase.CompleteRide, "failed to complete ride")
}

type rideTransition func(ctx context.Context, riderID, rideID string) (*domain.Ride, error)

func (h *RideHandler) transition(c *gin.Context, fn rideTransition, fallback string) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	rideID, ok := pathID(c, "id", domain.ErrRideNotFound)
	if !ok {
		return
	}

	updated, err := fn(c.Request.Context(), userID, rideID)
	if err != nil {
		respondError(c, err, fallback)
		return
	}

	c.JSON(http.StatusOK, updated)
}
