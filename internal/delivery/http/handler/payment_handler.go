package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gdugdh24/rider-seeker-backend/internal/domain"
	"github.com/gdugdh24/rider-seeker-backend/internal/usecase/payment"
)

// maxWebhookBytes bounds the webhook body. Stripe events are far smaller.
const maxWebhookBytes = 64 << 10

type PaymentHandler struct {
	paymentUseCase *payment.PaymentUseCase
}

func NewPaymentHandler(paymentUseCase *payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{
		paymentUseCase: paymentUseCase,
	}
}

// GetFare handles GET /matches/:id/fare
// @Summary Fare quote
// @Description Fare, platform fee and total for a match
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} domain.Fare
// @Failure 403 {object} ErrorResponse
// @Router /matches/{id}/fare [get]
func (h *PaymentHandler) GetFare(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	matchID, ok := pathID(c, "id", domain.ErrMatchNotFound)
	if !ok {
		return
	}

	fare, err := h.paymentUseCase.Quote(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err, "failed to quote fare")
		return
	}

	c.JSON(http.StatusOK, fare)
}

// CreatePaymentIntent handles POST /matches/:id/payment-intent
// @Summary Open payment
// @Description Create or resume the seeker's payment for a completed match
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} domain.PaymentIntent
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /matches/{id}/payment-intent [post]
func (h *PaymentHandler) CreatePaymentIntent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	matchID, ok := pathID(c, "id", domain.ErrMatchNotFound)
	if !ok {
		return
	}

	intent, err := h.paymentUseCase.CreatePaymentIntent(c.Request.Context(), userID, matchID)
	if err != nil {
		respondError(c, err, "failed to create payment")
		return
	}

	c.JSON(http.StatusOK, intent)
}

// GetPayment handles GET /payments/:id
// @Summary Get payment
// @Tags payments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Payment ID"
// @Success 200 {object} domain.Payment
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	paymentID, ok := pathID(c, "id", domain.ErrPaymentNotFound)
	if !ok {
		return
	}

	p, err := h.paymentUseCase.GetPayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		respondError(c, err, "failed to get payment")
		return
	}

	c.JSON(http.StatusOK, p)
}

// ConfirmPayment handles POST /payments/:id/confirm
// @Summary Confirm payment
// @Description Confirm the payment with a payment method
// @Tags payments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Payment ID"
// @Param request body payment.ConfirmRequest true "Payment method"
// @Success 200 {object} domain.Payment
// @Failure 402 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /payments/{id}/confirm [post]
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req payment.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	paymentID, ok := pathID(c, "id", domain.ErrPaymentNotFound)
	if !ok {
		return
	}

	p, err := h.paymentUseCase.ConfirmPayment(c.Request.Context(), userID, paymentID, &req)
	if err != nil {
		respondError(c, err, "failed to confirm payment")
		return
	}

	c.JSON(http.StatusOK, p)
}

// StripeWebhook handles POST /webhooks/stripe
// The signature is checked against the raw body, so the body must not be
// bound or re-encoded before it reaches the usecase.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		badRequest(c, "failed to read body")
		return
	}

	if err := h.paymentUseCase.HandleProviderEvent(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err, "failed to handle event")
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
