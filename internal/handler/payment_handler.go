package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/neolms-api/internal/models"
	appErrors "github.com/noah-isme/neolms-api/pkg/errors"
	"github.com/noah-isme/neolms-api/pkg/response"
)

// maxWebhookBytes mirrors the payload cap recommended by the payment provider.
const maxWebhookBytes = 65536

type paymentService interface {
	Checkout(ctx context.Context, userID string, req models.CheckoutRequest) (*models.CheckoutResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// PaymentHandler starts checkouts and ingests provider webhooks.
type PaymentHandler struct {
	service paymentService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(svc paymentService) *PaymentHandler {
	return &PaymentHandler{service: svc}
}

// Checkout godoc
// @Summary Start checkout for a course
// @Description Returns a hosted checkout URL, or alreadyEnrolled when the caller owns the course
// @Tags Payments
// @Accept json
// @Produce json
// @Param payload body models.CheckoutRequest true "Course to buy"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /stripe/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req models.CheckoutRequest
	if !bindJSON(c, &req, "invalid checkout payload") {
		return
	}
	result, err := h.service.Checkout(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.AlreadyEnrolled {
		response.OK(c, "You are already enrolled in this course", result)
		return
	}
	response.OK(c, "Checkout session created", result)
}

// Webhook godoc
// @Summary Payment provider webhook
// @Description Verifies the Stripe-Signature header and applies checkout events. Acknowledges every verified event.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /webhooks/stripe [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)
	payload, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusRequestEntityTooLarge, "Webhook payload too large"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, http.StatusBadRequest, "Failed to read webhook payload"))
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Webhook received", gin.H{"received": true})
}
