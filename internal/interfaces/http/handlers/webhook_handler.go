package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/interfaces/http/response"
	"lumikid.backend/internal/usecases"
)

// SignatureHeader carries the provider's webhook signature.
const SignatureHeader = "Stripe-Signature"

// maxWebhookBody bounds how much payload we will read from the provider.
const maxWebhookBody = 1 << 20

// WebhookHandler receives payment provider webhooks
type WebhookHandler struct {
	webhookUsecase *usecases.WebhookUsecase
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(webhookUsecase *usecases.WebhookUsecase) *WebhookHandler {
	return &WebhookHandler{webhookUsecase: webhookUsecase}
}

// HandleWebhook verifies and applies one provider event
// POST /api/v1/payment/webhook
func (h *WebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("Unable to read request body"))
		return
	}

	sigHeader := c.GetHeader(SignatureHeader)
	if err := h.webhookUsecase.HandleEvent(c.Request.Context(), payload, sigHeader); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}
