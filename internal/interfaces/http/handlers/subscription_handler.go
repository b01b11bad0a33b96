package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"lumikid.backend/internal/domain/entities"
	domainerrors "lumikid.backend/internal/domain/errors"
	"lumikid.backend/internal/interfaces/http/middleware"
	"lumikid.backend/internal/interfaces/http/response"
	"lumikid.backend/internal/usecases"
)

// SubscriptionHandler handles subscription and checkout endpoints
type SubscriptionHandler struct {
	subscriptionUsecase *usecases.SubscriptionUsecase
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(subscriptionUsecase *usecases.SubscriptionUsecase) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionUsecase: subscriptionUsecase}
}

// Purchase opens a checkout session for a paid plan
// POST /api/v1/payment/purchase
func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	var input entities.PurchaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}

	session, err := h.subscriptionUsecase.CreateCheckout(c.Request.Context(), accountID, &input)
	if err != nil {
		if errors.Is(err, domainerrors.ErrBadRequest) {
			response.Error(c, domainerrors.BadRequest("Free plan cannot be purchased"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	})
}

// Cancel downgrades the account's subscription to Free
// POST /api/v1/payment/cancel
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.subscriptionUsecase.Cancel(c.Request.Context(), accountID); err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			response.Error(c, domainerrors.NotFound("No subscription found"))
			return
		}
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "Subscription canceled",
	})
}

// GetSubscription returns the account's current subscription
// GET /api/v1/payment/subscription
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Authentication required"))
		return
	}

	sub, err := h.subscriptionUsecase.GetCurrent(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if sub == nil {
		response.Error(c, domainerrors.NotFound("No subscription found"))
		return
	}

	response.Success(c, http.StatusOK, sub)
}
