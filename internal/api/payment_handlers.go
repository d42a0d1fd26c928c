package api

import (
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/Harish222600/sonica-backend/internal/api/middleware"
	"github.com/Harish222600/sonica-backend/internal/service/order"
)

type paymentIntentRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

func (h *Handlers) createPaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	intent, err := h.orders.CreatePaymentIntent(middleware.Principal(c), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, gin.H{
		"intent_id":    intent.IntentID,
		"amount_minor": intent.AmountMinor,
		"currency":     intent.Currency,
	})
}

type verifyPaymentRequest struct {
	OrderID   string `json:"order_id" binding:"required"`
	PaymentID string `json:"payment_id" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Method    string `json:"method"`
}

func (h *Handlers) verifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	updated, err := h.orders.VerifyPayment(middleware.Principal(c), req.OrderID, req.PaymentID, req.Signature, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderView(updated))
}

// paymentWebhook принимает уведомление шлюза. Подпись считается от сырого
// тела, поэтому оно читается до разбора JSON.
func (h *Handlers) paymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBadRequest(c, "failed to read request body")
		return
	}

	var event order.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		respondBadRequest(c, "malformed webhook payload")
		return
	}

	updated, err := h.orders.HandlePaymentWebhook(body, c.GetHeader("X-Webhook-Signature"), event)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order_id": updated.ID, "status": string(updated.Status)})
}
