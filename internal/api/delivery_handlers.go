package api

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/Harish222600/sonica-backend/internal/api/middleware"
	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/delivery"
)

func (h *Handlers) listPartnerDeliveries(c *gin.Context) {
	page, limit := pageParams(c)
	deliveries, total, err := h.deliveries.ListMine(middleware.Principal(c).ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, toDeliveryViews(deliveries), newPagination(page, limit, total))
}

func (h *Handlers) getDelivery(c *gin.Context) {
	d, err := h.deliveries.Get(middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toDeliveryView(d))
}

type deliveryStatusRequest struct {
	Status            string `json:"status" binding:"required"`
	Note              string `json:"note"`
	Location          string `json:"location"`
	FailureReason     string `json:"failure_reason"`
	CustomerSignature string `json:"customer_signature"`
	ProofOfDelivery   string `json:"proof_of_delivery"`
}

func (h *Handlers) updateDeliveryStatus(c *gin.Context) {
	var req deliveryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	d, err := h.deliveries.SetStatus(middleware.Principal(c), c.Param("id"), delivery.UpdateInput{
		Status:            domain.DeliveryStatus(req.Status),
		Note:              req.Note,
		Location:          req.Location,
		FailureReason:     req.FailureReason,
		CustomerSignature: req.CustomerSignature,
		ProofOfDelivery:   req.ProofOfDelivery,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toDeliveryView(d))
}

type confirmDeliveryRequest struct {
	CustomerSignature string `json:"customer_signature"`
	ProofOfDelivery   string `json:"proof_of_delivery"`
	Note              string `json:"note"`
}

// confirmDeliveryHandover — терминальное подтверждение вручения курьером.
func (h *Handlers) confirmDeliveryHandover(c *gin.Context) {
	// Тело не обязательно: подтверждение без подписи тоже валидно.
	var req confirmDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil && err != io.EOF {
		respondBadRequest(c, err.Error())
		return
	}

	d, err := h.deliveries.Confirm(middleware.Principal(c), c.Param("id"), delivery.ConfirmInput{
		CustomerSignature: req.CustomerSignature,
		ProofOfDelivery:   req.ProofOfDelivery,
		Note:              req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toDeliveryView(d))
}

// uploadDeliveryProof принимает файл подтверждения вручения как сырое тело запроса.
func (h *Handlers) uploadDeliveryProof(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil || len(data) == 0 {
		respondBadRequest(c, "empty upload body")
		return
	}

	d, err := h.deliveries.UploadProof(middleware.Principal(c), c.Param("id"), data, c.ContentType())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toDeliveryView(d))
}
