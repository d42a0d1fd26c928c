package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Harish222600/sonica-backend/internal/api/middleware"
	"github.com/Harish222600/sonica-backend/internal/domain"
)

type checkoutRequest struct {
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

func (h *Handlers) checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.Checkout(middleware.Principal(c).ID, req.ShippingAddress)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toOrderView(order))
}

func (h *Handlers) listMyOrders(c *gin.Context) {
	page, limit := pageParams(c)
	orders, total, err := h.orders.ListMine(middleware.Principal(c).ID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, toOrderViews(orders), newPagination(page, limit, total))
}

func (h *Handlers) getOrder(c *gin.Context) {
	order, err := h.orders.Get(middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderView(order))
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) cancelOrder(c *gin.Context) {
	var req cancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if req.Reason == "" {
		req.Reason = "cancelled by customer"
	}

	order, err := h.orders.Cancel(middleware.Principal(c), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderView(order))
}

func (h *Handlers) confirmDelivery(c *gin.Context) {
	order, err := h.deliveries.ConfirmReceipt(middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderView(order))
}

func (h *Handlers) getOrderDelivery(c *gin.Context) {
	delivery, err := h.deliveries.GetByOrder(middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toDeliveryView(delivery))
}

func (h *Handlers) listAllOrders(c *gin.Context) {
	page, limit := pageParams(c)
	status := domain.OrderStatus(c.Query("status"))

	orders, total, err := h.orders.ListAll(middleware.Principal(c), status, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, toOrderViews(orders), newPagination(page, limit, total))
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (h *Handlers) updateOrderStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.UpdateStatus(middleware.Principal(c), c.Param("id"), domain.OrderStatus(req.Status), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toOrderView(order))
}

type assignDeliveryRequest struct {
	PartnerID     string     `json:"partner_id" binding:"required"`
	PickupAddress string     `json:"pickup_address"`
	EstimatedDate *time.Time `json:"estimated_date"`
}

func (h *Handlers) assignDelivery(c *gin.Context) {
	var req assignDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	estimated := time.Time{}
	if req.EstimatedDate != nil {
		estimated = *req.EstimatedDate
	}

	delivery, err := h.orders.AssignDelivery(middleware.Principal(c), c.Param("id"), req.PartnerID, req.PickupAddress, estimated)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toDeliveryView(delivery))
}

func (h *Handlers) analyticsSummary(c *gin.Context) {
	summary, err := h.orders.Summary(middleware.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toSummaryView(summary))
}
