package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Harish222600/sonica-backend/internal/api/middleware"
)

func (h *Handlers) getCart(c *gin.Context) {
	cart, err := h.orders.GetCart(middleware.Principal(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toCartView(cart))
}

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Qty       int32  `json:"qty" binding:"required"`
}

func (h *Handlers) addCartItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	cart, err := h.orders.AddToCart(middleware.Principal(c).ID, req.ProductID, req.Qty)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toCartView(cart))
}

type cartQtyRequest struct {
	Qty int32 `json:"qty"`
}

func (h *Handlers) updateCartItem(c *gin.Context) {
	var req cartQtyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	cart, err := h.orders.UpdateCartItem(middleware.Principal(c).ID, c.Param("productId"), req.Qty)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toCartView(cart))
}

func (h *Handlers) removeCartItem(c *gin.Context) {
	cart, err := h.orders.RemoveFromCart(middleware.Principal(c).ID, c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toCartView(cart))
}

func (h *Handlers) clearCart(c *gin.Context) {
	if err := h.orders.ClearCart(middleware.Principal(c).ID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "cart cleared")
}
