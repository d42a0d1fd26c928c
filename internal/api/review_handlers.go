package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Harish222600/sonica-backend/internal/api/middleware"
)

func (h *Handlers) listProductReviews(c *gin.Context) {
	page, limit := pageParams(c)
	reviews, total, err := h.reviews.ListByProduct(c.Param("id"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, toReviewViews(reviews), newPagination(page, limit, total))
}

type productReviewRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int32  `json:"rating" binding:"required"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

func (h *Handlers) createProductReview(c *gin.Context) {
	var req productReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	review, err := h.reviews.CreateProductReview(middleware.Principal(c), req.ProductID, req.Rating, req.Title, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toReviewView(review))
}

type deliveryReviewRequest struct {
	OrderID string `json:"order_id" binding:"required"`
	Rating  int32  `json:"rating" binding:"required"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (h *Handlers) createDeliveryReview(c *gin.Context) {
	var req deliveryReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	review, err := h.reviews.CreateDeliveryReview(middleware.Principal(c), req.OrderID, req.Rating, req.Title, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, toReviewView(review))
}

type updateReviewRequest struct {
	Rating  int32  `json:"rating" binding:"required"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (h *Handlers) updateReview(c *gin.Context) {
	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	review, err := h.reviews.Update(middleware.Principal(c), c.Param("id"), req.Rating, req.Title, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReviewView(review))
}

func (h *Handlers) deleteReview(c *gin.Context) {
	if err := h.reviews.Delete(middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "review deleted")
}

type moderateRequest struct {
	Approved *bool `json:"approved" binding:"required"`
}

func (h *Handlers) moderateReview(c *gin.Context) {
	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	review, err := h.reviews.Moderate(middleware.Principal(c), c.Param("id"), *req.Approved)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toReviewView(review))
}
