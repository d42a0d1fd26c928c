package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Harish222600/sonica-backend/internal/api/middleware"
	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/service/inventory"
)

// pageParams читает параметры пагинации запроса; по умолчанию 1/20.
func pageParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func (h *Handlers) listProducts(c *gin.Context) {
	page, limit := pageParams(c)
	filter := domain.ProductFilter{
		Category: domain.Category(c.Query("category")),
		Query:    c.Query("q"),
		Page:     page,
		Limit:    limit,
	}

	products, total, err := h.inventory.ListProducts(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, toProductViews(products), newPagination(page, limit, total))
}

func (h *Handlers) getProduct(c *gin.Context) {
	product, err := h.inventory.GetProduct(middleware.Principal(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toProductView(product))
}

func (h *Handlers) listAllProducts(c *gin.Context) {
	page, limit := pageParams(c)
	filter := domain.ProductFilter{
		Category: domain.Category(c.Query("category")),
		Query:    c.Query("q"),
		Page:     page,
		Limit:    limit,
	}

	products, total, err := h.inventory.ListAllProducts(middleware.Principal(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	respondPage(c, toProductViews(products), newPagination(page, limit, total))
}

type productRequest struct {
	Name               string `json:"name" binding:"required"`
	Description        string `json:"description"`
	Category           string `json:"category" binding:"required"`
	PriceMinor         int64  `json:"price_minor" binding:"required"`
	DiscountPriceMinor int64  `json:"discount_price_minor"`
	InitialStock       int32  `json:"initial_stock"`
	LowStockThreshold  int32  `json:"low_stock_threshold"`
	ImageURL           string `json:"image_url"`
	Active             *bool  `json:"active"`
}

func (r productRequest) toInput() inventory.ProductInput {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return inventory.ProductInput{
		Name:               r.Name,
		Description:        r.Description,
		Category:           domain.Category(r.Category),
		PriceMinor:         r.PriceMinor,
		DiscountPriceMinor: r.DiscountPriceMinor,
		InitialStock:       r.InitialStock,
		LowStockThreshold:  r.LowStockThreshold,
		ImageURL:           r.ImageURL,
		Active:             active,
	}
}

func (h *Handlers) createProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	product, err := h.inventory.CreateProduct(middleware.Principal(c), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, toProductView(product))
}

func (h *Handlers) updateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	product, err := h.inventory.UpdateProduct(middleware.Principal(c), c.Param("id"), req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, toProductView(product))
}

func (h *Handlers) deleteProduct(c *gin.Context) {
	if err := h.inventory.DeleteProduct(middleware.Principal(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "product deactivated")
}

type stockRequest struct {
	Qty    int32  `json:"qty"`
	Reason string `json:"reason"`
}

func (h *Handlers) addStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	product, err := h.inventory.AddStock(middleware.Principal(c), c.Param("id"), req.Qty, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toProductView(product))
}

func (h *Handlers) removeStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	product, err := h.inventory.RemoveStock(middleware.Principal(c), c.Param("id"), req.Qty, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toProductView(product))
}

type adjustRequest struct {
	NewTotal int32  `json:"new_total"`
	Reason   string `json:"reason"`
}

func (h *Handlers) adjustStock(c *gin.Context) {
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	product, err := h.inventory.AdjustStock(middleware.Principal(c), c.Param("id"), req.NewTotal, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toProductView(product))
}

func (h *Handlers) listMovements(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	movements, err := h.inventory.Movements(middleware.Principal(c), c.Param("id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toMovementViews(movements))
}

func (h *Handlers) listLowStock(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	products, err := h.inventory.LowStock(middleware.Principal(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, toProductViews(products))
}
