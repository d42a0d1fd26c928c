package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

// Response — единый конверт ответа API.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// Pagination описывает страницу списочной выдачи.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// newPagination считает число страниц; limit <= 0 означает одну страницу.
func newPagination(page, limit, total int) Pagination {
	if page <= 0 {
		page = 1
	}
	pages := 1
	if limit > 0 {
		pages = (total + limit - 1) / limit
		if pages == 0 {
			pages = 1
		}
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message})
}

func respondPage(c *gin.Context, items any, pagination Pagination) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"items":      items,
			"pagination": pagination,
		},
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Message: message})
}

// respondError переводит доменную ошибку в HTTP-статус.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case domain.IsNotFound(err):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrVersionConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyPaid),
		errors.Is(err, domain.ErrDuplicateReview),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrSignatureMismatch),
		errors.Is(err, domain.ErrQtyInvalid),
		errors.Is(err, domain.ErrCartEmpty),
		errors.Is(err, domain.ErrCategoryInvalid),
		errors.Is(err, domain.ErrMovementTypeInvalid),
		errors.Is(err, domain.ErrRatingOutOfRange),
		errors.Is(err, domain.ErrReviewNotEligible),
		errors.Is(err, domain.ErrPartnerNotAssigned),
		errors.Is(err, domain.ErrShippingAddressRequired),
		errors.Is(err, domain.ErrPriceNegative),
		errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrAmountMismatch),
		errors.Is(err, domain.ErrUserIDRequired),
		errors.Is(err, domain.ErrProductIDRequired),
		errors.Is(err, domain.ErrProductNameRequired):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("internal error")
		c.JSON(status, Response{Success: false, Message: "internal error"})
		return
	}

	c.JSON(status, Response{Success: false, Message: err.Error()})
}
