package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Harish222600/sonica-backend/internal/api/middleware"
	"github.com/Harish222600/sonica-backend/internal/domain"
	"github.com/Harish222600/sonica-backend/internal/health"
	"github.com/Harish222600/sonica-backend/internal/service/delivery"
	"github.com/Harish222600/sonica-backend/internal/service/inventory"
	"github.com/Harish222600/sonica-backend/internal/service/order"
	"github.com/Harish222600/sonica-backend/internal/service/review"
)

// Handlers связывает HTTP-слой с сервисами.
type Handlers struct {
	orders     *order.Service
	deliveries *delivery.Service
	reviews    *review.Service
	inventory  *inventory.Service
	health     *health.Handler
}

// Deps перечисляет зависимости HTTP-слоя.
type Deps struct {
	Orders     *order.Service
	Deliveries *delivery.Service
	Reviews    *review.Service
	Inventory  *inventory.Service
	Health     *health.Handler
}

// NewHandlers создаёт HTTP-обработчики.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		orders:     deps.Orders,
		deliveries: deps.Deliveries,
		reviews:    deps.Reviews,
		inventory:  deps.Inventory,
		health:     deps.Health,
	}
}

// NewRouter собирает gin-маршрутизатор со всеми эндпоинтами API.
func NewRouter(h *Handlers, jwtSecret string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Prometheus())

	router.GET("/healthz", h.healthz)
	router.GET("/livez", h.livez)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")

	// Публичный каталог и отзывы.
	v1.GET("/products", h.listProducts)
	v1.GET("/products/:id", h.getProduct)
	v1.GET("/products/:id/reviews", h.listProductReviews)

	// Webhook платёжного шлюза аутентифицируется подписью тела, не токеном.
	v1.POST("/payments/webhook", h.paymentWebhook)

	auth := v1.Group("")
	auth.Use(middleware.Auth(jwtSecret))

	auth.GET("/cart", h.getCart)
	auth.POST("/cart/items", h.addCartItem)
	auth.PUT("/cart/items/:productId", h.updateCartItem)
	auth.DELETE("/cart/items/:productId", h.removeCartItem)
	auth.DELETE("/cart", h.clearCart)

	auth.POST("/orders", h.checkout)
	auth.GET("/orders", h.listMyOrders)
	auth.GET("/orders/:id", h.getOrder)
	auth.POST("/orders/:id/cancel", h.cancelOrder)
	auth.POST("/orders/:id/confirm", h.confirmDelivery)
	auth.GET("/orders/:id/delivery", h.getOrderDelivery)

	auth.POST("/payments/intent", h.createPaymentIntent)
	auth.POST("/payments/verify", h.verifyPayment)

	auth.POST("/reviews/product", h.createProductReview)
	auth.POST("/reviews/delivery", h.createDeliveryReview)
	auth.PUT("/reviews/:id", h.updateReview)
	auth.DELETE("/reviews/:id", h.deleteReview)

	partner := auth.Group("/partner")
	partner.Use(middleware.RequireRole(domain.RoleDeliveryPartner, domain.RoleAdmin))
	partner.GET("/deliveries", h.listPartnerDeliveries)
	partner.GET("/deliveries/:id", h.getDelivery)
	partner.PUT("/deliveries/:id/status", h.updateDeliveryStatus)
	partner.POST("/deliveries/:id/confirm", h.confirmDeliveryHandover)
	partner.POST("/deliveries/:id/proof", h.uploadDeliveryProof)

	staff := auth.Group("/admin")
	staff.Use(middleware.RequireRole(domain.RoleAdmin, domain.RoleInventoryManager))
	staff.GET("/products", h.listAllProducts)
	staff.POST("/products", h.createProduct)
	staff.PUT("/products/:id", h.updateProduct)
	staff.DELETE("/products/:id", h.deleteProduct)
	staff.POST("/products/:id/stock/add", h.addStock)
	staff.POST("/products/:id/stock/remove", h.removeStock)
	staff.POST("/products/:id/stock/adjust", h.adjustStock)
	staff.GET("/products/:id/movements", h.listMovements)
	staff.GET("/inventory/low-stock", h.listLowStock)

	admin := auth.Group("/admin")
	admin.Use(middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/orders", h.listAllOrders)
	admin.PUT("/orders/:id/status", h.updateOrderStatus)
	admin.POST("/orders/:id/delivery", h.assignDelivery)
	admin.PUT("/reviews/:id/moderate", h.moderateReview)
	admin.GET("/analytics/summary", h.analyticsSummary)

	return router
}
