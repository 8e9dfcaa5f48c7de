package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/arenatix/ticketing/internal/config"
	"github.com/arenatix/ticketing/internal/handler"
	"github.com/arenatix/ticketing/internal/middleware"
)

// RegisterPublic registers the unauthenticated surface: health check, the
// storefront tier listing, checkout and the payment confirmation callback.
func RegisterPublic(e *echo.Echo, h *handler.CheckoutHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/v1/tiers", h.ListTiers)
	e.POST("/v1/checkout", h.Checkout)
	e.POST("/v1/payments/confirm", h.ConfirmPayment)
}

// RegisterRedemption registers the door-scan endpoint behind the Redis
// rate limiter. The route shape is part of the scanner contract:
// POST /tickets/use/{transactionId}/{ticketNumber}.
func RegisterRedemption(e *echo.Echo, h *handler.RedemptionHandler, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	e.POST("/tickets/use/:transactionId/:ticketNumber", h.Use, middleware.RateLimit(rlCfg, rdb))
}

// RegisterAdmin registers tier and flash-sale CRUD under /v1/admin. Every
// route requires a bearer token with the admin role; token issuance is the
// external auth service's job.
func RegisterAdmin(e *echo.Echo, tiers *handler.AdminTierHandler, sales *handler.AdminSaleHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.AdminAuth(jwtSecret))

	g.GET("/tiers", tiers.List)
	g.POST("/tiers", tiers.Create)
	g.PATCH("/tiers/:id", tiers.Update)
	g.POST("/tiers/:id/adjust", tiers.AdjustCapacity)

	g.GET("/flash-sales", sales.List)
	g.POST("/flash-sales", sales.Create)
	g.PATCH("/flash-sales/:id", sales.Update)
	g.DELETE("/flash-sales/:id", sales.Delete)
	g.POST("/flash-sales/:id/activate", sales.Activate)
	g.POST("/flash-sales/:id/deactivate", sales.Deactivate)
}
