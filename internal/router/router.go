// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/concert-ticket-reservation/internal/config"
	"github.com/iliyamo/concert-ticket-reservation/internal/handler"
	"github.com/iliyamo/concert-ticket-reservation/internal/middleware"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserHandler
	Events      *handler.EventHandler
	TicketTypes *handler.TicketTypeHandler
	Orders      *handler.OrderHandler
	Payments    *handler.PaymentHandler
	Admin       *handler.AdminHandler
}

// Register mounts all routes.  Public catalog reads go through the Redis
// response cache; everything under /api is rate limited; protected groups
// add JWT and role middleware.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	api := e.Group("/api")
	api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// --- auth ---
	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, middleware.JWTAuth(jwtSecret))

	// --- profile ---
	user := api.Group("/user", middleware.JWTAuth(jwtSecret))
	user.GET("/me", h.Auth.Me)
	user.PUT("/profile", h.Users.UpdateProfile)
	user.PUT("/password", h.Users.ChangePassword)

	// --- public catalog (cached) ---
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	api.GET("/events", h.Events.ListPublished, cache)
	api.GET("/events/:id", h.Events.Get, middleware.OptionalJWT(jwtSecret))
	api.GET("/ticket-types", h.TicketTypes.List, cache)
	api.GET("/ticket-types/:id", h.TicketTypes.Get, cache)

	// --- organizer event management ---
	organizer := api.Group("", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ORGANIZER", "ADMIN"))
	organizer.GET("/events/mine", h.Events.MyEvents)
	organizer.POST("/events", h.Events.Create)
	organizer.PUT("/events/:id", h.Events.Update)
	organizer.DELETE("/events/:id", h.Events.Delete)
	organizer.POST("/ticket-types", h.TicketTypes.Create)
	organizer.PUT("/ticket-types/:id", h.TicketTypes.Update)
	organizer.DELETE("/ticket-types/:id", h.TicketTypes.Delete)

	// --- orders and payments ---
	authed := api.Group("", middleware.JWTAuth(jwtSecret))
	authed.POST("/orders/purchase", h.Orders.Purchase)
	authed.GET("/orders/my-orders", h.Orders.MyOrders)
	authed.POST("/payments/qr", h.Payments.GenerateQR)
	authed.POST("/payments/confirm", h.Payments.Confirm)
	authed.POST("/payments/verify-slip", h.Payments.VerifySlip)
	authed.GET("/payments/slip/:orderID", h.Payments.GetSlip)

	// --- admin ---
	admin := api.Group("/admin", middleware.JWTAuth(jwtSecret), middleware.RequireRole("ADMIN"))
	admin.GET("/users", h.Admin.ListUsers)
	admin.DELETE("/users/:id", h.Admin.DeleteUser)
	admin.GET("/orders", h.Admin.AllOrders)
	admin.POST("/orders/check-expired", h.Admin.CheckExpired)
	admin.DELETE("/events/:id", h.Events.Delete)
}
