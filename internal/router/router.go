// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/studio-class-booking/internal/config"
	"github.com/iliyamo/studio-class-booking/internal/handler"
	"github.com/iliyamo/studio-class-booking/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication: the
// health check and the checkout webhook, which authenticates with its
// own shared secret header.
func RegisterRoutes(e *echo.Echo, w *handler.WebhookHandler) {
	e.GET("/healthz", handler.Health)
	e.POST("/v1/webhooks/checkout", w.Checkout)
}

// RegisterAuth registers signup/login/refresh/logout under /v1/auth and
// the authenticated profile endpoint under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Issues a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout works with a refresh token in the body, no JWT needed.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	// With a bearer token and no body, logout revokes every session.
	auth.POST("/logout", a.Logout)
}

// RegisterPublic registers the guest-browsable schedule and package
// catalogue. Responses are cached in Redis when available.
func RegisterPublic(e *echo.Echo, s *handler.ScheduleHandler, p *handler.PackageHandler, rdb *redis.Client) {
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/classes", s.List, cache)
	e.GET("/v1/classes/:id", s.Get, cache)
	e.GET("/v1/packages", p.List, cache)
}

// RegisterBooking registers the member booking lifecycle. The booking
// mutation routes sit behind the token bucket limiter.
func RegisterBooking(e *echo.Echo, b *handler.BookingHandler, p *handler.PackageHandler, jwtSecret string, rdb *redis.Client) {
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleMember, middleware.RoleAdmin))

	g.POST("/classes/:id/bookings", b.Create, limiter)
	g.DELETE("/bookings/:id", b.Cancel, limiter)
	g.GET("/my-bookings", b.ListMine)
	g.GET("/my-purchases", p.MyPurchases)
}

// RegisterAdmin registers class and package administration under
// /v1/admin, restricted to the ADMIN role.
func RegisterAdmin(e *echo.Echo, cls *handler.AdminClassHandler, parts *handler.AdminParticipantHandler, pkg *handler.PackageHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(middleware.RoleAdmin))

	g.POST("/classes", cls.Create)
	g.PUT("/classes/:id", cls.Update)
	g.DELETE("/classes/:id", cls.Cancel)
	g.GET("/classes/:id/roster", cls.Roster)

	g.POST("/classes/:id/participants", parts.Add)
	g.DELETE("/classes/:id/participants/:booking_id", parts.Remove)
	g.POST("/classes/:id/complete", parts.Complete)

	g.POST("/packages", pkg.Create)
	g.DELETE("/packages/:id", pkg.Deactivate)
}
