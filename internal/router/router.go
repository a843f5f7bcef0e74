// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/openclub/court-reservation/internal/handler"
	"github.com/openclub/court-reservation/internal/middleware"
	"github.com/openclub/court-reservation/internal/model"
)

// RegisterRoutes registers routes that do not belong to any feature
// group.  Currently that is only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.
// Unauthenticated operations live under /v1/auth; /v1/me requires a
// valid access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleOwner, model.RoleCustomer))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the guest-facing browse and booking
// endpoints.  No JWT is required: walk-in customers book by name and
// email.  The rate limiter wraps the booking route.
func RegisterPublic(e *echo.Echo, clubs *handler.ClubHandler, courts *handler.CourtHandler,
	slots *handler.SlotHandler, reservations *handler.ReservationHandler,
	rateLimit echo.MiddlewareFunc) {
	e.GET("/v1/clubs/:id", clubs.Get)
	e.GET("/v1/clubs/:id/hours", clubs.GetHours)
	e.GET("/v1/clubs/:id/courts", courts.List)
	e.GET("/v1/clubs/:id/availability", slots.Availability, rateLimit)
	e.POST("/v1/reservations", reservations.Create, rateLimit)
}

// RegisterOwner registers the club management surface.  Every route
// requires an OWNER access token; per-club ownership is verified in
// the handlers.
func RegisterOwner(e *echo.Echo, jwtSecret string, clubs *handler.ClubHandler,
	courts *handler.CourtHandler, slots *handler.SlotHandler,
	reservations *handler.ReservationHandler) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(model.RoleOwner))

	g.POST("/clubs", clubs.Create)
	g.PUT("/clubs/:id/hours", clubs.ReplaceHours)
	g.PUT("/clubs/:id/slot-definition", clubs.SetDefinition)

	g.POST("/clubs/:id/courts", courts.Create)
	g.PATCH("/courts/:id", courts.Update)

	g.POST("/clubs/:id/slots/generate", slots.Generate)

	g.GET("/reservations/:id", reservations.Get)
	g.DELETE("/reservations/:id", reservations.Cancel)
	g.POST("/reservations/:id/pay", reservations.Pay)
	g.GET("/clubs/:id/reservations", reservations.ListByClub)
}
