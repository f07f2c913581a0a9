package router // HTTP route registration

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/classroom-booking/internal/handler"
	"github.com/iliyamo/classroom-booking/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check, used by load balancers and
// monitoring to verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints under /v1/auth.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// RegisterBrowse registers the public, cache-backed read paths.
// Availability and the session list carry no per-student data, so they
// sit outside the authenticated group.
func RegisterBrowse(e *echo.Echo, b *handler.BrowseHandler) {
	g := e.Group("/v1")
	g.GET("/availability", b.GetAvailability)
	g.GET("/sessions", b.ListSessions)
}

// RegisterReservations registers the reservation write endpoints and
// per-student read endpoints behind JWT authentication.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, b *handler.BillingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))

	g.POST("/reservations", r.Create)
	g.GET("/reservations/:id", r.Get)
	g.PATCH("/reservations/:id", r.Update)
	g.DELETE("/reservations/:id", r.Cancel)
	g.POST("/reservations/:id/confirm", r.Confirm)
	g.POST("/reservations/:id/complete", r.Complete)
	g.GET("/my-reservations", r.ListMine)
	g.GET("/billing", b.List)
}
