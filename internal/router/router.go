package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/condortrails/tour-booking-api/internal/handler"    // import the handlers that implement business logic
	"github.com/condortrails/tour-booking-api/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring systems probe this endpoint to
	// verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Session-less operations: register, login, refresh, logout.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotating refresh: the old refresh token is revoked.
	g.POST("/refresh", a.Refresh)
	// Non-rotating variant: a new access token against the same session.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout accepts a refresh token in the body or a bearer header;
	// see the handler for the two revocation modes.
	g.POST("/logout", a.Logout)

	// Any authenticated user, customer or admin, may query their own
	// identity.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)

	// Alias kept at the top level so clients can log out with just a
	// refresh token in the body.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers the unauthenticated catalog endpoints: tour
// listings, tour detail, departure schedules with availability and
// approved comments.  No JWT or role middleware is applied.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler) {
	e.GET("/v1/tours", p.ListTours)
	e.GET("/v1/tours/:slug", p.GetTour)
	e.GET("/v1/tours/:slug/departures", p.ListDepartures)
	e.GET("/v1/tours/:slug/comments", p.ListComments)
	// Lightweight availability probe used by booking forms.
	e.GET("/v1/departures/:id/availability", p.GetAvailability)
}
