package router

import (
	"github.com/labstack/echo/v4"

	"github.com/condortrails/tour-booking-api/internal/handler"
	"github.com/condortrails/tour-booking-api/internal/middleware"
	"github.com/condortrails/tour-booking-api/internal/model"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All
// routes require a valid JWT and the customer role.  Customers can
// place pre-reservations, list and inspect their own bookings, cancel
// them and edit the free-text comments on a reservation.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, ch *handler.CommentHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer),
	)
	g.POST("/reservations", h.Create)
	g.GET("/my-reservations", h.List)
	g.GET("/reservations/:id", h.Get)
	// Cancellation is a state transition, not a deletion: the record
	// survives with its refund bookkeeping.
	g.POST("/reservations/:id/cancel", h.Cancel)
	g.PATCH("/reservations/:id/comments", h.UpdateComments)

	// Tour comments go through moderation before showing up publicly.
	g.POST("/tours/:slug/comments", ch.Create)
}
