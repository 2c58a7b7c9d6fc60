package router

import (
	"github.com/labstack/echo/v4"

	"github.com/condortrails/tour-booking-api/internal/handler"
	"github.com/condortrails/tour-booking-api/internal/middleware"
	"github.com/condortrails/tour-booking-api/internal/model"
)

// RegisterAdmin registers operator endpoints under /v1/admin.  All
// routes require a valid JWT and the admin role.  Operators manage the
// catalog, work the pre-reservation queue and moderate comments.
func RegisterAdmin(e *echo.Echo, cat *handler.AdminCatalogHandler, res *handler.AdminReservationHandler, com *handler.CommentHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Catalog ----
	g.POST("/tours", cat.CreateTour)
	g.GET("/tours", cat.ListTours)
	g.PUT("/tours/:id", cat.UpdateTour)
	g.PATCH("/tours/:id", cat.UpdateTour) // allow partial-style updates via PATCH as well
	g.DELETE("/tours/:id", cat.DeactivateTour)

	g.POST("/tours/:id/departures", cat.CreateDeparture)
	g.PUT("/departures/:id", cat.UpdateDeparture)
	g.PATCH("/departures/:id", cat.UpdateDeparture)
	g.DELETE("/departures/:id", cat.DeleteDeparture)

	// ---- Reservations ----
	g.GET("/reservations", res.List)
	g.GET("/reservations/pending", res.Pending)
	g.POST("/reservations", res.Create) // book on behalf of a customer
	g.POST("/reservations/:id/confirm", res.Confirm)
	g.POST("/reservations/:id/cancel", res.Cancel)
	g.GET("/dashboard", res.Dashboard)

	// ---- Comment moderation ----
	g.GET("/comments", com.ListForModeration)
	g.POST("/comments/:id/approve", com.Approve)
	g.POST("/comments/:id/reject", com.Reject)
	g.DELETE("/comments/:id", com.Delete)
}
