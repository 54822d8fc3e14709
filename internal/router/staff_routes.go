package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-core/internal/handler"
	"github.com/iliyamo/travel-booking-core/internal/middleware"
)

// RegisterStaff registers staff-only endpoints: the reservation review
// list and status changes.  Reservation status moves along
// pending -> confirmed -> completed, or to cancelled, only here.
func RegisterStaff(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
	g := e.Group(
		"/v1/staff",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStaff),
	)
	g.GET("/reservations", r.List)
	g.PATCH("/reservations/:id/status", r.UpdateStatus)
}
