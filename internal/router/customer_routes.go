package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/travel-booking-core/internal/handler"
	"github.com/iliyamo/travel-booking-core/internal/middleware"
)

// RegisterCustomer registers quote and reservation endpoints under /v1.
// All routes require a valid JWT; customers and staff may both use them,
// ownership is checked by the services.  Writes additionally pass through
// the rate limiter.
func RegisterCustomer(e *echo.Echo, q *handler.QuoteHandler, r *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleCustomer, middleware.RoleStaff),
	)

	g.POST("/quotes/draft", q.Draft, limiter)
	g.POST("/quotes/:id/airport", q.AddAirport, limiter)
	g.POST("/quotes/:id/rooms", q.AddRooms, limiter)
	g.POST("/quotes/:id/cars", q.AddCar, limiter)
	g.POST("/quotes/:id/items", q.AddItem, limiter)
	g.POST("/quotes/:id/submit", q.Submit, limiter)
	g.GET("/quotes/:id/summary", q.Summary)

	g.POST("/reservations", r.Save, limiter)
	g.GET("/reservations/:id", r.Get)
	g.GET("/reservations/:id/summary", r.Summary)
}
