package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/travel-booking-core/internal/handler" // handlers implementing each endpoint
)

// RegisterRoutes registers routes that do not require authentication: the
// liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	// Liveness for load balancers.
	e.GET("/healthz", handler.Health)
	// Readiness pings the database (and Redis when configured).
	e.GET("/readyz", h.Ready)
}

// RegisterCatalog registers the public, read-only price catalog endpoints.
// Guests walk a table's attribute chain before they sign in.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler) {
	g := e.Group("/v1/catalog")
	// Airport legs derived from an apply type; registered before the
	// :table routes so "airport" is not taken as a table name.
	g.GET("/airport/legs", h.AirportLegs)
	g.GET("/:table/options", h.Options)
	g.GET("/:table/resolve", h.Resolve)
	g.POST("/:table/select", h.Select)
}
