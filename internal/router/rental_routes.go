package router

import (
	"github.com/labstack/echo/v4"

	"github.com/studiokit/rental-backend/internal/handler"
	"github.com/studiokit/rental-backend/internal/lifecycle"
	"github.com/studiokit/rental-backend/internal/middleware"
)

// RegisterRentals registers the rental endpoints. Creation and reads are
// open to both roles (the handlers enforce ownership); the lifecycle
// transitions additionally require the manager role at the route level,
// with the state machine re-checking inside.
func RegisterRentals(e *echo.Echo, rentals *handler.RentalHandler, manager *handler.ManagerRentalHandler, jwtSecret string) {
	g := e.Group(
		"/v1/rentals",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleCustomer, lifecycle.RoleManager),
	)
	g.POST("", rentals.CreateRental)
	g.GET("", rentals.ListRentals)
	g.GET("/:id", rentals.GetRental)

	m := e.Group(
		"/v1/rentals",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleManager),
	)
	m.PUT("/:id/status", manager.UpdateStatus)
	m.PUT("/:id/payment", manager.UpdatePayment)
}
