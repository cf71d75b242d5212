package router

import (
	"github.com/labstack/echo/v4"

	"github.com/studiokit/rental-backend/internal/handler"
	"github.com/studiokit/rental-backend/internal/lifecycle"
	"github.com/studiokit/rental-backend/internal/middleware"
)

// RegisterCatalog registers the product endpoints. Browsing is public and
// runs behind the response cache; the mutating endpoints require the
// manager role and never touch the cache. The static /products/locations
// route is registered before /products/:id so Echo matches it first.
func RegisterCatalog(e *echo.Echo, public *handler.CatalogHandler, manager *handler.ManagerProductHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	e.GET("/v1/products", public.ListProducts, cache)
	e.GET("/v1/products/locations", public.ListLocations, cache)
	e.GET("/v1/products/:id", public.GetProduct, cache)

	g := e.Group(
		"/v1/products",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(lifecycle.RoleManager),
	)
	g.POST("", manager.CreateProduct)
	g.PUT("/:id", manager.UpdateProduct)
	g.DELETE("/:id", manager.DeleteProduct)
}
