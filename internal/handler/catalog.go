package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studiokit/rental-backend/internal/model"
	"github.com/studiokit/rental-backend/internal/repository"
)

// CatalogHandler serves the public product browsing endpoints. No
// authentication is required; responses expose only catalog fields.
type CatalogHandler struct {
	Products *repository.ProductRepo
}

func NewCatalogHandler(products *repository.ProductRepo) *CatalogHandler {
	if products == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Products: products}
}

// productResp is the wire shape of a product. Prices travel as decimal
// strings so currency precision survives JSON.
type productResp struct {
	ID                uint64 `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	Category          string `json:"category"`
	Location          string `json:"location"`
	PricePerDay       string `json:"price_per_day"`
	QuantityTotal     uint32 `json:"quantity_total"`
	QuantityAvailable uint32 `json:"quantity_available"`
	ImageURL          string `json:"image_url,omitempty"`
	IsActive          bool   `json:"is_active"`
	CreatedAt         string `json:"created_at"`
}

func toProductResp(p *model.Product) productResp {
	return productResp{
		ID:                p.ID,
		Name:              p.Name,
		Description:       p.Description,
		Category:          p.Category,
		Location:          p.Location,
		PricePerDay:       p.PricePerDay.StringFixed(2),
		QuantityTotal:     p.QuantityTotal,
		QuantityAvailable: p.QuantityAvailable,
		ImageURL:          p.ImageURL,
		IsActive:          p.IsActive,
		CreatedAt:         p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ListProducts handles GET /v1/products. Supported query parameters:
// category, location, is_active (true/false/all, default true), skip and
// limit. The response carries the matching items plus the total count
// before pagination.
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	f := repository.ProductFilter{
		Category: c.QueryParam("category"),
		Location: c.QueryParam("location"),
	}
	if f.Category != "" && !model.ValidCategory(f.Category) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid category"})
	}
	switch c.QueryParam("is_active") {
	case "", "true":
		active := true
		f.IsActive = &active
	case "false":
		inactive := false
		f.IsActive = &inactive
	case "all":
		// no filter
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "is_active must be true, false or all"})
	}
	if v := c.QueryParam("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skip"})
		}
		f.Skip = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 200"})
		}
		f.Limit = n
	}

	items, total, err := h.Products.List(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]productResp, 0, len(items))
	for _, p := range items {
		out = append(out, toProductResp(p))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": out,
		"total": total,
	})
}

// GetProduct handles GET /v1/products/:id.
func (h *CatalogHandler) GetProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	p, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toProductResp(p)})
}

// ListLocations handles GET /v1/products/locations. It returns the
// distinct non-empty locations of active products for filter dropdowns.
func (h *CatalogHandler) ListLocations(c echo.Context) error {
	locations, err := h.Products.Locations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": locations})
}
