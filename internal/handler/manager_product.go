package handler

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/studiokit/rental-backend/internal/model"
	"github.com/studiokit/rental-backend/internal/repository"
)

// ManagerProductHandler covers the manager-only catalog administration
// endpoints. Route middleware guarantees the caller holds the manager
// role before any of these methods run.
type ManagerProductHandler struct {
	Products *repository.ProductRepo

	// Invalidate drops cached catalog responses after a successful write.
	// Optional; left nil when response caching is disabled.
	Invalidate func(context.Context)
}

func NewManagerProductHandler(products *repository.ProductRepo) *ManagerProductHandler {
	if products == nil {
		panic("nil repository passed to NewManagerProductHandler")
	}
	return &ManagerProductHandler{Products: products}
}

type productReq struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Location      string `json:"location"`
	PricePerDay   string `json:"price_per_day"`
	QuantityTotal uint32 `json:"quantity_total"`
	ImageURL      string `json:"image_url"`
	IsActive      *bool  `json:"is_active"`
}

// validate normalizes the request and returns the parsed price, or a
// client-facing message when a field is unacceptable.
func (r *productReq) validate() (decimal.Decimal, string) {
	r.Name = strings.TrimSpace(r.Name)
	r.Category = strings.TrimSpace(strings.ToLower(r.Category))
	r.Location = strings.TrimSpace(r.Location)
	if r.Name == "" {
		return decimal.Decimal{}, "name is required"
	}
	if !model.ValidCategory(r.Category) {
		return decimal.Decimal{}, "invalid category"
	}
	price, err := decimal.NewFromString(strings.TrimSpace(r.PricePerDay))
	if err != nil {
		return decimal.Decimal{}, "invalid price_per_day"
	}
	if price.IsNegative() || price.IsZero() {
		return decimal.Decimal{}, "price_per_day must be positive"
	}
	if r.QuantityTotal < 1 {
		return decimal.Decimal{}, "quantity_total must be at least 1"
	}
	return price, ""
}

// CreateProduct handles POST /v1/products. Availability starts equal to
// the total quantity.
func (h *ManagerProductHandler) CreateProduct(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	price, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	p := &model.Product{
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		Location:      req.Location,
		PricePerDay:   price,
		QuantityTotal: req.QuantityTotal,
		ImageURL:      req.ImageURL,
		AddedBy:       uid,
	}
	if err := h.Products.Create(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create product failed"})
	}
	invalidateCache(c.Request().Context(), h.Invalidate)
	return c.JSON(http.StatusCreated, echo.Map{"item": toProductResp(p)})
}

// UpdateProduct handles PUT /v1/products/:id. quantity_available is
// computed by the rental system; any value sent by the client is ignored.
func (h *ManagerProductHandler) UpdateProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	var req productReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	price, msg := req.validate()
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx := c.Request().Context()
	existing, err := h.Products.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	if req.QuantityTotal < existing.QuantityAvailable {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity_total cannot be less than units currently available"})
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.Category = req.Category
	existing.Location = req.Location
	existing.PricePerDay = price
	existing.QuantityTotal = req.QuantityTotal
	existing.ImageURL = req.ImageURL
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := h.Products.Update(ctx, existing); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "product changed concurrently"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update product failed"})
	}
	invalidateCache(ctx, h.Invalidate)
	updated, err := h.Products.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toProductResp(updated)})
}

// DeleteProduct handles DELETE /v1/products/:id. The row is deactivated,
// not removed, so existing rentals keep their product reference.
func (h *ManagerProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	if err := h.Products.SoftDelete(c.Request().Context(), id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete product failed"})
	}
	invalidateCache(c.Request().Context(), h.Invalidate)
	return c.NoContent(http.StatusNoContent)
}
