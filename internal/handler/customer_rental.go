package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/studiokit/rental-backend/internal/lifecycle"
	"github.com/studiokit/rental-backend/internal/model"
	"github.com/studiokit/rental-backend/internal/pricing"
	"github.com/studiokit/rental-backend/internal/queue"
	"github.com/studiokit/rental-backend/internal/repository"
	queue_publisher "github.com/studiokit/rental-backend/internal/service"
)

// RentalHandler serves the customer-facing rental endpoints: requesting a
// rental, listing one's own rentals and fetching a single rental. JWT
// middleware runs before every method; ownership is enforced here.
type RentalHandler struct {
	Products *repository.ProductRepo
	Rentals  *repository.RentalRepo

	// Invalidate drops cached catalog responses after a reservation
	// changes product availability. Optional.
	Invalidate func(context.Context)
}

func NewRentalHandler(products *repository.ProductRepo, rentals *repository.RentalRepo) *RentalHandler {
	if products == nil || rentals == nil {
		panic("nil repository passed to NewRentalHandler")
	}
	return &RentalHandler{Products: products, Rentals: rentals}
}

type createRentalReq struct {
	ProductID uint64 `json:"product_id"`
	Quantity  int    `json:"quantity"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

type rentalResp struct {
	ID            uint64  `json:"id"`
	ProductID     uint64  `json:"product_id"`
	UserID        uint64  `json:"user_id"`
	Quantity      uint32  `json:"quantity"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	TotalDays     uint32  `json:"total_days"`
	PricePerDay   string  `json:"price_per_day"`
	TotalPrice    string  `json:"total_price"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	Notes         string  `json:"notes,omitempty"`
	UpdatedBy     *uint64 `json:"updated_by,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toRentalResp(m *model.Rental) rentalResp {
	return rentalResp{
		ID:            m.ID,
		ProductID:     m.ProductID,
		UserID:        m.UserID,
		Quantity:      m.Quantity,
		StartDate:     m.StartDate.UTC().Format("2006-01-02"),
		EndDate:       m.EndDate.UTC().Format("2006-01-02"),
		TotalDays:     m.TotalDays,
		PricePerDay:   m.PricePerDay.StringFixed(2),
		TotalPrice:    m.TotalPrice.StringFixed(2),
		Status:        string(m.Status),
		PaymentStatus: string(m.PaymentStatus),
		Notes:         m.Notes,
		UpdatedBy:     m.UpdatedBy,
		CreatedAt:     m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateRental handles POST /v1/rentals. The product row is locked for
// the duration of the transaction so the availability check, the price
// snapshot and the stock reservation see one consistent state. The rental
// starts as pending/unpaid.
func (h *RentalHandler) CreateRental(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createRentalReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ProductID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product_id is required"})
	}

	ctx := c.Request().Context()
	tx, err := h.Products.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	product, err := h.Products.GetByIDForUpdateTx(ctx, tx, req.ProductID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !product.IsActive {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "product is not available for rent"})
	}

	quote, err := pricing.Compute(product.PricePerDay, req.StartDate, req.EndDate, req.Quantity, int(product.QuantityAvailable))
	if err != nil {
		return lifecycleError(c, err)
	}
	start, _ := pricing.ParseDate(req.StartDate)
	end, _ := pricing.ParseDate(req.EndDate)

	rental := &model.Rental{
		ProductID:   product.ID,
		UserID:      uid,
		Quantity:    uint32(req.Quantity),
		StartDate:   start,
		EndDate:     end,
		TotalDays:   uint32(quote.Days),
		PricePerDay: product.PricePerDay,
		TotalPrice:  quote.Total,
		Notes:       req.Notes,
	}
	if err := h.Rentals.CreateTx(ctx, tx, rental); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create rental failed"})
	}
	if err := h.Products.AdjustAvailabilityTx(ctx, tx, product.ID, -int32(req.Quantity)); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "not enough units available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reserve stock failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	invalidateCache(ctx, h.Invalidate)

	event := queue.RentalRequestedEvent{
		EventID:     uuid.NewString(),
		RentalID:    rental.ID,
		UserID:      uid,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    rental.Quantity,
		StartDate:   rental.StartDate.Format("2006-01-02"),
		EndDate:     rental.EndDate.Format("2006-01-02"),
		TotalDays:   rental.TotalDays,
		TotalPrice:  rental.TotalPrice.StringFixed(2),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishRentalRequested(pubCtx, event)
	}()

	return c.JSON(http.StatusCreated, echo.Map{"item": toRentalResp(rental)})
}

// ListRentals handles GET /v1/rentals. Customers see their own rentals;
// managers see everyone's, with customer details joined and pagination.
// An optional status query parameter narrows both views.
func (h *RentalHandler) ListRentals(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	status := c.QueryParam("status")
	if status != "" {
		if _, err := lifecycle.ParseStatus(status); err != nil {
			return lifecycleError(c, err)
		}
	}

	if !actor.IsManager() {
		items, err := h.Rentals.ListByUser(c.Request().Context(), actor.UserID, status)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rentals"})
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}

	skip, limit := 0, 0
	if v := c.QueryParam("skip"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid skip"})
		}
		skip = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 200"})
		}
		limit = n
	}
	items, total, err := h.Rentals.ListAll(c.Request().Context(), status, skip, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load rentals"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "total": total})
}

// GetRental handles GET /v1/rentals/:id. Customers may only read their
// own rentals; managers may read any.
func (h *RentalHandler) GetRental(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rental id"})
	}
	rental, err := h.Rentals.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrRentalNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if rental.UserID != actor.UserID && !actor.IsManager() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRentalResp(rental)})
}
