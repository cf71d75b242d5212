package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/studiokit/rental-backend/internal/lifecycle"
	"github.com/studiokit/rental-backend/internal/queue"
	"github.com/studiokit/rental-backend/internal/repository"
	queue_publisher "github.com/studiokit/rental-backend/internal/service"
)

// ManagerRentalHandler moves rentals through their lifecycle. Both
// endpoints re-check the actor's role through the state machine even
// though route middleware already gates them: the rules live in one place
// and the handler only translates outcomes.
type ManagerRentalHandler struct {
	Products *repository.ProductRepo
	Rentals  *repository.RentalRepo

	// Invalidate drops cached catalog responses when a transition returns
	// reserved units to a product. Optional.
	Invalidate func(context.Context)
}

func NewManagerRentalHandler(products *repository.ProductRepo, rentals *repository.RentalRepo) *ManagerRentalHandler {
	if products == nil || rentals == nil {
		panic("nil repository passed to NewManagerRentalHandler")
	}
	return &ManagerRentalHandler{Products: products, Rentals: rentals}
}

type statusReq struct {
	Status string `json:"status"`
}
type paymentReq struct {
	PaymentStatus string `json:"payment_status"`
}

// UpdateStatus handles PUT /v1/rentals/:id/status. The rental row is
// locked, the transition validated against the state machine, then
// written with a compare-and-set on the previous status. Transitions that
// end a rental's claim on the equipment return the reserved units to the
// product in the same transaction.
func (h *ManagerRentalHandler) UpdateStatus(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rental id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	target, err := lifecycle.ParseStatus(req.Status)
	if err != nil {
		return lifecycleError(c, err)
	}

	ctx := c.Request().Context()
	tx, err := h.Rentals.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rental, err := h.Rentals.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrRentalNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	from := rental.Status

	if err := lifecycle.CheckTransition(actor, from, target); err != nil {
		return lifecycleError(c, err)
	}

	if err := h.Rentals.UpdateStatusTx(ctx, tx, id, from, target, actor.UserID); err != nil {
		if err == repository.ErrConflict {
			return lifecycleError(c, lifecycle.Conflict("rental status changed concurrently"))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	if lifecycle.ReleasesStock(from, target) {
		if err := h.Products.AdjustAvailabilityTx(ctx, tx, rental.ProductID, int32(rental.Quantity)); err != nil {
			if err == repository.ErrConflict {
				return lifecycleError(c, lifecycle.Conflict("product availability changed concurrently"))
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "release stock failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	if lifecycle.ReleasesStock(from, target) {
		invalidateCache(ctx, h.Invalidate)
	}

	h.publishChange(rental.ID, rental.UserID, "status", string(from), string(target), actor.UserID)

	updated, err := h.Rentals.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRentalResp(updated)})
}

// UpdatePayment handles PUT /v1/rentals/:id/payment. The payment state is
// independent of fulfilment; a cancelled rental can still be refunded.
func (h *ManagerRentalHandler) UpdatePayment(c echo.Context) error {
	actor, err := currentActor(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid rental id"})
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	target, err := lifecycle.ParsePaymentStatus(req.PaymentStatus)
	if err != nil {
		return lifecycleError(c, err)
	}

	ctx := c.Request().Context()
	tx, err := h.Rentals.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rental, err := h.Rentals.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrRentalNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "rental not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	from := rental.PaymentStatus

	if err := lifecycle.CheckPaymentTransition(actor, from, target); err != nil {
		return lifecycleError(c, err)
	}

	if err := h.Rentals.UpdatePaymentTx(ctx, tx, id, from, target, actor.UserID); err != nil {
		if err == repository.ErrConflict {
			return lifecycleError(c, lifecycle.Conflict("payment status changed concurrently"))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update payment failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	h.publishChange(rental.ID, rental.UserID, "payment_status", string(from), string(target), actor.UserID)

	updated, err := h.Rentals.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toRentalResp(updated)})
}

func (h *ManagerRentalHandler) publishChange(rentalID, userID uint64, field, from, to string, changedBy uint64) {
	event := queue.RentalStatusChangedEvent{
		EventID:   uuid.NewString(),
		RentalID:  rentalID,
		UserID:    userID,
		Field:     field,
		From:      from,
		To:        to,
		ChangedBy: changedBy,
		ChangedAt: time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = queue_publisher.PublishRentalStatusChanged(ctx, event)
	}()
}
