// Package handler defines the HTTP handlers for the rental storefront:
// authentication, the public catalog, manager product administration and
// the rental lifecycle endpoints.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/studiokit/rental-backend/internal/lifecycle"
)

// invalidateCache runs a cache invalidation hook when one is wired.
// Handlers built without a cache (tests, cache disabled) leave it nil.
func invalidateCache(ctx context.Context, fn func(context.Context)) {
	if fn != nil {
		fn(ctx)
	}
}

// getUserID extracts the user_id from echo.Context and converts it to
// uint64. JWT numeric claims decode as float64, so several shapes are
// accepted.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// currentActor builds the lifecycle actor for the authenticated request.
func currentActor(c echo.Context) (lifecycle.Actor, error) {
	uid, err := getUserID(c)
	if err != nil {
		return lifecycle.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return lifecycle.Actor{UserID: uid, Role: role}, nil
}

// lifecycleError translates a structured lifecycle error into the HTTP
// response the state machine contract promises: 403 for role failures,
// 409 for lost races, 422 for moves the transition table forbids and 400
// for malformed input.
func lifecycleError(c echo.Context, err error) error {
	switch lifecycle.KindOf(err) {
	case lifecycle.KindUnauthorized:
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case lifecycle.KindConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case lifecycle.KindIllegalTransition:
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case lifecycle.KindValidation:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
