package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/studiokit/rental-backend/internal/repository"
)

func newProductContext(t *testing.T, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/v1/products/7", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("7")
	c.Set("user_id", uint64(9))
	c.Set("role", "manager")
	return c, rec
}

func productRows(available uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "name", "description", "category", "location", "price_per_day",
		"quantity_total", "quantity_available", "image_url", "is_active", "added_by", "created_at", "updated_at",
	}).AddRow(7, "Aputure 600d", "", "lighting", "Berlin", "120.50", 4, available, "", true, 1, now, now)
}

func newManagerProductHandler(t *testing.T) (*ManagerProductHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	h := NewManagerProductHandler(repository.NewProductRepo(db))
	return h, mock, func() { db.Close() }
}

func TestUpdateProductTotalBelowAvailable(t *testing.T) {
	h, mock, closeDB := newManagerProductHandler(t)
	defer closeDB()

	// 3 units are on the shelf; shrinking the fleet to 2 would leave
	// more units available than the product owns.
	mock.ExpectQuery("FROM products WHERE id").WithArgs(uint64(7)).
		WillReturnRows(productRows(3))

	body := `{"name":"Aputure 600d","category":"lighting","price_per_day":"120.50","quantity_total":2}`
	c, rec := newProductContext(t, http.MethodPut, body)
	assert.NoError(t, h.UpdateProduct(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "currently available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProductLostRaceConflict(t *testing.T) {
	h, mock, closeDB := newManagerProductHandler(t)
	defer closeDB()

	// Availability rose between the read and the guarded write; the
	// UPDATE matches nothing and the manager must retry.
	mock.ExpectQuery("FROM products WHERE id").WithArgs(uint64(7)).
		WillReturnRows(productRows(3))
	mock.ExpectExec("UPDATE products").
		WillReturnResult(sqlmock.NewResult(0, 0))

	body := `{"name":"Aputure 600d","category":"lighting","price_per_day":"120.50","quantity_total":4}`
	c, rec := newProductContext(t, http.MethodPut, body)
	assert.NoError(t, h.UpdateProduct(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteProductDropsCache(t *testing.T) {
	h, mock, closeDB := newManagerProductHandler(t)
	defer closeDB()

	invalidated := false
	h.Invalidate = func(context.Context) { invalidated = true }

	mock.ExpectExec("UPDATE products SET is_active").
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newProductContext(t, http.MethodDelete, "")
	assert.NoError(t, h.DeleteProduct(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, invalidated)
	assert.NoError(t, mock.ExpectationsWereMet())
}
