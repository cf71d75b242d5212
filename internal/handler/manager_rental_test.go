package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/studiokit/rental-backend/internal/lifecycle"
	"github.com/studiokit/rental-backend/internal/repository"
)

func newStatusContext(t *testing.T, role, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/rentals/1/status", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("user_id", uint64(9))
	c.Set("role", role)
	return c, rec
}

func lockedRentalRows(status, payment string) *sqlmock.Rows {
	now := time.Now().UTC()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "product_id", "user_id", "quantity", "start_date", "end_date", "total_days",
		"price_per_day", "total_price", "status", "payment_status", "notes", "updated_by", "created_at", "updated_at",
	}).AddRow(1, 7, 2, 2, start, end, 3, "500.00", "3000.00", status, payment, "", nil, now, now)
}

func newManagerRentalHandler(t *testing.T) (*ManagerRentalHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	h := NewManagerRentalHandler(repository.NewProductRepo(db), repository.NewRentalRepo(db))
	return h, mock, func() { db.Close() }
}

func TestUpdateStatusCustomerForbidden(t *testing.T) {
	h, mock, closeDB := newManagerRentalHandler(t)
	defer closeDB()

	// Role middleware normally blocks this route, but the state machine
	// still rejects a non-manager that slips through.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("pending", "unpaid"))
	mock.ExpectRollback()

	c, rec := newStatusContext(t, lifecycle.RoleCustomer, `{"status":"approved"}`)
	assert.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusIllegalTransition(t *testing.T) {
	h, mock, closeDB := newManagerRentalHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("completed", "paid"))
	mock.ExpectRollback()

	c, rec := newStatusContext(t, lifecycle.RoleManager, `{"status":"pending"}`)
	assert.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "completed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusLostRaceConflict(t *testing.T) {
	h, mock, closeDB := newManagerRentalHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("pending", "unpaid"))
	mock.ExpectExec("UPDATE rentals").
		WithArgs("approved", uint64(9), uint64(1), "pending").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	c, rec := newStatusContext(t, lifecycle.RoleManager, `{"status":"approved"}`)
	assert.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusApprovePending(t *testing.T) {
	h, mock, closeDB := newManagerRentalHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("pending", "unpaid"))
	mock.ExpectExec("UPDATE rentals").
		WithArgs("approved", uint64(9), uint64(1), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("approved", "unpaid"))

	c, rec := newStatusContext(t, lifecycle.RoleManager, `{"status":"approved"}`)
	assert.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"approved"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusCancelReleasesStock(t *testing.T) {
	h, mock, closeDB := newManagerRentalHandler(t)
	defer closeDB()

	// Cancelling a pending rental returns its 2 reserved units to the
	// product inside the same transaction.
	mock.ExpectBegin()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("pending", "unpaid"))
	mock.ExpectExec("UPDATE rentals").
		WithArgs("cancelled", uint64(9), uint64(1), "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE products").
		WithArgs(int32(2), uint64(7), int32(2), int32(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("cancelled", "unpaid"))

	c, rec := newStatusContext(t, lifecycle.RoleManager, `{"status":"cancelled"}`)
	assert.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentRefundWithoutPayment(t *testing.T) {
	h, mock, closeDB := newManagerRentalHandler(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rentals WHERE id").WithArgs(uint64(1)).
		WillReturnRows(lockedRentalRows("approved", "unpaid"))
	mock.ExpectRollback()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPut, "/v1/rentals/1/payment", strings.NewReader(`{"payment_status":"refunded"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("1")
	c.Set("user_id", uint64(9))
	c.Set("role", lifecycle.RoleManager)

	assert.NoError(t, h.UpdatePayment(c))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusInvalidBody(t *testing.T) {
	h, _, closeDB := newManagerRentalHandler(t)
	defer closeDB()

	c, rec := newStatusContext(t, lifecycle.RoleManager, `{"status":"shipped"}`)
	assert.NoError(t, h.UpdateStatus(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
