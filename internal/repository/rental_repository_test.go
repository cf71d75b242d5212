package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/studiokit/rental-backend/internal/lifecycle"
)

func rentalRows(t *testing.T, id uint64, status, payment string) *sqlmock.Rows {
	t.Helper()
	now := time.Now().UTC()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{
		"id", "product_id", "user_id", "quantity", "start_date", "end_date", "total_days",
		"price_per_day", "total_price", "status", "payment_status", "notes", "updated_by", "created_at", "updated_at",
	}).AddRow(id, 7, 2, 2, start, end, 3, "500.00", "3000.00", status, payment, "", nil, now, now)
}

func TestRentalRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepo(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("FROM rentals WHERE id").
			WithArgs(uint64(1)).
			WillReturnRows(rentalRows(t, 1, "pending", "unpaid"))

		m, err := repo.GetByID(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, lifecycle.StatusPending, m.Status)
		assert.Equal(t, lifecycle.PaymentUnpaid, m.PaymentStatus)
		assert.Equal(t, "3000.00", m.TotalPrice.StringFixed(2))
		assert.Nil(t, m.UpdatedBy)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("FROM rentals WHERE id").
			WithArgs(uint64(42)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 42)
		assert.ErrorIs(t, err, ErrRentalNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepoUpdateStatusTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepo(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE rentals").
			WithArgs("approved", uint64(9), uint64(1), "pending").
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.BeginTx(ctx, nil)
		assert.NoError(t, err)
		assert.NoError(t, repo.UpdateStatusTx(ctx, tx, 1, lifecycle.StatusPending, lifecycle.StatusApproved, 9))
	})

	t.Run("LostRace", func(t *testing.T) {
		// Another manager advanced the row first: the compare-and-set
		// matches no rows and nothing is written.
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE rentals").
			WithArgs("approved", uint64(9), uint64(1), "pending").
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(ctx, nil)
		assert.NoError(t, err)
		assert.ErrorIs(t, repo.UpdateStatusTx(ctx, tx, 1, lifecycle.StatusPending, lifecycle.StatusApproved, 9), ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepoUpdatePaymentTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepo(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE rentals").
			WithArgs("paid", uint64(9), uint64(1), "unpaid").
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.BeginTx(ctx, nil)
		assert.NoError(t, err)
		assert.NoError(t, repo.UpdatePaymentTx(ctx, tx, 1, lifecycle.PaymentUnpaid, lifecycle.PaymentPaid, 9))
	})

	t.Run("LostRace", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE rentals").
			WithArgs("refunded", uint64(9), uint64(1), "paid").
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(ctx, nil)
		assert.NoError(t, err)
		assert.ErrorIs(t, repo.UpdatePaymentTx(ctx, tx, 1, lifecycle.PaymentPaid, lifecycle.PaymentRefunded, 9), ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRentalRepoGetByIDForUpdateTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewRentalRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM rentals WHERE id (.+) FOR UPDATE").
		WithArgs(uint64(1)).
		WillReturnRows(rentalRows(t, 1, "active", "paid"))

	tx, err := db.BeginTx(ctx, nil)
	assert.NoError(t, err)
	m, err := repo.GetByIDForUpdateTx(ctx, tx, 1)
	assert.NoError(t, err)
	assert.Equal(t, lifecycle.StatusActive, m.Status)

	assert.NoError(t, mock.ExpectationsWereMet())
}
