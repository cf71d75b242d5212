package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/studiokit/rental-backend/internal/model"
)

func TestProductRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewProductRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "description", "category", "location", "price_per_day",
			"quantity_total", "quantity_available", "image_url", "is_active", "added_by", "created_at", "updated_at",
		}).AddRow(7, "Aputure 600d", "daylight LED", "lighting", "Berlin", "120.50", 4, 3, "", true, 1, now, now)

		mock.ExpectQuery("FROM products WHERE id").WithArgs(uint64(7)).WillReturnRows(rows)

		p, err := repo.GetByID(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, "Aputure 600d", p.Name)
		assert.Equal(t, "120.50", p.PricePerDay.StringFixed(2))
		assert.Equal(t, uint32(3), p.QuantityAvailable)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery("FROM products WHERE id").WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepoAdjustAvailabilityTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewProductRepo(db)
	ctx := context.Background()

	t.Run("Reserve", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE products").
			WithArgs(int32(-2), uint64(7), int32(-2), int32(-2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		tx, err := db.BeginTx(ctx, nil)
		assert.NoError(t, err)
		assert.NoError(t, repo.AdjustAvailabilityTx(ctx, tx, 7, -2))
	})

	t.Run("GuardRejectsOverdraw", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE products").
			WithArgs(int32(-10), uint64(7), int32(-10), int32(-10)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		tx, err := db.BeginTx(ctx, nil)
		assert.NoError(t, err)
		assert.ErrorIs(t, repo.AdjustAvailabilityTx(ctx, tx, 7, -10), ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepoUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewProductRepo(db)
	ctx := context.Background()
	p := &model.Product{
		ID: 7, Name: "Aputure 600d", Category: "lighting", Location: "Berlin",
		PricePerDay: decimal.RequireFromString("120.50"), QuantityTotal: 4, IsActive: true,
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE products").
			WithArgs("Aputure 600d", "", "lighting", "Berlin", "120.50", uint32(4), "", true, uint64(7), uint32(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Update(ctx, p))
	})

	t.Run("GuardRejectsTotalBelowAvailable", func(t *testing.T) {
		// 3 of 4 units are on the shelf; shrinking the fleet to 2 would
		// leave quantity_available above quantity_total.
		shrunk := *p
		shrunk.QuantityTotal = 2
		mock.ExpectExec("UPDATE products").
			WithArgs("Aputure 600d", "", "lighting", "Berlin", "120.50", uint32(2), "", true, uint64(7), uint32(2)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Update(ctx, &shrunk), ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepoSoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewProductRepo(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE products SET is_active").
			WithArgs(uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.SoftDelete(ctx, 7))
	})

	t.Run("AlreadyInactive", func(t *testing.T) {
		mock.ExpectExec("UPDATE products SET is_active").
			WithArgs(uint64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.SoftDelete(ctx, 7), sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepoListFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewProductRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()
	active := true

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("lighting", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("FROM products").
		WithArgs("lighting", true, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "description", "category", "location", "price_per_day",
			"quantity_total", "quantity_available", "image_url", "is_active", "added_by", "created_at", "updated_at",
		}).AddRow(7, "Aputure 600d", "", "lighting", "Berlin", "120.50", 4, 3, "", true, 1, now, now))

	items, total, err := repo.List(ctx, ProductFilter{Category: "lighting", IsActive: &active})
	assert.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)
	assert.Equal(t, "lighting", items[0].Category)

	assert.NoError(t, mock.ExpectationsWereMet())
}
