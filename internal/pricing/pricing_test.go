package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/studiokit/rental-backend/internal/lifecycle"
)

func TestCompute(t *testing.T) {
	price := decimal.RequireFromString("500.00")

	t.Run("SameDayIsOneBillableDay", func(t *testing.T) {
		q, err := Compute(price, "2026-03-10", "2026-03-10", 1, 5)
		assert.NoError(t, err)
		assert.Equal(t, 1, q.Days)
		assert.True(t, q.Total.Equal(decimal.RequireFromString("500.00")), "got %s", q.Total)
	})

	t.Run("MultiDayMultiQuantity", func(t *testing.T) {
		// 3 inclusive days * 500 * 2 units
		q, err := Compute(price, "2026-03-10", "2026-03-12", 2, 5)
		assert.NoError(t, err)
		assert.Equal(t, 3, q.Days)
		assert.True(t, q.Total.Equal(decimal.RequireFromString("3000.00")), "got %s", q.Total)
	})

	t.Run("DecimalExactness", func(t *testing.T) {
		// 19.99 * 3 days * 3 units = 179.91 with no float drift
		q, err := Compute(decimal.RequireFromString("19.99"), "2026-01-01", "2026-01-03", 3, 10)
		assert.NoError(t, err)
		assert.Equal(t, "179.91", q.Total.StringFixed(2))
	})

	t.Run("RFC3339DatesAccepted", func(t *testing.T) {
		q, err := Compute(price, "2026-03-10T15:04:05Z", "2026-03-11T01:00:00Z", 1, 5)
		assert.NoError(t, err)
		assert.Equal(t, 2, q.Days)
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		_, err := Compute(price, "2026-03-12", "2026-03-10", 1, 5)
		assert.Error(t, err)
		assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
	})

	t.Run("QuantityExceedsAvailability", func(t *testing.T) {
		_, err := Compute(price, "2026-03-10", "2026-03-12", 6, 5)
		assert.Error(t, err)
		assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
		assert.Contains(t, err.Error(), "5 units available")
	})

	t.Run("ZeroQuantity", func(t *testing.T) {
		_, err := Compute(price, "2026-03-10", "2026-03-12", 0, 5)
		assert.Error(t, err)
		assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
	})

	t.Run("NonPositivePrice", func(t *testing.T) {
		_, err := Compute(decimal.Zero, "2026-03-10", "2026-03-12", 1, 5)
		assert.Error(t, err)
	})

	t.Run("UnparsableDate", func(t *testing.T) {
		_, err := Compute(price, "next tuesday", "2026-03-12", 1, 5)
		assert.Error(t, err)
		assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))
	})
}

func TestDays(t *testing.T) {
	start, err := ParseDate("2026-02-27")
	assert.NoError(t, err)
	end, err := ParseDate("2026-03-02")
	assert.NoError(t, err)
	// spans a month boundary, inclusive of both endpoints
	assert.Equal(t, 4, Days(start, end))
}

func TestParseDateTruncatesToMidnightUTC(t *testing.T) {
	d, err := ParseDate("2026-03-10T23:59:59Z")
	assert.NoError(t, err)
	assert.Equal(t, "2026-03-10T00:00:00Z", d.Format("2006-01-02T15:04:05Z"))
}

func TestParseDateKeepsLocalCalendarDay(t *testing.T) {
	// A late evening in UTC-5 is already the next day in UTC; billing
	// follows the calendar day the client sent, not the UTC rollover.
	d, err := ParseDate("2026-03-10T23:00:00-05:00")
	assert.NoError(t, err)
	assert.Equal(t, "2026-03-10T00:00:00Z", d.Format("2006-01-02T15:04:05Z"))
}
