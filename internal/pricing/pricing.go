// Package pricing computes rental quotes. The calculation is a pure
// function of the per-day rate, the date range and the quantity: identical
// input always yields an identical quote.
package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/studiokit/rental-backend/internal/lifecycle"
)

// Quote is the priced result for a prospective rental. Days counts both
// endpoints inclusively, so a same-day rental is one billable day. Total is
// rounded to 2 decimal places for currency display.
type Quote struct {
	Days  int
	Total decimal.Decimal
}

// dateLayouts are accepted for start/end dates. Clients send either a bare
// calendar date or a full RFC3339 timestamp; only the calendar date matters
// for billing.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// ParseDate parses a rental boundary date and truncates it to midnight
// UTC. The calendar day is taken in the timestamp's own offset, so an
// evening timestamp in a western timezone stays on the day the client
// meant rather than rolling over to the next UTC day.
func ParseDate(raw string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", raw)
}

// Days returns the inclusive day count between two parsed dates. The
// convention matters for billing: start == end is 1 day, not 0.
func Days(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// Compute validates the rental parameters and prices them. It returns a
// lifecycle validation error when a date is unparsable, the end precedes
// the start, the quantity is not positive, or the quantity exceeds the
// caller-supplied availability. Availability shortages are rejected, never
// clamped.
func Compute(pricePerDay decimal.Decimal, startDate, endDate string, quantity, available int) (Quote, error) {
	if quantity < 1 {
		return Quote{}, lifecycle.Validation("quantity must be at least 1")
	}
	if quantity > available {
		return Quote{}, lifecycle.Validation(fmt.Sprintf("only %d units available", available))
	}
	if pricePerDay.IsNegative() || pricePerDay.IsZero() {
		return Quote{}, lifecycle.Validation("price per day must be positive")
	}
	start, err := ParseDate(startDate)
	if err != nil {
		return Quote{}, lifecycle.Validation("invalid start date")
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return Quote{}, lifecycle.Validation("invalid end date")
	}
	if end.Before(start) {
		return Quote{}, lifecycle.Validation("end date must not be before start date")
	}
	days := Days(start, end)
	total := pricePerDay.
		Mul(decimal.NewFromInt(int64(days))).
		Mul(decimal.NewFromInt(int64(quantity))).
		Round(2)
	return Quote{Days: days, Total: total}, nil
}
