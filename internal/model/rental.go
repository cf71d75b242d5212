package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/studiokit/rental-backend/internal/lifecycle"
)

// Rental records a customer's booking of a quantity of one product for a
// date range. PricePerDay and TotalPrice are snapshots captured at creation
// time; later catalog price changes never affect an existing rental. Status
// and PaymentStatus move only through the transitions defined in the
// lifecycle package.
//
// Fields:
//  ID            – primary key identifier.
//  ProductID     – product being rented.
//  UserID        – customer who requested the rental.
//  Quantity      – number of units reserved (1 ≤ quantity ≤ availability at creation).
//  StartDate     – first billable day (inclusive).
//  EndDate       – last billable day (inclusive).
//  TotalDays     – inclusive day count, stored for display.
//  PricePerDay   – per-day rate snapshot.
//  TotalPrice    – derived total, immutable once set.
//  Status        – fulfilment state (pending/approved/active/completed/cancelled).
//  PaymentStatus – payment state (unpaid/paid/refunded), independent of Status.
//  Notes         – optional customer text.
//  UpdatedBy     – manager who last changed the status (nil before any change).
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Rental struct {
	ID            uint64                  // rentals.id
	ProductID     uint64                  // rentals.product_id
	UserID        uint64                  // rentals.user_id
	Quantity      uint32                  // rentals.quantity
	StartDate     time.Time               // rentals.start_date
	EndDate       time.Time               // rentals.end_date
	TotalDays     uint32                  // rentals.total_days
	PricePerDay   decimal.Decimal         // rentals.price_per_day
	TotalPrice    decimal.Decimal         // rentals.total_price
	Status        lifecycle.Status        // rentals.status
	PaymentStatus lifecycle.PaymentStatus // rentals.payment_status
	Notes         string                  // rentals.notes
	UpdatedBy     *uint64                 // rentals.updated_by (nullable)
	CreatedAt     time.Time               // rentals.created_at
	UpdatedAt     time.Time               // rentals.updated_at
}
