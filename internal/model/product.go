package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product categories. Anything a manager does not classify falls back to
// CategoryOther.
const (
	CategoryCamera   = "camera"
	CategoryLighting = "lighting"
	CategoryAudio    = "audio"
	CategoryBackdrop = "backdrop"
	CategoryProps    = "props"
	CategoryOther    = "other"
)

// ValidCategory reports whether the given category is one of the known
// product categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryCamera, CategoryLighting, CategoryAudio, CategoryBackdrop, CategoryProps, CategoryOther:
		return true
	}
	return false
}

// Product is a rentable piece of studio equipment, one row in the
// `products` table. QuantityAvailable is managed exclusively by the rental
// system: creating a rental reserves units, cancelling or completing one
// returns them. Manager updates never write it directly.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name of the equipment.
//  Description       – optional free text.
//  Category          – one of the Category* constants.
//  Location          – free-text studio/branch where the item lives.
//  PricePerDay       – positive daily rate, DECIMAL(10,2) in the database.
//  QuantityTotal     – how many units exist.
//  QuantityAvailable – units not currently reserved (0 ≤ available ≤ total).
//  ImageURL          – optional image reference.
//  IsActive          – soft-delete flag; inactive products cannot be rented.
//  AddedBy           – manager who created the product.
//  CreatedAt         – creation timestamp.
//  UpdatedAt         – last update timestamp.
type Product struct {
	ID                uint64          // products.id
	Name              string          // products.name
	Description       string          // products.description
	Category          string          // products.category
	Location          string          // products.location
	PricePerDay       decimal.Decimal // products.price_per_day
	QuantityTotal     uint32          // products.quantity_total
	QuantityAvailable uint32          // products.quantity_available
	ImageURL          string          // products.image_url
	IsActive          bool            // products.is_active
	AddedBy           uint64          // products.added_by
	CreatedAt         time.Time       // products.created_at
	UpdatedAt         time.Time       // products.updated_at
}
