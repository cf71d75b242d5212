package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/studiokit/rental-backend/internal/model"
)

// ErrProductNotFound is returned when a product lookup fails.
var ErrProductNotFound = errors.New("product not found")

const productColumns = `id, name, description, category, location, price_per_day,
       quantity_total, quantity_available, image_url, is_active, added_by, created_at, updated_at`

// ProductRepo provides CRUD operations for the equipment catalog. Price
// columns are DECIMAL(10,2); they are scanned through shopspring/decimal so
// no binary floating point ever touches a currency value.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo returns a ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *ProductRepo) DB() *sql.DB { return r.db }

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	var (
		p     model.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Location, &price,
		&p.QuantityTotal, &p.QuantityAvailable, &p.ImageURL, &p.IsActive, &p.AddedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if p.PricePerDay, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new product. Availability starts equal to the total
// quantity. After insert the record is read back so generated defaults and
// timestamps are populated on the passed struct.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const qInsert = `INSERT INTO products
	                 (name, description, category, location, price_per_day, quantity_total, quantity_available, image_url, added_by)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		p.Name, p.Description, p.Category, p.Location, p.PricePerDay.StringFixed(2),
		p.QuantityTotal, p.QuantityTotal, p.ImageURL, p.AddedBy)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	created, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}

// GetByID retrieves a product by its ID regardless of active flag. It
// returns ErrProductNotFound when no row is found.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetByIDForUpdateTx loads a product inside a transaction with a row lock,
// used when a rental is about to reserve units.
func (r *ProductRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Product, error) {
	p, err := scanProduct(tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

// ProductFilter narrows List results. Zero values mean "no filter"; the
// IsActive pointer distinguishes unset from explicit false.
type ProductFilter struct {
	Category string
	Location string
	IsActive *bool
	Skip     int
	Limit    int
}

// List returns catalog products matching the filter, newest first, along
// with the total count before pagination.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]*model.Product, int, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.Location != "" {
		where = append(where, "location = ?")
		args = append(args, f.Location)
	}
	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + productColumns + ` FROM products` + cond + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, f.Skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Locations returns the sorted distinct non-empty locations of active
// products, used to populate the catalog's location filter.
func (r *ProductRepo) Locations(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT location FROM products WHERE is_active = TRUE AND location <> '' ORDER BY location`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]string, 0)
	for rows.Next() {
		var loc string
		if err := rows.Scan(&loc); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the manager-editable fields. quantity_available is
// managed by the rental system and is never written here; the WHERE
// clause additionally refuses a quantity_total below the units still out
// on loan, keeping 0 <= available <= total. Zero matched rows means the
// product vanished or the guard failed, both reported as ErrConflict
// because the caller has just verified the product exists.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	const q = `UPDATE products
               SET name = ?, description = ?, category = ?, location = ?, price_per_day = ?,
                   quantity_total = ?, image_url = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND quantity_available <= ?`
	res, err := r.db.ExecContext(ctx, q,
		p.Name, p.Description, p.Category, p.Location, p.PricePerDay.StringFixed(2),
		p.QuantityTotal, p.ImageURL, p.IsActive, p.ID, p.QuantityTotal)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// SoftDelete deactivates a product instead of removing the row, so
// existing rentals keep their product reference. Returns sql.ErrNoRows
// when the product does not exist or is already inactive.
func (r *ProductRepo) SoftDelete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND is_active = TRUE`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdjustAvailabilityTx moves quantity_available by delta (negative to
// reserve, positive to release) within a transaction. The WHERE clause
// keeps availability inside [0, quantity_total]; when the guard matches no
// row the adjustment lost a race or over-releases, and ErrConflict is
// returned so the caller rolls back.
func (r *ProductRepo) AdjustAvailabilityTx(ctx context.Context, tx *sql.Tx, productID uint64, delta int32) error {
	const q = `UPDATE products
               SET quantity_available = quantity_available + ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?
                 AND quantity_available + ? >= 0
                 AND quantity_available + ? <= quantity_total`
	res, err := tx.ExecContext(ctx, q, delta, productID, delta, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}
