package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/studiokit/rental-backend/internal/lifecycle"
	"github.com/studiokit/rental-backend/internal/model"
)

// ErrRentalNotFound is returned when a rental lookup fails.
var ErrRentalNotFound = errors.New("rental not found")

// RentalRepo provides persistence for rentals. Status and payment updates
// are compare-and-set against the caller's known previous value: the
// database is the sole arbiter of whether the stored state still permits
// the transition, and a zero-row match surfaces as ErrConflict instead of
// silently overwriting a concurrent change.
type RentalRepo struct {
	db *sql.DB
}

// NewRentalRepo returns a RentalRepo bound to the given database.
func NewRentalRepo(db *sql.DB) *RentalRepo { return &RentalRepo{db: db} }

// DB exposes the underlying handle for callers that need transactions.
func (r *RentalRepo) DB() *sql.DB { return r.db }

const rentalColumns = `id, product_id, user_id, quantity, start_date, end_date, total_days,
       price_per_day, total_price, status, payment_status, notes, updated_by, created_at, updated_at`

func scanRental(row interface{ Scan(...any) error }) (*model.Rental, error) {
	var (
		m         model.Rental
		price     string
		total     string
		status    string
		payment   string
		updatedBy sql.NullInt64
	)
	err := row.Scan(&m.ID, &m.ProductID, &m.UserID, &m.Quantity, &m.StartDate, &m.EndDate, &m.TotalDays,
		&price, &total, &status, &payment, &m.Notes, &updatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if m.PricePerDay, err = decimal.NewFromString(price); err != nil {
		return nil, err
	}
	if m.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	m.Status = lifecycle.Status(status)
	m.PaymentStatus = lifecycle.PaymentStatus(payment)
	if updatedBy.Valid {
		ub := uint64(updatedBy.Int64)
		m.UpdatedBy = &ub
	}
	return &m, nil
}

// CreateTx inserts a new rental within the scope of an existing
// transaction. The row always starts in pending/unpaid; price fields are
// the snapshot computed by the pricing package. The generated ID and the
// database defaults are populated on the passed struct. The caller must
// commit or roll back the transaction.
func (r *RentalRepo) CreateTx(ctx context.Context, tx *sql.Tx, m *model.Rental) error {
	const qInsert = `INSERT INTO rentals
	                 (product_id, user_id, quantity, start_date, end_date, total_days, price_per_day, total_price, notes)
	                 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert,
		m.ProductID, m.UserID, m.Quantity, m.StartDate, m.EndDate, m.TotalDays,
		m.PricePerDay.StringFixed(2), m.TotalPrice.StringFixed(2), m.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)

	created, err := scanRental(tx.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE id = ?`, m.ID))
	if err != nil {
		return err
	}
	*m = *created
	return nil
}

// GetByID retrieves a rental by its ID. It returns ErrRentalNotFound when
// no row exists.
func (r *RentalRepo) GetByID(ctx context.Context, id uint64) (*model.Rental, error) {
	m, err := scanRental(r.db.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	return m, nil
}

// GetByIDForUpdateTx loads a rental inside a transaction with a row lock,
// used before applying a lifecycle transition.
func (r *RentalRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Rental, error) {
	m, err := scanRental(tx.QueryRowContext(ctx,
		`SELECT `+rentalColumns+` FROM rentals WHERE id = ? FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRentalNotFound
		}
		return nil, err
	}
	return m, nil
}

// UpdateStatusTx applies a status transition with compare-and-set
// semantics: the row is only written when the stored status still equals
// from. A zero-row match means the state advanced concurrently and the
// caller receives ErrConflict with nothing changed.
func (r *RentalRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, from, to lifecycle.Status, updatedBy uint64) error {
	const q = `UPDATE rentals
               SET status = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(to), updatedBy, id, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// UpdatePaymentTx applies a payment transition with the same
// compare-and-set contract as UpdateStatusTx.
func (r *RentalRepo) UpdatePaymentTx(ctx context.Context, tx *sql.Tx, id uint64, from, to lifecycle.PaymentStatus, updatedBy uint64) error {
	const q = `UPDATE rentals
               SET payment_status = ?, updated_by = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND payment_status = ?`
	res, err := tx.ExecContext(ctx, q, string(to), updatedBy, id, string(from))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// RentalDetail is the customer-facing view of a rental with the product
// summary joined in, returned by ListByUser. Prices are decimal strings so
// currency survives JSON untouched.
type RentalDetail struct {
	ID            uint64 `json:"id"`
	ProductID     uint64 `json:"product_id"`
	Quantity      uint32 `json:"quantity"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	TotalDays     uint32 `json:"total_days"`
	PricePerDay   string `json:"price_per_day"`
	TotalPrice    string `json:"total_price"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Notes         string `json:"notes,omitempty"`
	CreatedAt     string `json:"created_at"`
	Product       struct {
		Name     string `json:"name"`
		Category string `json:"category"`
		Location string `json:"location"`
		ImageURL string `json:"image_url,omitempty"`
	} `json:"product"`
}

// ManagerRentalDetail extends RentalDetail with the requesting customer's
// identity for manager listings.
type ManagerRentalDetail struct {
	RentalDetail
	User struct {
		ID        uint64 `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
	} `json:"user"`
}

const detailColumns = `r.id, r.product_id, r.quantity, r.start_date, r.end_date, r.total_days,
       r.price_per_day, r.total_price, r.status, r.payment_status, r.notes, r.created_at,
       p.name, p.category, p.location, p.image_url`

func scanDetail(rows *sql.Rows, extra ...any) (RentalDetail, error) {
	var (
		d          RentalDetail
		start, end time.Time
		created    time.Time
	)
	dest := []any{&d.ID, &d.ProductID, &d.Quantity, &start, &end, &d.TotalDays,
		&d.PricePerDay, &d.TotalPrice, &d.Status, &d.PaymentStatus, &d.Notes, &created,
		&d.Product.Name, &d.Product.Category, &d.Product.Location, &d.Product.ImageURL}
	dest = append(dest, extra...)
	if err := rows.Scan(dest...); err != nil {
		return RentalDetail{}, err
	}
	d.StartDate = start.UTC().Format("2006-01-02")
	d.EndDate = end.UTC().Format("2006-01-02")
	d.CreatedAt = created.UTC().Format(time.RFC3339)
	return d, nil
}

// ListByUser returns the rentals created by one user, newest first, with
// product details populated. An optional status narrows the result.
func (r *RentalRepo) ListByUser(ctx context.Context, userID uint64, status string) ([]RentalDetail, error) {
	q := `SELECT ` + detailColumns + `
          FROM rentals r
          JOIN products p ON p.id = r.product_id
          WHERE r.user_id = ?`
	args := []any{userID}
	if status != "" {
		q += ` AND r.status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY r.created_at DESC, r.id DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]RentalDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListAll returns every rental for manager views, newest first, with
// product and customer details populated, plus the total count before
// pagination. An optional status narrows the result.
func (r *RentalRepo) ListAll(ctx context.Context, status string, skip, limit int) ([]ManagerRentalDetail, int, error) {
	cond := ""
	args := []any{}
	if status != "" {
		cond = ` WHERE r.status = ?`
		args = append(args, status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rentals r`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + detailColumns + `, u.id, u.first_name, u.last_name, u.email
          FROM rentals r
          JOIN products p ON p.id = r.product_id
          JOIN users u ON u.id = r.user_id` + cond + `
          ORDER BY r.created_at DESC, r.id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, skip)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]ManagerRentalDetail, 0)
	for rows.Next() {
		var m ManagerRentalDetail
		d, err := scanDetail(rows, &m.User.ID, &m.User.FirstName, &m.User.LastName, &m.User.Email)
		if err != nil {
			return nil, 0, err
		}
		m.RentalDetail = d
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
