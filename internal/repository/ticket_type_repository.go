package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/concert-ticket-reservation/internal/model"
	"github.com/iliyamo/concert-ticket-reservation/internal/sqlutil"
)

// TicketTypeRepo provides access to the ticket_types table, which doubles
// as the stock ledger: total_quantity bounds how many units may ever be
// sold and sold_quantity tracks reserved-or-paid units.  All ledger
// mutations run inside a caller transaction with the row locked before the
// capacity check, so two concurrent purchases can never both observe the
// same free capacity.
type TicketTypeRepo struct {
	db *sql.DB
}

// NewTicketTypeRepo returns a TicketTypeRepo bound to the given database.
func NewTicketTypeRepo(db *sql.DB) *TicketTypeRepo { return &TicketTypeRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *TicketTypeRepo) DB() *sql.DB { return r.db }

// GetForUpdateTx loads a ticket type under an exclusive row lock.  The lock
// is held until the caller's transaction commits or rolls back.  Returns
// ErrTicketTypeNotFound when the row does not exist.
func (r *TicketTypeRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.TicketType, error) {
	const q = `SELECT id, event_id, name, price, total_quantity, sold_quantity
	           FROM ticket_types WHERE id = ? FOR UPDATE`
	var t model.TicketType
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.EventID, &t.Name, &t.Price, &t.TotalQuantity, &t.SoldQuantity,
	)
	if err == sql.ErrNoRows {
		return t, ErrTicketTypeNotFound
	}
	return t, err
}

// ReserveTx atomically reserves quantity units of a ticket type.  The row
// is locked first, then the post-increment bound is checked; on success
// sold_quantity is incremented and the ticket type as seen under the lock
// (including its current price) is returned.  On exhausted capacity an
// *InsufficientStockError carrying the remaining count is returned and no
// mutation happens.
func (r *TicketTypeRepo) ReserveTx(ctx context.Context, tx *sql.Tx, id uint64, quantity uint32) (model.TicketType, error) {
	t, err := r.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		return t, err
	}
	if t.SoldQuantity+quantity > t.TotalQuantity {
		return t, &InsufficientStockError{TicketTypeID: t.ID, Name: t.Name, Remaining: t.Remaining()}
	}
	const q = `UPDATE ticket_types SET sold_quantity = sold_quantity + ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, quantity, id); err != nil {
		return t, err
	}
	t.SoldQuantity += quantity
	return t, nil
}

// ReleaseTx returns previously reserved units to the ledger.  The decrement
// is floored at the currently reserved amount so sold_quantity can never go
// negative even if a release is replayed.
func (r *TicketTypeRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id uint64, quantity uint32) error {
	const q = `UPDATE ticket_types SET sold_quantity = sold_quantity - LEAST(sold_quantity, ?) WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, quantity, id)
	return err
}

// TicketTypeDetail is a catalog row joined with its event title, returned
// by the paginated listing endpoints.
type TicketTypeDetail struct {
	ID            uint64          `json:"id"`
	EventID       uint64          `json:"event_id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	TotalQuantity uint32          `json:"total_quantity"`
	SoldQuantity  uint32          `json:"sold_quantity"`
	EventTitle    string          `json:"event_title"`
}

// List returns a page of ticket types joined with their event title.
// eventID filters by event when non-zero; search matches the ticket type
// name or event title.  The second return value is the total row count for
// the same filters, used to build pagination metadata.
func (r *TicketTypeRepo) List(ctx context.Context, eventID uint64, search string, limit, offset int) ([]TicketTypeDetail, int, error) {
	where := " WHERE 1=1"
	args := make([]interface{}, 0, 4)
	if eventID != 0 {
		where += " AND t.event_id = ?"
		args = append(args, eventID)
	}
	if s := strings.TrimSpace(search); s != "" {
		where += " AND (t.name LIKE ? OR e.title LIKE ?)"
		pat := "%" + s + "%"
		args = append(args, pat, pat)
	}

	var total int
	countQ := `SELECT COUNT(*) FROM ticket_types t JOIN events e ON e.id = t.event_id` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT t.id, t.event_id, t.name, t.price, t.total_quantity, t.sold_quantity, e.title
	      FROM ticket_types t JOIN events e ON e.id = t.event_id` +
		where + ` ORDER BY t.id DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]TicketTypeDetail, 0)
	for rows.Next() {
		var d TicketTypeDetail
		if err := rows.Scan(&d.ID, &d.EventID, &d.Name, &d.Price, &d.TotalQuantity, &d.SoldQuantity, &d.EventTitle); err != nil {
			return nil, 0, err
		}
		list = append(list, d)
	}
	return list, total, rows.Err()
}

// GetByID loads a single ticket type with its event title and the event's
// organizer, used by handlers to enforce ownership.
func (r *TicketTypeRepo) GetByID(ctx context.Context, id uint64) (TicketTypeDetail, uint64, error) {
	const q = `SELECT t.id, t.event_id, t.name, t.price, t.total_quantity, t.sold_quantity, e.title, e.organizer_id
	           FROM ticket_types t JOIN events e ON e.id = t.event_id
	           WHERE t.id = ?`
	var d TicketTypeDetail
	var organizerID uint64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.EventID, &d.Name, &d.Price, &d.TotalQuantity, &d.SoldQuantity, &d.EventTitle, &organizerID,
	)
	return d, organizerID, err
}

// Create inserts a new ticket type and returns its ID.
func (r *TicketTypeRepo) Create(ctx context.Context, eventID uint64, name string, price decimal.Decimal, totalQuantity uint32) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO ticket_types (event_id, name, price, total_quantity) VALUES (?, ?, ?, ?)`,
		eventID, name, price, totalQuantity)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// UpdateTx applies a partial update inside the caller's transaction.
// Capacity validation (never shrinking total_quantity below sold_quantity)
// happens in the handler against the row read via GetForUpdateTx, so the
// bound cannot be broken by a purchase landing between check and write.
func (r *TicketTypeRepo) UpdateTx(ctx context.Context, tx *sql.Tx, id uint64, b *sqlutil.UpdateBuilder) error {
	query, args, ok := b.Build("id = ?", id)
	if !ok {
		return nil
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Delete removes a ticket type unless order items reference it.
func (r *TicketTypeRepo) Delete(ctx context.Context, id uint64) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM order_items WHERE ticket_type_id = ?`, id).Scan(&refs); err != nil {
		return err
	}
	if refs > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM ticket_types WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
