package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/concert-ticket-reservation/internal/model"
)

// OrderRepo provides access to the orders and order_items tables.  Orders
// are created PENDING by the purchase flow and move to PAID or CANCELLED
// exactly once; all state transitions happen under a FOR UPDATE lock on the
// order row inside a caller-owned transaction, so the purchase flow, the
// payment gateway and the expiry sweeper serialize against each other
// through the database.
type OrderRepo struct {
	db *sql.DB
}

// NewOrderRepo returns an OrderRepo bound to the given database.
func NewOrderRepo(db *sql.DB) *OrderRepo { return &OrderRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions.
func (r *OrderRepo) DB() *sql.DB { return r.db }

// LockUserTx takes an exclusive lock on the purchaser's user row.  The
// purchase flow acquires it before the pending-order check so that two
// concurrent purchases by the same user serialize: the second blocks here
// until the first commits, then observes the freshly inserted PENDING
// order.  Returns sql.ErrNoRows for unknown users.
func (r *OrderRepo) LockUserTx(ctx context.Context, tx *sql.Tx, userID uint64) error {
	var id uint64
	return tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = ? FOR UPDATE`, userID).Scan(&id)
}

// FindActivePendingTx returns the user's most recent PENDING order, locked,
// or nil when the user has no unresolved order.
func (r *OrderRepo) FindActivePendingTx(ctx context.Context, tx *sql.Tx, userID uint64) (*model.Order, error) {
	const q = `SELECT id, order_code, user_id, total_amount, status, created_at
	           FROM orders
	           WHERE user_id = ? AND status = 'PENDING'
	           ORDER BY created_at DESC LIMIT 1
	           FOR UPDATE`
	var o model.Order
	err := tx.QueryRowContext(ctx, q, userID).Scan(
		&o.ID, &o.OrderCode, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// NextCodeTx computes the next order code for the given day.  The locking
// read on the day's highest existing code keeps the sequence race-free
// under concurrent same-day purchases; the UNIQUE index on order_code is
// the final arbiter.
func (r *OrderRepo) NextCodeTx(ctx context.Context, tx *sql.Tx, day time.Time) (string, error) {
	const q = `SELECT order_code FROM orders
	           WHERE order_code LIKE ?
	           ORDER BY order_code DESC LIMIT 1
	           FOR UPDATE`
	var last string
	err := tx.QueryRowContext(ctx, q, orderCodeDayPattern(day)).Scan(&last)
	if err == sql.ErrNoRows {
		last = ""
	} else if err != nil {
		return "", err
	}
	return NextOrderCode(day, last)
}

// CreateTx inserts a new order within the caller's transaction and
// populates the generated ID and created_at on the provided record.
func (r *OrderRepo) CreateTx(ctx context.Context, tx *sql.Tx, o *model.Order) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (order_code, user_id, total_amount, status) VALUES (?, ?, ?, ?)`,
		o.OrderCode, o.UserID, o.TotalAmount, o.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	o.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM orders WHERE id = ?`, o.ID).Scan(&o.CreatedAt)
}

// CreateItemsBulkTx inserts all line items of an order in one statement.
// Passing an empty slice has no effect and returns nil.
func (r *OrderRepo) CreateItemsBulkTx(ctx context.Context, tx *sql.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `INSERT INTO order_items (order_id, ticket_type_id, quantity, price_per_unit) VALUES `
	args := make([]interface{}, 0, len(items)*4)
	for i, it := range items {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, it.OrderID, it.TicketTypeID, it.Quantity, it.PricePerUnit)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetForUpdateTx loads an order under an exclusive row lock.  Payment
// confirmation and the sweeper both go through this read, which is what
// makes their PENDING checks serializable: whoever acquires the lock first
// wins, the loser observes the committed transition.
func (r *OrderRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Order, error) {
	const q = `SELECT id, order_code, user_id, total_amount, status, created_at
	           FROM orders WHERE id = ? FOR UPDATE`
	var o model.Order
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&o.ID, &o.OrderCode, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt,
	)
	return o, err
}

// Get loads an order without locking.  Read-only paths that only need
// ownership and status use it; anything that mutates the order goes
// through GetForUpdateTx instead.
func (r *OrderRepo) Get(ctx context.Context, id uint64) (model.Order, error) {
	const q = `SELECT id, order_code, user_id, total_amount, status, created_at
	           FROM orders WHERE id = ?`
	var o model.Order
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&o.ID, &o.OrderCode, &o.UserID, &o.TotalAmount, &o.Status, &o.CreatedAt,
	)
	return o, err
}

// SetStatusTx transitions an order's status.  Callers must hold the row
// lock and have verified the current status is PENDING.
func (r *OrderRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	return err
}

// ExpiredPendingIDs selects, without locks, the PENDING orders created
// before the cutoff.  The sweeper uses it to pick candidates, then
// re-checks each one under lock in its own transaction.
func (r *OrderRepo) ExpiredPendingIDs(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM orders WHERE status = 'PENDING' AND created_at < ?`, cutoff.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ItemsTx returns an order's line items within the caller's transaction.
// The sweeper reads them to know how much stock to release.
func (r *OrderRepo) ItemsTx(ctx context.Context, tx *sql.Tx, orderID uint64) ([]model.OrderItem, error) {
	const q = `SELECT id, order_id, ticket_type_id, quantity, price_per_unit
	           FROM order_items WHERE order_id = ?`
	rows, err := tx.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.OrderItem
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.TicketTypeID, &it.Quantity, &it.PricePerUnit); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// OrderItemSummary is one line of an order as shown in listings.
type OrderItemSummary struct {
	Name     string `json:"name"`
	Quantity uint32 `json:"qty"`
}

// OrderDetail is an order with its line-item summaries, as returned by the
// my-orders and admin listing endpoints.
type OrderDetail struct {
	ID          uint64             `json:"id"`
	OrderCode   string             `json:"order_code"`
	UserID      uint64             `json:"user_id,omitempty"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
	Status      string             `json:"status"`
	CreatedAt   time.Time          `json:"created_at"`
	Items       []OrderItemSummary `json:"items"`
}

// ListByUser returns all orders of one user, newest first, with items.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]OrderDetail, error) {
	const q = `SELECT id, order_code, user_id, total_amount, status, created_at
	           FROM orders WHERE user_id = ?
	           ORDER BY created_at DESC`
	return r.listDetails(ctx, q, userID)
}

// ListAll returns every order in the system, newest first, with items.
// Restricted to administrators at the handler level.
func (r *OrderRepo) ListAll(ctx context.Context) ([]OrderDetail, error) {
	const q = `SELECT id, order_code, user_id, total_amount, status, created_at
	           FROM orders
	           ORDER BY created_at DESC`
	return r.listDetails(ctx, q)
}

// listDetails runs an order query and populates line items for all returned
// orders with a single IN query.
func (r *OrderRepo) listDetails(ctx context.Context, query string, args ...interface{}) ([]OrderDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]OrderDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d OrderDetail
		if err := rows.Scan(&d.ID, &d.OrderCode, &d.UserID, &d.TotalAmount, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.Items = []OrderItemSummary{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	itemQ := `SELECT oi.order_id, t.name, oi.quantity
	          FROM order_items oi
	          JOIN ticket_types t ON t.id = oi.ticket_type_id
	          WHERE oi.order_id IN (` + strings.Join(placeholders, ",") + `)
	          ORDER BY oi.order_id, oi.id`
	irows, err := r.db.QueryContext(ctx, itemQ, ids...)
	if err != nil {
		return nil, err
	}
	defer irows.Close()
	for irows.Next() {
		var orderID uint64
		var s OrderItemSummary
		if err := irows.Scan(&orderID, &s.Name, &s.Quantity); err != nil {
			return nil, err
		}
		if idx, ok := index[orderID]; ok {
			details[idx].Items = append(details[idx].Items, s)
		}
	}
	return details, irows.Err()
}
