package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/iliyamo/concert-ticket-reservation/internal/model"
)

// PaymentRepo provides access to the payments table.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// GeneratePaymentCode produces a payment reference of the form
// PAY<unix-millis><4 random digits>.  Uniqueness is enforced by the
// UNIQUE index on payment_code.
func GeneratePaymentCode() string {
	return fmt.Sprintf("PAY%d%04d", time.Now().UnixMilli(), rand.Intn(10000))
}

// PaidExistsTx reports whether the order already has a PAID payment row.
// Called under the order row lock before inserting a new payment.
func (r *PaymentRepo) PaidExistsTx(ctx context.Context, tx *sql.Tx, orderID uint64) (bool, error) {
	var id uint64
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM payments WHERE order_id = ? AND status = 'PAID' LIMIT 1`,
		orderID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts a payment row within the caller's transaction and
// populates the generated ID on the provided record.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (order_id, payment_code, bank_name, account_name, account_number, amount, slip_image_path, status, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.OrderID, p.PaymentCode, p.BankName, p.AccountName, p.AccountNumber,
		p.Amount, p.SlipImagePath, p.Status, p.CompletedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// SlipPathByOrder returns the stored slip image path of the order's PAID
// payment, or sql.ErrNoRows when the order has no payment or no slip.
func (r *PaymentRepo) SlipPathByOrder(ctx context.Context, orderID uint64) (string, error) {
	var path sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT slip_image_path FROM payments WHERE order_id = ? AND status = 'PAID' LIMIT 1`,
		orderID).Scan(&path)
	if err != nil {
		return "", err
	}
	if !path.Valid || path.String == "" {
		return "", sql.ErrNoRows
	}
	return path.String, nil
}
