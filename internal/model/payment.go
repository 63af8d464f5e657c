package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatusPaid is the only status a payment row is ever written with.
// Failed confirmation attempts never produce a row.
const PaymentStatusPaid = "PAID"

// Payment records one confirmed payment event for an order.  At most one
// PAID payment may exist per order; the row is created exactly once by
// whichever confirmation path wins the order row lock, and never mutated.
type Payment struct {
	ID            uint64          // payments.id
	OrderID       uint64          // payments.order_id
	PaymentCode   string          // payments.payment_code (unique)
	BankName      *string         // payments.bank_name (payer metadata, nullable)
	AccountName   *string         // payments.account_name (nullable)
	AccountNumber *string         // payments.account_number (nullable)
	Amount        decimal.Decimal // payments.amount
	SlipImagePath *string         // payments.slip_image_path (nullable)
	Status        string          // payments.status
	CompletedAt   time.Time       // payments.completed_at
}
