package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values.  PENDING orders hold reserved stock until they are
// paid or swept; PAID and CANCELLED are terminal.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusCancelled = "CANCELLED"
)

// Order is one purchase attempt by one user.  TotalAmount is frozen at
// creation time; later ticket price changes never affect it.
type Order struct {
	ID          uint64          // orders.id
	OrderCode   string          // orders.order_code (ORD-YYYYMMDD-NNNN, unique)
	UserID      uint64          // orders.user_id
	TotalAmount decimal.Decimal // orders.total_amount
	Status      string          // orders.status
	CreatedAt   time.Time       // orders.created_at
}

// OrderItem is an immutable line-item snapshot.  PricePerUnit is the ticket
// price captured under the row lock at reservation time.
type OrderItem struct {
	ID           uint64          // order_items.id
	OrderID      uint64          // order_items.order_id
	TicketTypeID uint64          // order_items.ticket_type_id
	Quantity     uint32          // order_items.quantity (always > 0)
	PricePerUnit decimal.Decimal // order_items.price_per_unit
}
