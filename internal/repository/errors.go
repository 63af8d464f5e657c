// Package repository implements raw-SQL data access.  Multi-step mutations
// expose *Tx method variants that run inside a caller-owned transaction;
// the caller decides the commit/rollback boundary.  Sentinel errors defined
// here let handlers map failures onto HTTP statuses without inspecting SQL
// error strings.
package repository

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a delete or update cannot proceed because of
// dependent state.  Handlers translate this into HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrTicketTypeNotFound is returned by the stock ledger when a requested
// ticket type does not exist.
var ErrTicketTypeNotFound = errors.New("ticket type not found")

// ErrOrderNotPending is returned when a payment confirmation reaches an
// order that has already been resolved (PAID or CANCELLED).  Whichever
// writer lost the row-lock race observes this and takes no action.
var ErrOrderNotPending = errors.New("order is not pending")

// ErrDuplicatePayment is returned when a PAID payment already exists for an
// order.  It guards against two near-simultaneous confirmation calls.
var ErrDuplicatePayment = errors.New("payment already confirmed for this order")

// InsufficientStockError reports a reservation that failed because a ticket
// type ran out of capacity.  Remaining carries the exact count still
// available so the client can render precise guidance.
type InsufficientStockError struct {
	TicketTypeID uint64
	Name         string
	Remaining    uint32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s insufficient, remaining %d", e.Name, e.Remaining)
}
