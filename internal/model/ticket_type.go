package model

import "github.com/shopspring/decimal"

// TicketType is one category of ticket for an event and carries the stock
// ledger counters.  The invariant 0 <= SoldQuantity <= TotalQuantity must
// hold at all times; every mutation of SoldQuantity goes through
// repository.TicketTypeRepo under a row lock.
//
// Price is a DECIMAL(10,2) column; it is never stored or summed as a
// binary float.
type TicketType struct {
	ID            uint64          // ticket_types.id
	EventID       uint64          // ticket_types.event_id
	Name          string          // ticket_types.name
	Price         decimal.Decimal // ticket_types.price
	TotalQuantity uint32          // ticket_types.total_quantity
	SoldQuantity  uint32          // ticket_types.sold_quantity
}

// Remaining returns how many units are still available for sale.
func (t TicketType) Remaining() uint32 {
	if t.SoldQuantity >= t.TotalQuantity {
		return 0
	}
	return t.TotalQuantity - t.SoldQuantity
}

// AcceptsTotal reports whether capacity can be set to n without dropping
// below what is already sold.
func (t TicketType) AcceptsTotal(n uint32) bool {
	return n >= t.SoldQuantity
}
