package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/concert-ticket-reservation/internal/model"
	"github.com/iliyamo/concert-ticket-reservation/internal/repository"
)

// ExpiredOrders is the database-backed ExpiredOrderStore.  Each
// cancellation runs in its own transaction: the order row is re-read under
// lock, so an order paid between candidate selection and processing is
// left alone.
type ExpiredOrders struct {
	orders  *repository.OrderRepo
	tickets *repository.TicketTypeRepo
}

// NewExpiredOrders wires the store over the order and ticket repositories.
func NewExpiredOrders(orders *repository.OrderRepo, tickets *repository.TicketTypeRepo) *ExpiredOrders {
	return &ExpiredOrders{orders: orders, tickets: tickets}
}

// ExpiredPendingIDs lists PENDING orders older than the cutoff.
func (s *ExpiredOrders) ExpiredPendingIDs(ctx context.Context, cutoff time.Time) ([]uint64, error) {
	return s.orders.ExpiredPendingIDs(ctx, cutoff)
}

// CancelExpired cancels one expired order and releases its reserved stock.
// Returns false without error when the order was no longer PENDING by the
// time the row lock was acquired.
func (s *ExpiredOrders) CancelExpired(ctx context.Context, orderID uint64) (bool, error) {
	tx, err := s.orders.DB().BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	order, err := s.orders.GetForUpdateTx(ctx, tx, orderID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if order.Status != model.OrderStatusPending {
		return false, nil
	}

	items, err := s.orders.ItemsTx(ctx, tx, orderID)
	if err != nil {
		return false, err
	}
	for _, it := range items {
		if err := s.tickets.ReleaseTx(ctx, tx, it.TicketTypeID, it.Quantity); err != nil {
			return false, err
		}
	}
	if err := s.orders.SetStatusTx(ctx, tx, orderID, model.OrderStatusCancelled); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true
	return true, nil
}
