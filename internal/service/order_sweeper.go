package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// ExpiredOrderStore is what the sweeper needs from the persistence layer:
// listing stale PENDING orders and cancelling one while releasing its
// reserved stock.  CancelExpired must be safe to race with payment
// confirmation and report false when the order was paid first.
type ExpiredOrderStore interface {
	ExpiredPendingIDs(ctx context.Context, cutoff time.Time) ([]uint64, error)
	CancelExpired(ctx context.Context, orderID uint64) (bool, error)
}

// OrderSweeper periodically cancels PENDING orders whose payment window
// has elapsed and returns their ticket stock to the pool.
type OrderSweeper struct {
	store    ExpiredOrderStore
	window   time.Duration
	interval time.Duration
	log      *logrus.Logger
}

// NewOrderSweeper builds a sweeper.  window is how long an order may stay
// PENDING; interval is how often the sweep runs.
func NewOrderSweeper(store ExpiredOrderStore, window, interval time.Duration, log *logrus.Logger) *OrderSweeper {
	return &OrderSweeper{store: store, window: window, interval: interval, log: log}
}

// SweepResult summarizes one sweep pass: how many orders were cancelled
// and how many failed cancellation and stay PENDING for the next pass.
type SweepResult struct {
	Cancelled int
	Errors    int
}

// Run sweeps on every tick until the context is cancelled.  Intended to be
// launched as a goroutine from main.
func (s *OrderSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				s.log.WithError(err).Error("order sweep failed")
			}
		}
	}
}

// SweepOnce cancels all currently expired PENDING orders.  Each order is
// processed independently: a failure on one is logged, counted in the
// result and the sweep moves on, so a single bad row cannot stall stock
// release for the rest.
func (s *OrderSweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	cutoff := time.Now().UTC().Add(-s.window)
	ids, err := s.store.ExpiredPendingIDs(ctx, cutoff)
	if err != nil {
		return SweepResult{}, err
	}
	var res SweepResult
	for _, id := range ids {
		ok, err := s.store.CancelExpired(ctx, id)
		if err != nil {
			s.log.WithError(err).WithField("order_id", id).Error("cancel expired order failed")
			res.Errors++
			continue
		}
		if ok {
			res.Cancelled++
		}
	}
	if res.Cancelled > 0 || res.Errors > 0 {
		s.log.WithFields(logrus.Fields{"cancelled": res.Cancelled, "errors": res.Errors, "cutoff": cutoff}).
			Info("expired pending orders processed")
	}
	return res, nil
}
