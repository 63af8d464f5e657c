package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpiredStore struct {
	pending    []uint64
	failIDs    map[uint64]bool
	alreadyIDs map[uint64]bool
	cancelled  []uint64
	listErr    error
	gotCutoff  time.Time
}

func (f *fakeExpiredStore) ExpiredPendingIDs(_ context.Context, cutoff time.Time) ([]uint64, error) {
	f.gotCutoff = cutoff
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.pending, nil
}

func (f *fakeExpiredStore) CancelExpired(_ context.Context, orderID uint64) (bool, error) {
	if f.failIDs[orderID] {
		return false, errors.New("deadlock")
	}
	if f.alreadyIDs[orderID] {
		return false, nil
	}
	f.cancelled = append(f.cancelled, orderID)
	return true, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestSweepOnceCancelsAllExpired(t *testing.T) {
	store := &fakeExpiredStore{pending: []uint64{1, 2, 3}}
	s := NewOrderSweeper(store, 10*time.Minute, time.Minute, quietLogger())

	res, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Cancelled: 3}, res)
	assert.Equal(t, []uint64{1, 2, 3}, store.cancelled)
}

func TestSweepOnceCutoffUsesWindow(t *testing.T) {
	store := &fakeExpiredStore{}
	s := NewOrderSweeper(store, 10*time.Minute, time.Minute, quietLogger())

	before := time.Now().UTC().Add(-10 * time.Minute)
	_, err := s.SweepOnce(context.Background())
	after := time.Now().UTC().Add(-10 * time.Minute)

	require.NoError(t, err)
	assert.False(t, store.gotCutoff.Before(before))
	assert.False(t, store.gotCutoff.After(after))
}

func TestSweepOnceIsolatesFailures(t *testing.T) {
	store := &fakeExpiredStore{
		pending: []uint64{1, 2, 3, 4},
		failIDs: map[uint64]bool{2: true},
	}
	s := NewOrderSweeper(store, 10*time.Minute, time.Minute, quietLogger())

	res, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Cancelled: 3, Errors: 1}, res)
	assert.Equal(t, []uint64{1, 3, 4}, store.cancelled)
}

func TestSweepOnceCountsEveryFailure(t *testing.T) {
	store := &fakeExpiredStore{
		pending: []uint64{1, 2, 3, 4},
		failIDs: map[uint64]bool{2: true, 4: true},
	}
	s := NewOrderSweeper(store, 10*time.Minute, time.Minute, quietLogger())

	res, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Cancelled: 2, Errors: 2}, res)
	assert.Equal(t, []uint64{1, 3}, store.cancelled)
}

func TestSweepOnceSkipsOrdersPaidMeanwhile(t *testing.T) {
	store := &fakeExpiredStore{
		pending:    []uint64{7, 8},
		alreadyIDs: map[uint64]bool{7: true},
	}
	s := NewOrderSweeper(store, 10*time.Minute, time.Minute, quietLogger())

	res, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepResult{Cancelled: 1}, res)
	assert.Equal(t, []uint64{8}, store.cancelled)
}

func TestSweepOnceListError(t *testing.T) {
	store := &fakeExpiredStore{listErr: errors.New("db down")}
	s := NewOrderSweeper(store, 10*time.Minute, time.Minute, quietLogger())

	_, err := s.SweepOnce(context.Background())
	assert.Error(t, err)
}
