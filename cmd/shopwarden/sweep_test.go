// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ShopWarden Contributors

package main

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shopwarden/shopwarden/internal/observability"
)

// fakeSweeper counts calls and returns canned results.
type fakeSweeper struct {
	purgeCalls atomic.Int64
	clearCalls atomic.Int64
	purgeCount int64
	clearCount int64
	purgeErr   error
	clearErr   error
	seenWindow time.Duration
}

func (f *fakeSweeper) PurgeInactive(_ context.Context, window time.Duration) (int64, error) {
	f.purgeCalls.Add(1)
	f.seenWindow = window
	return f.purgeCount, f.purgeErr
}

func (f *fakeSweeper) ClearExpiredTickets(_ context.Context) (int64, error) {
	f.clearCalls.Add(1)
	return f.clearCount, f.clearErr
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetrics(prometheus.NewRegistry())
}

func TestSweepOnce_RecordsMetrics(t *testing.T) {
	sweeper := &fakeSweeper{purgeCount: 3, clearCount: 2}
	metrics := newTestMetrics()

	sweepOnce(context.Background(), sweeper, metrics, 30*24*time.Hour)

	assert.Equal(t, int64(1), sweeper.purgeCalls.Load())
	assert.Equal(t, int64(1), sweeper.clearCalls.Load())
	assert.Equal(t, 30*24*time.Hour, sweeper.seenWindow)
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.IdentitiesPurged))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.TicketsCleared))
}

func TestSweepOnce_PurgeFailureDoesNotBlockTicketSweep(t *testing.T) {
	sweeper := &fakeSweeper{purgeErr: errors.New("db down"), clearCount: 1}
	metrics := newTestMetrics()

	sweepOnce(context.Background(), sweeper, metrics, time.Hour)

	assert.Equal(t, int64(1), sweeper.clearCalls.Load())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.IdentitiesPurged))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TicketsCleared))
}

func TestSweepOnce_ClearFailureLeavesCounterUntouched(t *testing.T) {
	sweeper := &fakeSweeper{purgeCount: 1, clearErr: errors.New("db down")}
	metrics := newTestMetrics()

	sweepOnce(context.Background(), sweeper, metrics, time.Hour)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.IdentitiesPurged))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.TicketsCleared))
}

func TestRunSweepLoop_SweepsImmediatelyAndStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	sweeper := &fakeSweeper{}
	metrics := newTestMetrics()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		runSweepLoop(ctx, sweeper, metrics, time.Hour, time.Hour)
	}()

	// The first sweep runs before the first tick.
	require.Eventually(t, func() bool {
		return sweeper.purgeCalls.Load() == 1 && sweeper.clearCalls.Load() == 1
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep loop did not stop after context cancellation")
	}
}

func TestRunSweepLoop_TicksRepeatedly(t *testing.T) {
	defer goleak.VerifyNone(t)

	sweeper := &fakeSweeper{}
	metrics := newTestMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runSweepLoop(ctx, sweeper, metrics, 10*time.Millisecond, time.Hour)
	}()

	require.Eventually(t, func() bool {
		return sweeper.purgeCalls.Load() >= 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}

func TestSweepCommand_Properties(t *testing.T) {
	cmd := NewSweepCmd()

	assert.Equal(t, "sweep", cmd.Use)
	assert.Contains(t, cmd.Long, "inactivity window")
	assert.Contains(t, cmd.Long, "reset tickets")
}
