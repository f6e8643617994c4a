package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
	block chan struct{}
	seen  chan context.Context
}

func (s *countingSweeper) Sweep(ctx context.Context) error {
	s.calls.Add(1)
	if s.seen != nil {
		select {
		case s.seen <- ctx:
		default:
		}
	}
	if s.block != nil {
		<-s.block
	}
	return s.err
}

func TestMonitor_TicksImmediatelyThenOnInterval(t *testing.T) {
	sw := &countingSweeper{}
	m := New(sw, 10*time.Millisecond, zerolog.Nop())

	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool { return sw.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestMonitor_FirstTickDoesNotWaitForInterval(t *testing.T) {
	sw := &countingSweeper{}
	m := New(sw, time.Hour, zerolog.Nop())

	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool { return sw.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestMonitor_ContinuesAfterFailedTick(t *testing.T) {
	sw := &countingSweeper{err: errors.New("store unavailable")}
	m := New(sw, 10*time.Millisecond, zerolog.Nop())

	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestMonitor_StopWaitsForInFlightTick(t *testing.T) {
	sw := &countingSweeper{block: make(chan struct{}), seen: make(chan context.Context, 1)}
	m := New(sw, time.Hour, zerolog.Nop())
	m.Start(context.Background())

	var tickCtx context.Context
	select {
	case tickCtx = <-sw.seen:
	case <-time.After(time.Second):
		t.Fatal("sweep never started")
	}

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a sweep was running")
	case <-time.After(30 * time.Millisecond):
	}

	// the sweep's context is detached from the monitor's cancellation
	assert.NoError(t, tickCtx.Err())

	close(sw.block)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the sweep finished")
	}
	assert.Equal(t, int32(1), sw.calls.Load())
}

func TestMonitor_NoTicksAfterStop(t *testing.T) {
	sw := &countingSweeper{}
	m := New(sw, 5*time.Millisecond, zerolog.Nop())
	m.Start(context.Background())
	require.Eventually(t, func() bool { return sw.calls.Load() >= 1 }, time.Second, time.Millisecond)

	m.Stop()
	after := sw.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, sw.calls.Load())

	// a second Stop is harmless
	m.Stop()
}

func TestMonitor_StopsWithParentContext(t *testing.T) {
	sw := &countingSweeper{}
	m := New(sw, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx)
	require.Eventually(t, func() bool { return sw.calls.Load() >= 1 }, time.Second, time.Millisecond)

	cancel()
	m.Stop()
	after := sw.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, sw.calls.Load())
}
