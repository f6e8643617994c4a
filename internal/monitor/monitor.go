// Package monitor runs the periodic low-stock sweep next to request handling.
package monitor

import (
	"context"
	"sync"
	"time"

	"go-kasir-ws/internal/metrics"

	"github.com/rs/zerolog"
)

// Sweeper is one pass over the inventory.
type Sweeper interface {
	Sweep(ctx context.Context) error
}

type Monitor struct {
	sweeper  Sweeper
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(sweeper Sweeper, interval time.Duration, log zerolog.Logger) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Monitor{sweeper: sweeper, interval: interval, log: log}
}

// Start ticks once right away and then every interval until Stop or ctx is done.
// Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done != nil {
		return
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.loop(ctx, m.done)

	m.log.Info().Dur("interval", m.interval).Msg("stock monitor started")
}

// Stop prevents further ticks and waits for an in-flight tick to return.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.log.Info().Msg("stock monitor stopped")
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// a tick that raced with cancellation is skipped
			if ctx.Err() != nil {
				return
			}
			m.tick(ctx)
		}
	}
}

func (m *Monitor) tick(ctx context.Context) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MonitorTickDuration)

	// a sweep that started runs to completion even if Stop is called meanwhile
	if err := m.sweeper.Sweep(context.WithoutCancel(ctx)); err != nil {
		metrics.MonitorTicks.WithLabelValues("error").Inc()
		m.log.Error().Err(err).Msg("stock sweep failed")
		return
	}
	metrics.MonitorTicks.WithLabelValues("ok").Inc()
}
