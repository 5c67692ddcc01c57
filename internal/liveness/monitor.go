// Package liveness ports main()'s core-1 watchdog check: poll the
// governor core's heartbeat counter every few seconds and react when it
// stops advancing.
package liveness

import (
	"context"
	"time"

	"github.com/nighttraders/dvfsgov/internal/state"
)

// PollInterval matches main.c's 5-second core1_wdt_ping check.
const PollInterval = 5 * time.Second

// Clock abstracts wall-clock reads for deterministic tests.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// Ticker abstracts the periodic wakeup so tests can drive Monitor.Run
// one tick at a time instead of waiting on a real 5-second timer.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewTickerFunc constructs the Ticker Monitor.Run uses; tests override
// this to inject a manually-fired channel.
type NewTickerFunc func(d time.Duration) Ticker

func defaultNewTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// Monitor watches state.Shared.WDTPing() for forward progress, standing
// in for the main-core watchdog loop in main.c.
type Monitor struct {
	// Clock is defaulted by Run but not otherwise read; Ticker drives pacing.
	Clock     Clock
	NewTicker NewTickerFunc
}

// NewMonitor returns a Monitor wired to the real clock and a real
// PollInterval ticker.
func NewMonitor() *Monitor {
	return &Monitor{Clock: wallClock{}, NewTicker: defaultNewTicker}
}

// Run polls sh.WDTPing() every PollInterval and calls onStall exactly
// once per stall: on the first poll at which the counter has not
// advanced, mirroring main.c's "core1_wdt_ping == last_ping_val" check
// before watchdog_reboot. Later polls of the same stall do not call it
// again; once the counter advances, a new stall is reported again. Run
// keeps monitoring after a stall is reported, in case the caller's
// onStall only logs rather than exiting the process.
func (m *Monitor) Run(ctx context.Context, sh *state.Shared, onStall func()) {
	if m.Clock == nil {
		m.Clock = wallClock{}
	}
	newTicker := m.NewTicker
	if newTicker == nil {
		newTicker = defaultNewTicker
	}

	ticker := newTicker(PollInterval)
	defer ticker.Stop()

	lastPing := sh.WDTPing()
	stalled := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			current := sh.WDTPing()
			if current == lastPing {
				if !stalled && onStall != nil {
					onStall()
				}
				stalled = true
			} else {
				stalled = false
			}
			lastPing = current
		}
	}
}
