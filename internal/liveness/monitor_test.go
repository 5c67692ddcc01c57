package liveness

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nighttraders/dvfsgov/internal/state"
)

// manualTicker lets a test fire ticks on demand instead of waiting on
// PollInterval.
type manualTicker struct {
	ch chan time.Time
}

func newManualTicker() *manualTicker { return &manualTicker{ch: make(chan time.Time, 1)} }

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}
func (m *manualTicker) fire()               { m.ch <- time.Now() }

func TestMonitor_FiresOnStallWhenPingDoesNotAdvance(t *testing.T) {
	sh := state.New()
	mt := newManualTicker()
	mon := &Monitor{Clock: nil, NewTicker: func(time.Duration) Ticker { return mt }}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stalls int
	done := make(chan struct{})
	go func() {
		mon.Run(ctx, sh, func() { stalls++ })
		close(done)
	}()

	mt.fire()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 1, stalls)

	cancel()
	<-done
}

func TestMonitor_NoStallWhenPingAdvancesBetweenPolls(t *testing.T) {
	sh := state.New()
	mt := newManualTicker()
	mon := &Monitor{NewTicker: func(time.Duration) Ticker { return mt }}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stalls int
	done := make(chan struct{})
	go func() {
		mon.Run(ctx, sh, func() { stalls++ })
		close(done)
	}()

	sh.IncWDTPing()
	mt.fire()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, stalls)

	cancel()
	<-done
}

func TestMonitor_StopsPromptlyOnContextCancel(t *testing.T) {
	sh := state.New()
	mon := NewMonitor()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		mon.Run(ctx, sh, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
