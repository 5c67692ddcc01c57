// Package kernel ports core1_entry's governor tick loop: pull the
// latest metric aggregate, hand it to the current governor, time the
// call, and publish a running snapshot for introspection.
package kernel

import (
	"context"
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/governor"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/metrics"
	"github.com/nighttraders/dvfsgov/internal/ramp"
	"github.com/nighttraders/dvfsgov/internal/state"
)

// Clock abstracts wall-clock reads so tests can drive the periodic
// stats branch without racing the real clock.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// idleSleep is invoked when no governor is current, standing in for
// core1_entry's sleep_ms(50) fallback. Overridable by tests.
var idleSleep = func(d time.Duration) { time.Sleep(d) }

// Run drives reg's current governor once per loop iteration until ctx
// is canceled, matching core1_entry's infinite while(true) reshaped
// into a cancellable goroutine. Metrics are consumed every tick
// (Aggregate(true)) so each cycle observes only fresh samples.
func Run(ctx context.Context, reg *governor.Registry, pipe *metrics.Pipeline, sh *state.Shared, log *dmesg.Log, temp hw.TempSensor, clock Clock) {
	if clock == nil {
		clock = wallClock{}
	}
	if log != nil {
		log.Infof("kernel: governor loop started")
	}

	var tickCount uint64
	var tickAvgMS float64
	lastStat := clock.Now()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		agg := pipe.Aggregate(true)

		now := clock.Now()
		if sh.LiveStats() && now.Sub(lastStat) >= time.Duration(sh.StatPeriodMS())*time.Millisecond {
			emitStat(sh, log, temp)
			lastStat = now
		}

		d, hasCurrent := reg.Current()
		if !hasCurrent || d.Tick == nil {
			idleSleep(50 * time.Millisecond)
			continue
		}

		t0 := clock.Now()
		var aggPtr *metrics.Aggregate
		if agg.Count > 0 {
			aggPtr = &agg
		}
		d.Tick(aggPtr)
		deltaMS := float64(clock.Now().Sub(t0)) / float64(time.Millisecond)

		tickCount++
		tickAvgMS = ((tickAvgMS * float64(tickCount-1)) + deltaMS) / float64(tickCount)

		pipe.PublishKernelSnapshot(metrics.KernelSnapshot{
			GovTickCount:    tickCount,
			GovTickAvgMS:    tickAvgMS,
			LastTimestampMS: uint64(clock.Now().UnixMilli()),
		})
	}
}

func emitStat(sh *state.Shared, log *dmesg.Log, temp hw.TempSensor) {
	if log == nil {
		return
	}
	var tempC float64
	if temp != nil {
		tempC = temp.ReadCelsius()
	}
	log.Infof("STAT clk=%s target=%s temp=%.1fC vreg=%s",
		sh.CurrentKHz(), sh.TargetKHz(), tempC, ramp.VoltageLabel(sh.CurrentVoltageMV()))
}
