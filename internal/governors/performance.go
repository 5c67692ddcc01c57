// Package governors implements the four built-in policies from
// spec.md §4.G, each a governor.Descriptor factory sharing the
// non-blocking tick contract: advance wdt_ping, drive frequency changes
// through ramp.Engine.Step (never the blocking To), and return after a
// short cooperative sleep.
package governors

import (
	"time"

	"github.com/nighttraders/dvfsgov/internal/governor"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/metrics"
	"github.com/nighttraders/dvfsgov/internal/ramp"
	"github.com/nighttraders/dvfsgov/internal/state"
)

// sleeper lets tests swap out the cooperative sleep for something
// instant; production wiring passes time.Sleep.
type sleeper = func(time.Duration)

// clockFunc lets tests drive cooldown/hysteresis timers deterministically
// instead of racing the wall clock; production wiring passes time.Now.
type clockFunc = func() time.Time

// Performance ports governors_performance.c verbatim: always demands
// MAX_KHZ, pre-warming voltage at init.
func Performance(sh *state.Shared, eng *ramp.Engine, vreg hw.VREG, sleep sleeper) governor.Descriptor {
	return governor.Descriptor{
		Name: "performance",
		Init: func() {
			sh.SetTargetKHz(state.MaxKHz)
			_ = vreg.SetVoltageMV(ramp.MinVoltageForKHz(state.MaxKHz, vreg.SupportsHighVoltage()))
		},
		Tick: func(_ *metrics.Aggregate) {
			sh.IncWDTPing()
			sh.SetTargetKHz(state.MaxKHz)
			eng.Step(state.MaxKHz)
			sleep(200 * time.Millisecond)
		},
	}
}
