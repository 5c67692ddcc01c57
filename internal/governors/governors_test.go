package governors

import (
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/ramp"
	"github.com/nighttraders/dvfsgov/internal/state"
)

// noSleep is the test-harness sleeper: governors must never actually
// block a test suite on their cooperative sleeps.
func noSleep(time.Duration) {}

// fakeClock is a manually-advanced clockFunc so cooldown/hysteresis
// timers are deterministic in tests instead of racing the wall clock.
type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(0, 0)} }

func (c *fakeClock) Now() time.Time { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestEngine(sh *state.Shared) (*ramp.Engine, *hw.SimVREG, *hw.SimTempSensor) {
	pll := hw.NewSimPLL()
	vreg := hw.NewSimVREG()
	lockout := hw.NewSimLockout()
	eng := ramp.New(sh, pll, vreg, lockout, nil, dmesg.New())
	return eng, vreg, hw.NewSimTempSensor(25.0)
}
