// Package stability ports pio_idle.h's PIO-driven stability arbiter: an
// EMA-smoothed idle fraction and heartbeat-period jitter tracker that
// gates frequency changes so the ramp engine never scales while the
// heartbeat is unstable.
package stability

import (
	"sync"

	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/util"
)

// StableCVPct is the jitter percentage below which a heartbeat period
// counts toward stable_count (spec.md §4.D).
const StableCVPct = 5.0

// idleEMAAlpha is the smoothing coefficient for the idle-fraction EMA,
// per spec.md §9's open-question resolution (no calibration data
// dictates otherwise).
const idleEMAAlpha = 0.25

// settleWindowPeriods is how many heartbeat periods after a frequency
// change are discarded from the jitter calculation, giving the PIO
// timing observer a chance to settle onto the new clock before its
// samples are trusted again.
const settleWindowPeriods = 2

// Snapshot is the read-only view spec.md §3 names "Stability Snapshot",
// served to govctl pio stats.
type Snapshot struct {
	IdleTicks     uint32
	IdleFraction  float64
	HBPeriodTicks uint32
	HBPeriodPrev  uint32
	HBJitterTicks int64
	HBJitterPct   float64
	StableCount   uint32
	SafeToScale   bool
}

// Arbiter drains a hw.PIOSource on every Poll and tracks idle fraction
// and heartbeat jitter. The zero value is not directly usable; use New.
// A nil *Arbiter is a valid receiver for Poll, NotifyFreqChange,
// SafeToScale and Snapshot (fail-open), matching the ramp engine's
// "if a stability arbiter is installed" seam.
type Arbiter struct {
	src hw.PIOSource

	mu sync.Mutex

	idleEMA *util.EMA

	hbPeriodPrev uint32
	hbPeriodCur  uint32
	haveHBPeriod bool

	// everSeenHB distinguishes cold start (no heartbeat data has ever
	// arrived, fail open) from settling after NotifyFreqChange (a
	// frequency change resets haveHBPeriod but must not reopen the
	// fail-open path). Unlike haveHBPeriod, NotifyFreqChange never
	// clears this.
	everSeenHB bool

	jitterTicks int64
	jitterPct   float64
	stableCount uint32

	settleRemaining int
}

// New returns an Arbiter polling src.
func New(src hw.PIOSource) *Arbiter {
	return &Arbiter{
		src:     src,
		idleEMA: util.NewEMA(idleEMAAlpha),
	}
}

// Poll drains both FIFOs once, updates the idle-fraction EMA, and on
// every new heartbeat period recomputes jitter and the stable_count
// run, per spec.md §4.D.
func (a *Arbiter) Poll() {
	if a == nil {
		return
	}
	idleTicks := a.src.PollIdleTicks()
	period, ok := a.src.PollHBPeriod()

	a.mu.Lock()
	defer a.mu.Unlock()

	// idleTicks alone is not a fraction; treat each polled window as a
	// [0,1] sample relative to the last observed heartbeat period so
	// the EMA has a stable denominator, mirroring the firmware's use
	// of the previous HB period as the polling-window length.
	denom := float64(a.hbPeriodCur)
	if denom == 0 {
		denom = 1
	}
	a.idleEMA.Next(util.Clamp01(float64(idleTicks) / denom))

	if !ok {
		return
	}

	a.hbPeriodPrev = a.hbPeriodCur
	a.hbPeriodCur = period

	if !a.haveHBPeriod {
		a.haveHBPeriod = true
		a.everSeenHB = true
		return
	}

	if a.settleRemaining > 0 {
		a.settleRemaining--
		return
	}

	a.jitterTicks = int64(a.hbPeriodCur) - int64(a.hbPeriodPrev)
	a.jitterPct = util.SafeDiv(absInt64(a.jitterTicks), float64(a.hbPeriodPrev)) * 100

	if a.jitterPct <= StableCVPct {
		a.stableCount++
	} else {
		a.stableCount = 0
	}
}

func absInt64(v int64) float64 {
	if v < 0 {
		return float64(-v)
	}
	return float64(v)
}

// NotifyFreqChange must be called immediately after every successful
// clock change (spec.md §4.D). It resets the previous-period baseline
// and opens a settle window during which new jitter samples are
// discarded, so a frequency change never itself looks like instability.
func (a *Arbiter) NotifyFreqChange(newKHz uint32) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.haveHBPeriod = false
	a.hbPeriodPrev = 0
	a.stableCount = 0
	a.settleRemaining = settleWindowPeriods
}

// SafeToScale reports whether the governor may safely request a new
// frequency: the idle fraction must not exceed idleThresh, the most
// recent jitter percentage must be within jitterThresh, and stableCount
// must have reached minStable consecutive quiet periods. A nil Arbiter
// (none installed) fails open, matching spec.md §4.D / §7's failsafe
// rule.
func (a *Arbiter) SafeToScale(idleThresh, jitterThresh float64, minStable uint32) bool {
	if a == nil {
		return true
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.everSeenHB {
		return true
	}
	return a.idleEMA.Value() <= idleThresh &&
		a.jitterPct <= jitterThresh &&
		a.stableCount >= minStable
}

// TicksToMicros converts PIO ticks to microseconds: each SM loop is two
// instructions per tick, so ticks*2000/sys_khz (spec.md §4.D).
func TicksToMicros(ticks uint32, sysKHz uint32) float64 {
	if sysKHz == 0 {
		return 0
	}
	return float64(ticks) * 2000.0 / float64(sysKHz)
}

// Snapshot returns the current stability state for introspection.
func (a *Arbiter) Snapshot() Snapshot {
	if a == nil {
		return Snapshot{SafeToScale: true}
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		IdleFraction:  a.idleEMA.Value(),
		HBPeriodTicks: a.hbPeriodCur,
		HBPeriodPrev:  a.hbPeriodPrev,
		HBJitterTicks: a.jitterTicks,
		HBJitterPct:   a.jitterPct,
		StableCount:   a.stableCount,
		SafeToScale:   a.jitterPct <= StableCVPct && a.stableCount > 0,
	}
}
