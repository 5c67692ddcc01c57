package governors

import (
	"math"
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/governor"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/metrics"
	"github.com/nighttraders/dvfsgov/internal/ramp"
	"github.com/nighttraders/dvfsgov/internal/state"
	"github.com/nighttraders/dvfsgov/internal/units"
)

const (
	schedutilIdleDecayAfter = 2 * time.Second
	schedutilIdleCooldown   = 500 * time.Millisecond
)

// Schedutil ports governors_schedutil.c's proportional intensity-to-
// frequency mapping. Per the §9 Open Question resolution, the
// hysteresis gate is implemented as the single conjunction the original
// intended — act only when the utilization percentage differs from the
// current target percentage by more than 5 points — rather than the
// published C's operator-precedence-broken
// `(uint32_t)util > cur+5 && target_khz != target || (uint32_t)util < cur-5`
// reading (`&&` binds tighter than `||` in C, so the clause is
// `(a && b) || c`, not the intended single comparison).
func Schedutil(sh *state.Shared, eng *ramp.Engine, vreg hw.VREG, temp hw.TempSensor, log *dmesg.Log, clock clockFunc, sleep sleeper) governor.Descriptor {
	var lastHighUtil, lastIdleBackoff time.Time
	var lastLoggedTarget units.KHz

	return governor.Descriptor{
		Name: "schedutil",
		Init: func() {
			now := clock()
			lastHighUtil, lastIdleBackoff = now, now
			sh.SetTargetKHz(state.MinKHz)
			lastLoggedTarget = state.MinKHz
			if log != nil {
				log.Infof("gov:schedutil initialized at idle")
			}
		},
		Tick: func(agg *metrics.Aggregate) {
			sh.IncWDTPing()
			tempC := temp.ReadCelsius()
			now := clock()

			hasMetrics := agg != nil && agg.Count > 0
			var util int
			if hasMetrics {
				util = int(agg.AvgIntensity)
				if log != nil {
					log.Infof("gov:schedutil metrics (util=%d%%)", util)
				}
				if util > 50 {
					lastHighUtil = now
				}
			} else {
				util = int((tempC - 32.0) * 0.5)
			}
			util = clampInt(util, 0, 100)

			span := int(state.MaxKHz) - int(state.MinKHz)
			target := units.KHz(int(state.MinKHz) + span*util/100)
			if target > state.MaxKHz {
				target = state.MaxKHz
			}
			if target < state.MinKHz {
				target = state.MinKHz
			}

			curTarget := sh.TargetKHz()
			currentTargetPercent := 0
			if span > 0 {
				currentTargetPercent = int(curTarget-state.MinKHz) * 100 / span
			}

			if curTarget != target && math.Abs(float64(util)-float64(currentTargetPercent)) > 5 {
				curTarget = target
				sh.SetTargetKHz(curTarget)
				if curTarget != lastLoggedTarget && log != nil {
					log.Infof("gov:schedutil target -> %s (util=%d%%)", curTarget, util)
				}
				lastLoggedTarget = curTarget
			}

			if !hasMetrics && util < 20 && tempC < 48.0 && curTarget > state.MinKHz &&
				now.Sub(lastHighUtil) > schedutilIdleDecayAfter &&
				now.Sub(lastIdleBackoff) >= schedutilIdleCooldown {
				curTarget -= 10_000
				if curTarget < state.MinKHz {
					curTarget = state.MinKHz
				}
				sh.SetTargetKHz(curTarget)
				lastIdleBackoff = now
				if curTarget != lastLoggedTarget && log != nil {
					log.Infof("gov:schedutil idle backoff")
				}
				lastLoggedTarget = curTarget
			}

			if curTarget > sh.CurrentKHz() {
				if curTarget > 250_000 {
					_ = vreg.SetVoltageMV(ramp.MinVoltageForKHz(curTarget, vreg.SupportsHighVoltage()))
				} else if curTarget > 200_000 {
					_ = vreg.SetVoltageMV(1200)
				}
			}

			if curTarget != sh.CurrentKHz() {
				eng.Step(curTarget)
			}

			sleep(60 * time.Millisecond)
		},
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
