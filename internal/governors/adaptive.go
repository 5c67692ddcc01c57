package governors

import (
	"fmt"
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/governor"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/metrics"
	"github.com/nighttraders/dvfsgov/internal/persistence"
	"github.com/nighttraders/dvfsgov/internal/ramp"
	"github.com/nighttraders/dvfsgov/internal/state"
	"github.com/nighttraders/dvfsgov/internal/units"
)

// adaptiveRuntime carries the idle/active state machine's bookkeeping
// across ticks, ported from governors_rp2040_perf.c's module-scoped
// statics.
type adaptiveRuntime struct {
	params AdaptiveParams
	sector persistence.Sector

	lastAdjust     time.Time
	lastTargetSet  units.KHz
	adjustCount    uint32
	idleSwitchCnt  uint32
	lastActivity   time.Time
	inIdle         bool
}

// AdaptiveTuner is the live-tuning handle Adaptive returns, letting
// callers outside this package read and update its parameters without
// naming the unexported runtime type.
type AdaptiveTuner interface {
	AdaptiveParams() AdaptiveParams
	SetParam(name string, val float64) error
}

// AdaptiveParams exposes the live tunables for the CLI's tune get/set/
// list commands.
func (r *adaptiveRuntime) AdaptiveParams() AdaptiveParams { return r.params }

// SetParam validates, applies, and persists one tunable, matching
// rp2040_perf_set_param's persist_and_ok path.
func (r *adaptiveRuntime) SetParam(name string, val float64) error {
	if err := r.params.SetParam(name, val); err != nil {
		return err
	}
	if r.sector != nil {
		if blob, err := r.params.ToYAML(); err == nil {
			_ = persistence.SaveTuning(r.sector, blob)
		}
	}
	return nil
}

// Adaptive ports governors_rp2040_perf.c, renamed (this port makes no
// claim to run on the named hardware). Params are loaded from the
// persisted tuning blob at init if present, else the defaults; every
// accepted Set re-persists them.
func Adaptive(sh *state.Shared, eng *ramp.Engine, vreg hw.VREG, temp hw.TempSensor, log *dmesg.Log, sector persistence.Sector, clock clockFunc, sleep sleeper) (governor.Descriptor, *adaptiveRuntime) {
	rt := &adaptiveRuntime{params: DefaultAdaptiveParams(), sector: sector}

	d := governor.Descriptor{
		Name: "adaptive",
		Init: func() {
			if sector != nil {
				if blob, ok := persistence.LoadTuning(sector); ok {
					if p, err := UnmarshalAdaptiveParams(blob); err == nil {
						rt.params = p
						if log != nil {
							log.Infof("gov:adaptive loaded persisted params")
						}
					}
				}
			}

			if state.MaxKHz > 250_000 {
				_ = vreg.SetVoltageMV(ramp.MinVoltageForKHz(state.MaxKHz, vreg.SupportsHighVoltage()))
			} else if state.MaxKHz > 200_000 {
				_ = vreg.SetVoltageMV(1200)
			}

			sh.SetTargetKHz(rt.params.IdleTargetKHz)
			rt.lastActivity = clock()
			rt.inIdle = true
			if log != nil {
				log.Infof("gov:adaptive initialized (starting at idle target)")
			}
		},
		Tick: func(agg *metrics.Aggregate) {
			adaptiveTick(sh, eng, vreg, temp, log, rt, agg, clock)
			sleep(40 * time.Millisecond)
		},
		ExportStats: func() string {
			idleState := "no"
			if rt.inIdle {
				idleState = "YES"
			}
			return fmt.Sprintf("adaptive: adjustments=%d last_target=%s idle_state=%s idle_switches=%d",
				rt.adjustCount, rt.lastTargetSet, idleState, rt.idleSwitchCnt)
		},
	}

	return d, rt
}

func adaptiveTick(sh *state.Shared, eng *ramp.Engine, vreg hw.VREG, temp hw.TempSensor, log *dmesg.Log, rt *adaptiveRuntime, agg *metrics.Aggregate, clock clockFunc) {
	sh.IncWDTPing()

	now := clock()
	samples := 0
	if agg != nil {
		samples = agg.Count
	}

	if samples > 0 {
		rt.lastActivity = now
	}

	target := sh.TargetKHz()

	cooldown := time.Duration(rt.params.CooldownMS) * time.Millisecond
	if samples > 0 && now.Sub(rt.lastAdjust) > cooldown {
		highActivity := agg.AvgIntensity >= 90.0 ||
			(agg.AvgIntensity >= rt.params.ThrHighIntensity && agg.AvgDurationMS >= rt.params.DurHighMS)

		shouldBeIdle := false
		isRampUp := false
		newTarget := target

		if rt.inIdle && highActivity {
			rt.inIdle = false
			if log != nil {
				log.Infof("gov:adaptive exiting idle on high activity")
			}
			if state.MaxKHz > 250_000 {
				_ = vreg.SetVoltageMV(ramp.MinVoltageForKHz(state.MaxKHz, vreg.SupportsHighVoltage()))
			} else if state.MaxKHz > 200_000 {
				_ = vreg.SetVoltageMV(1200)
			}
		}

		switch {
		case highActivity:
			newTarget = state.MaxKHz
			isRampUp = newTarget > target
		case agg.AvgIntensity >= rt.params.ThrMedIntensity && agg.AvgDurationMS >= rt.params.DurMedMS:
			highStep := units.KHz(230_000)
			if state.MaxKHz < highStep {
				highStep = state.MaxKHz
			}
			newTarget = highStep
			isRampUp = newTarget > target
		case agg.AvgIntensity <= rt.params.ThrLowIntensity && agg.AvgDurationMS < rt.params.DurShortMS:
			newTarget = rt.params.IdleTargetKHz
			shouldBeIdle = true
		case agg.AvgIntensity <= 40.0:
			newTarget = rt.params.IdleTargetKHz
			shouldBeIdle = true
		default:
			newTarget = target
		}

		effectiveCooldown := cooldown
		if isRampUp && !rt.inIdle {
			effectiveCooldown = time.Duration(rt.params.RampUpCooldownMS) * time.Millisecond
		}

		if newTarget != target && now.Sub(rt.lastAdjust) > effectiveCooldown {
			if log != nil {
				dir := "down"
				if newTarget > target {
					dir = "up"
				}
				log.Infof("gov:adaptive metrics ramp-%s-> %s (i=%.1f%% dur=%.0fms)", dir, newTarget, agg.AvgIntensity, agg.AvgDurationMS)
			}
			target = newTarget
			sh.SetTargetKHz(target)
			rt.lastAdjust = now
			rt.lastTargetSet = target
			rt.adjustCount++
			if shouldBeIdle {
				rt.idleSwitchCnt++
				rt.inIdle = true
			}
		}
	} else if samples == 0 && !rt.inIdle {
		inactivity := now.Sub(rt.lastActivity)
		idleTimeout := time.Duration(rt.params.IdleTimeoutMS) * time.Millisecond
		if inactivity >= idleTimeout && now.Sub(rt.lastAdjust) > cooldown {
			target = rt.params.IdleTargetKHz
			sh.SetTargetKHz(target)
			rt.lastAdjust = now
			rt.lastTargetSet = target
			rt.idleSwitchCnt++
			rt.adjustCount++
			rt.inIdle = true
			if log != nil {
				log.Infof("gov:adaptive idle timeout (%s inactivity) -> %s", inactivity, target)
			}
		}
	}

	tempC := temp.ReadCelsius()
	if tempC > rt.params.TempBackoffC && target > rt.params.BackoffTargetKHz {
		target = rt.params.BackoffTargetKHz
		sh.SetTargetKHz(target)
		sh.SetThrottleActive(true)
		rt.inIdle = false
		if log != nil {
			log.Infof("gov:adaptive thermal backoff (param)")
		}
		rt.lastAdjust = now
		rt.lastTargetSet = target
		rt.adjustCount++
	} else if tempC < rt.params.TempRestoreC && target < state.MaxKHz && !rt.inIdle {
		target = state.MaxKHz
		sh.SetTargetKHz(target)
		sh.SetThrottleActive(false)
		if log != nil {
			log.Infof("gov:adaptive restoring target -> MAX")
		}
	}

	if target != sh.CurrentKHz() {
		eng.Step(target)
	}
}
