package governors

import (
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/governor"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/metrics"
	"github.com/nighttraders/dvfsgov/internal/ramp"
	"github.com/nighttraders/dvfsgov/internal/state"
	"github.com/nighttraders/dvfsgov/internal/units"
)

const idleBackoffCooldown = 500 * time.Millisecond

// Ondemand ports governors_ondemand.c. The "precedence bug" spec.md §9
// flags belongs to schedutil, not this governor: governors_ondemand.c's
// conditions are an unambiguous if/else-if chain and are ported as
// written, including its 500ms idle-backoff rate limit.
func Ondemand(sh *state.Shared, eng *ramp.Engine, vreg hw.VREG, temp hw.TempSensor, log *dmesg.Log, clock clockFunc, sleep sleeper) governor.Descriptor {
	var lastIdleBackoff time.Time
	var lastLoggedTarget units.KHz

	return governor.Descriptor{
		Name: "ondemand",
		Init: func() {
			lastIdleBackoff = clock()
			sh.SetTargetKHz(state.MinKHz)
			lastLoggedTarget = state.MinKHz
			if log != nil {
				log.Infof("gov:ondemand initialized at idle")
			}
		},
		Tick: func(agg *metrics.Aggregate) {
			sh.IncWDTPing()
			tempC := temp.ReadCelsius()
			now := clock()

			haveSamples := agg != nil && agg.Count > 0
			isIdle := !haveSamples || agg.AvgIntensity < 30.0
			target := sh.TargetKHz()

			switch {
			case haveSamples && agg.AvgIntensity > 70.0:
				if state.MaxKHz > 250_000 {
					_ = vreg.SetVoltageMV(ramp.MinVoltageForKHz(state.MaxKHz, vreg.SupportsHighVoltage()))
				} else if state.MaxKHz > 200_000 {
					_ = vreg.SetVoltageMV(1200)
				}
				if target < state.MaxKHz {
					target += 30_000
				}
				if target > state.MaxKHz {
					target = state.MaxKHz
				}
				if target != lastLoggedTarget && log != nil {
					log.Infof("gov:ondemand ramp up (metrics)")
				}
				lastLoggedTarget = target

			case !isIdle && tempC < 50.0 && target < state.MaxKHz:
				target += 20_000
				if target > state.MaxKHz {
					target = state.MaxKHz
				}
				if target != lastLoggedTarget && log != nil {
					log.Infof("gov:ondemand ramp up")
				}
				lastLoggedTarget = target

			case tempC > 65.0 && target > state.MinKHz:
				target -= 10_000
				if target < state.MinKHz {
					target = state.MinKHz
				}
				if target != lastLoggedTarget && log != nil {
					log.Infof("gov:ondemand backoff (hot)")
				}
				lastLoggedTarget = target

			case isIdle && tempC < 48.0 && target > state.MinKHz && now.Sub(lastIdleBackoff) >= idleBackoffCooldown:
				target -= 10_000
				if target < state.MinKHz {
					target = state.MinKHz
				}
				lastIdleBackoff = now
				if target != lastLoggedTarget && log != nil {
					log.Infof("gov:ondemand idle backoff")
				}
				lastLoggedTarget = target
			}

			sh.SetTargetKHz(target)
			if target != sh.CurrentKHz() {
				eng.Step(target)
			}

			sleep(80 * time.Millisecond)
		},
	}
}
