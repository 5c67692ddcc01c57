// Package ramp ports system.c's ramp_step/ramp_to/find_achievable_khz:
// the frequency ramp state machine with correctly sequenced voltage
// changes and cross-core lockout during PLL reconfiguration.
package ramp

import (
	"context"
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/hw"
	"github.com/nighttraders/dvfsgov/internal/stability"
	"github.com/nighttraders/dvfsgov/internal/units"
)

// Constants from spec.md §4.E.
const (
	RampStepKHz     units.KHz = 5_000
	RampDelayMS               = 10
	maxAchieveSteps           = 50
)

// State is the narrow read/write seam the ramp engine needs onto
// shared state: reads for target/current, and the restricted writer
// for the two fields only this package may mutate.
type State interface {
	TargetKHz() units.KHz
	SetTargetKHz(units.KHz)
	CurrentKHz() units.KHz
	IncWDTPing()
	SetCurrentKHz(units.KHz)
	SetCurrentVoltageMV(units.MV)
}

// Engine drives the frequency/voltage state machine.
type Engine struct {
	sh      State
	pll     hw.PLL
	vreg    hw.VREG
	lockout hw.Lockout
	arbiter *stability.Arbiter // nilable: "no arbiter installed" per spec.md §4.E step 7
	log     *dmesg.Log

	sleep func(time.Duration)
}

// New returns an Engine. arbiter may be nil.
func New(sh State, pll hw.PLL, vreg hw.VREG, lockout hw.Lockout, arbiter *stability.Arbiter, log *dmesg.Log) *Engine {
	return &Engine{sh: sh, pll: pll, vreg: vreg, lockout: lockout, arbiter: arbiter, log: log, sleep: time.Sleep}
}

// FindAchievable scans 1kHz at a time from candidate toward target for
// up to 50 steps, returning the first value the PLL validator accepts.
// If none validate, it returns target unchanged (spec.md §4.E).
func (e *Engine) FindAchievable(candidate, target units.KHz) units.KHz {
	if candidate == target {
		if _, _, _, _, ok := e.pll.Achievable(candidate); ok {
			return candidate
		}
	}

	dir := 1
	if target < candidate {
		dir = -1
	}

	cur := candidate
	for i := 0; i < maxAchieveSteps; i++ {
		if _, _, _, _, ok := e.pll.Achievable(cur); ok {
			return cur
		}
		if cur == target {
			break
		}
		if dir > 0 {
			cur++
		} else {
			cur--
		}
	}
	return target
}

func clampKHz(khz, lo, hi units.KHz) units.KHz {
	if khz < lo {
		return lo
	}
	if khz > hi {
		return hi
	}
	return khz
}

// Step implements the single-step algorithm from spec.md §4.E. It
// returns whether target was reached by this call.
func (e *Engine) Step(target units.KHz) (reached bool) {
	cur := e.sh.CurrentKHz()
	if cur == target {
		return true
	}

	var candidate units.KHz
	if target > cur {
		candidate = cur + RampStepKHz
		if candidate > target {
			candidate = target
		}
	} else {
		candidate = cur - RampStepKHz
		if candidate < target {
			candidate = target
		}
	}

	next := e.FindAchievable(candidate, target)
	steppingUp := next > cur

	if steppingUp {
		mv := minVoltageForKHz(next, e.vreg.SupportsHighVoltage())
		if err := e.vreg.SetVoltageMV(mv); err != nil && e.log != nil {
			e.log.Warnf("ramp: voltage set to %s failed before up-step to %s: %v", mv, next, err)
		} else {
			e.sh.SetCurrentVoltageMV(mv)
		}
	}

	e.lockout.Start()
	ok := e.pll.Set(next)
	e.lockout.End()

	if !ok {
		// PLL edge failure: clamp target back to current so the
		// governor stops retrying an unreachable value.
		if e.log != nil {
			e.log.Warnf("ramp: PLL refused %s (edge case), clamping target to current %s", next, cur)
		}
		e.sh.SetTargetKHz(cur)
		return true
	}

	if !steppingUp {
		mv := minVoltageForKHz(next, e.vreg.SupportsHighVoltage())
		if err := e.vreg.SetVoltageMV(mv); err != nil && e.log != nil {
			e.log.Warnf("ramp: voltage set to %s failed after down-step to %s: %v", mv, next, err)
		} else {
			e.sh.SetCurrentVoltageMV(mv)
		}
	}

	e.sh.SetCurrentKHz(next)
	if e.arbiter != nil {
		e.arbiter.NotifyFreqChange(uint32(next))
	}
	return next == target
}

// To is the blocking ramp (ramp_to): clamps to [lo,hi], loops Step with
// RampDelayMS pacing, and pings the watchdog after every step so long
// ramps never look like a stalled governor core. ctx cancellation is a
// Go-native addition with no original-firmware equivalent: a hosted
// ramp running as a cancellable goroutine should not block forever if
// its caller gives up. This is never exercised by the governors, which
// call Step directly per the non-blocking tick contract.
func (e *Engine) To(ctx context.Context, target units.KHz, lo, hi units.KHz) error {
	target = clampKHz(target, lo, hi)

	for {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		reached := e.Step(target)
		e.sh.IncWDTPing()
		if reached {
			return nil
		}

		e.sleep(RampDelayMS * time.Millisecond)
	}
}
