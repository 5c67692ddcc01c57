// Package state holds the word-sized fields shared between the two
// simulated cores: the governor core, which owns most writes, and the
// shell/liveness core, which reads almost everything and owns a small
// number of fields of its own (see the ownership table in the Shared
// type's doc below).
//
// Every field is a single atomic cell so a reader never observes a
// torn value, matching the "word-sized for lock-free read" requirement
// on the shared state block this type replaces.
package state

import (
	"sync/atomic"

	"github.com/nighttraders/dvfsgov/internal/units"
)

// Bounds on the clock frequency the ramp engine may ever report.
const (
	MinKHz units.KHz = 125_000
	MaxKHz units.KHz = 265_000
)

// Shared is the process-wide state block. The zero value is not usable;
// construct one with New.
//
// Ownership of writes (see spec §5):
//   - CurrentKHz / CurrentVoltageMV: ramp engine only (RampWriter).
//   - TargetKHz: governor core, or the shell via SetTargetKHz (benign race).
//   - LiveStats / StatPeriodMS: shell.
//   - WDTPing: both cores, via IncWDTPing.
//   - ThrottleActive: governor, on thermal backoff.
type Shared struct {
	targetKHz      atomic.Uint32
	currentKHz     atomic.Uint32
	currentVoltage atomic.Uint32
	liveStats      atomic.Bool
	throttle       atomic.Bool
	wdtPing        atomic.Uint64
	statPeriodMS   atomic.Uint32
}

// New returns a Shared block initialized the way the firmware boots:
// current clock at the floor, target at the ceiling (the default
// governor then ramps down if it disagrees), stats off, a 500ms stat
// period and the minimum safe voltage for MinKHz.
func New() *Shared {
	s := &Shared{}
	s.currentKHz.Store(uint32(MinKHz))
	s.targetKHz.Store(uint32(MaxKHz))
	s.currentVoltage.Store(1100)
	s.statPeriodMS.Store(500)
	return s
}

func (s *Shared) TargetKHz() units.KHz { return units.KHz(s.targetKHz.Load()) }

// SetTargetKHz is the one write any caller, including the shell, may
// perform directly; races with the governor core are benign because the
// governor simply observes whatever value lands here on its next tick.
func (s *Shared) SetTargetKHz(khz units.KHz) { s.targetKHz.Store(uint32(khz)) }

func (s *Shared) CurrentKHz() units.KHz { return units.KHz(s.currentKHz.Load()) }

func (s *Shared) CurrentVoltageMV() units.MV { return units.MV(s.currentVoltage.Load()) }

func (s *Shared) LiveStats() bool      { return s.liveStats.Load() }
func (s *Shared) SetLiveStats(v bool)  { s.liveStats.Store(v) }
func (s *Shared) ThrottleActive() bool { return s.throttle.Load() }
func (s *Shared) SetThrottleActive(v bool) {
	s.throttle.Store(v)
}

func (s *Shared) WDTPing() uint64   { return s.wdtPing.Load() }
func (s *Shared) IncWDTPing()       { s.wdtPing.Add(1) }
func (s *Shared) StatPeriodMS() uint32     { return s.statPeriodMS.Load() }
func (s *Shared) SetStatPeriodMS(ms uint32) { s.statPeriodMS.Store(ms) }

// RampWriter groups the setters for the two fields only the ramp engine
// writes. The setters are exported methods of Shared, so any holder of a
// *Shared can call them; in this module only internal/ramp does, which
// mirrors how the firmware only ever calls vreg_for_khz()/current_khz
// assignment from inside ramp_step().
type RampWriter interface {
	SetCurrentKHz(units.KHz)
	SetCurrentVoltageMV(units.MV)
}

func (s *Shared) SetCurrentKHz(khz units.KHz)      { s.currentKHz.Store(uint32(khz)) }
func (s *Shared) SetCurrentVoltageMV(mv units.MV)  { s.currentVoltage.Store(uint32(mv)) }

var _ RampWriter = (*Shared)(nil)
