// Package hw defines the narrow interfaces the ramp engine and stability
// arbiter use to reach the peripherals spec.md treats as real silicon
// (the PLL, the VREG, the on-die temperature sensor, the two PIO state
// machines, and the cross-core lockout primitive). Each interface is
// satisfied by a deterministic simulator in this package so the engine
// above it is fully exercised by `go test` with no hardware attached; a
// real board would satisfy the same interfaces with register pokes.
package hw

import "github.com/nighttraders/dvfsgov/internal/units"

// PLL answers whether a given frequency is one the clock generator can
// actually lock to, standing in for check_sys_clock_khz() in the
// original firmware.
type PLL interface {
	// Achievable reports whether khz has a valid (fbdiv, pd1, pd2)
	// divisor triple, and the triple itself when it does.
	Achievable(khz units.KHz) (vco uint32, fbdiv, pd1, pd2 uint32, ok bool)
	// Set attempts to reconfigure the clock generator to khz. It may
	// fail even when Achievable reported true, modeling a PLL lock
	// failure right at the edge of silicon capability (spec.md §4.E
	// step 6, §8 scenario S4).
	Set(khz units.KHz) bool
}

// VREG is the on-die linear voltage regulator. It exposes a small,
// discrete set of setpoints.
type VREG interface {
	SetVoltageMV(mv units.MV) error
	// SupportsHighVoltage reports whether 1350mV is available; when it
	// is not, the ramp engine falls back to 1300mV per spec.md §4.E's
	// voltage table.
	SupportsHighVoltage() bool
}

// TempSensor reads the on-board temperature ADC.
type TempSensor interface {
	ReadCelsius() float64
}

// PIOSource is the free-running timing observer backing the stability
// arbiter: one state machine counts idle ticks, the other measures the
// period between heartbeat pulses.
type PIOSource interface {
	// PollIdleTicks drains the idle-measurement FIFO and returns the
	// raw tick count observed since the last poll.
	PollIdleTicks() uint32
	// PollHBPeriod drains the heartbeat-period FIFO. ok is false when
	// no new period has completed since the last poll.
	PollHBPeriod() (ticks uint32, ok bool)
}

// Lockout is the cross-core mutual exclusion primitive used to hold the
// sibling core off for the duration of a PLL or flash reconfiguration,
// standing in for multicore_lockout_start_blocking/_end_blocking.
type Lockout interface {
	Start()
	End()
}
