package hw

import "github.com/nighttraders/dvfsgov/internal/units"

// validVoltagesHigh is the setpoint table on chips with the 1.35V rail;
// validVoltagesLow is the fallback table used when that rail is absent,
// mirroring the firmware's `#if defined(VREG_VOLTAGE_1_35)` branch.
var validVoltagesHigh = map[units.MV]bool{1100: true, 1200: true, 1300: true, 1350: true}
var validVoltagesLow = map[units.MV]bool{1100: true, 1200: true, 1300: true}

// SimVREG simulates the on-die regulator's discrete setpoints.
type SimVREG struct {
	highVoltage bool
	current     units.MV
}

// NewSimVREG returns a regulator that supports the full 1.35V rail.
func NewSimVREG() *SimVREG {
	return &SimVREG{highVoltage: true, current: 1100}
}

// NewSimVREGNoHighRail returns a regulator lacking the 1.35V setpoint,
// for exercising the 1.30V fallback path.
func NewSimVREGNoHighRail() *SimVREG {
	return &SimVREG{highVoltage: false, current: 1100}
}

func (v *SimVREG) SetVoltageMV(mv units.MV) error {
	table := validVoltagesLow
	if v.highVoltage {
		table = validVoltagesHigh
	}
	if !table[mv] {
		return errInvalidVoltage(mv)
	}
	v.current = mv
	return nil
}

func (v *SimVREG) SupportsHighVoltage() bool { return v.highVoltage }

func (v *SimVREG) CurrentMV() units.MV { return v.current }

type errInvalidVoltage units.MV

func (e errInvalidVoltage) Error() string {
	return "hw: unsupported vreg setpoint " + units.MV(e).String()
}
