package ramp

import "github.com/nighttraders/dvfsgov/internal/units"

// Voltage/frequency table from spec.md §4.E.
const (
	voltage110 units.MV = 1100
	voltage120 units.MV = 1200
	voltage130 units.MV = 1300
	voltage135 units.MV = 1350
)

// minVoltageForKHz returns the minimum safe supply voltage for khz,
// falling back to 1.30V when the regulator lacks the 1.35V rail — the
// runtime equivalent of the firmware's
// "#if defined(VREG_VOLTAGE_1_35)" compile-time branch.
func minVoltageForKHz(khz units.KHz, supportsHighVoltage bool) units.MV {
	switch {
	case khz <= 200_000:
		return voltage110
	case khz <= 250_000:
		return voltage120
	default:
		if supportsHighVoltage {
			return voltage135
		}
		return voltage130
	}
}

// VoltageLabel renders a voltage the way the firmware's voltage_label()
// does, for dmesg lines and the CLI.
func VoltageLabel(mv units.MV) string { return mv.Label() }

// MinVoltageForKHz exposes minVoltageForKHz to callers outside this
// package (the governors' init pre-warm step).
func MinVoltageForKHz(khz units.KHz, supportsHighVoltage bool) units.MV {
	return minVoltageForKHz(khz, supportsHighVoltage)
}
