// Package units provides small typed wrappers around the raw integers the
// governor framework passes around (clock frequency, supply voltage), each
// with a humanized string form for logging and the CLI.
package units

import "fmt"

// KHz is a clock frequency in kilohertz.
type KHz uint32

// MHz returns the frequency in megahertz as a float.
func (k KHz) MHz() float64 { return float64(k) / 1000.0 }

// String renders the frequency the way dmesg/stat lines do: "265.00MHz".
func (k KHz) String() string {
	return fmt.Sprintf("%.2fMHz", k.MHz())
}

// MV is a supply voltage in millivolts.
type MV uint32

// Volts returns the voltage in volts as a float.
func (m MV) Volts() float64 { return float64(m) / 1000.0 }

// Label renders the voltage the way voltage_label() does in the original
// firmware: "1.20V", falling back to "unknown" for unrecognized setpoints.
func (m MV) Label() string {
	switch m {
	case 1100:
		return "1.10V (default)"
	case 1200:
		return "1.20V"
	case 1300:
		return "1.30V"
	case 1350:
		return "1.35V"
	default:
		return "unknown"
	}
}

func (m MV) String() string {
	return fmt.Sprintf("%.2fV", m.Volts())
}
