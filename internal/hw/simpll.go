package hw

import "github.com/nighttraders/dvfsgov/internal/units"

// SimPLL simulates the RP2040-class clock generator:
//
//	sys_clk = (xosc * fbdiv) / (pd1 * pd2)
//	VCO = xosc * fbdiv  must fall in [vcoMinKHz, vcoMaxKHz]
//	fbdiv in [fbdivMin, fbdivMax], pd1, pd2 in [1, 7]
//
// Many integer kHz targets have no valid divisor triple; Achievable
// reports exactly that, so callers (the ramp engine's achievability
// search) see the same "gaps" a real chip would have.
type SimPLL struct {
	XOSCKHz  uint32
	VCOMin   uint32
	VCOMax   uint32
	FBDivMin uint32
	FBDivMax uint32

	// edgeFail marks frequencies that Achievable reports valid but
	// Set refuses, modeling a PLL that is right on the edge of lock
	// for this particular piece of silicon (spec.md §8 scenario S4).
	edgeFail map[units.KHz]bool
}

// NewSimPLL returns a SimPLL configured with the divisor ranges spec.md
// §4.E names for this MCU class.
func NewSimPLL() *SimPLL {
	return &SimPLL{
		XOSCKHz:  12_000,
		VCOMin:   750_000,
		VCOMax:   1_600_000,
		FBDivMin: 16,
		FBDivMax: 320,
		edgeFail: make(map[units.KHz]bool),
	}
}

// FailAt marks khz as hardware-edge-unachievable: Achievable still
// reports it as valid (it has a real divisor triple) but Set will
// refuse it, so ramp.Engine must clamp target back to current.
func (p *SimPLL) FailAt(khz units.KHz) { p.edgeFail[khz] = true }

func (p *SimPLL) Achievable(khz units.KHz) (vco uint32, fbdiv, pd1, pd2 uint32, ok bool) {
	target := uint32(khz)
	if target == 0 {
		return 0, 0, 0, 0, false
	}
	for fb := int(p.FBDivMax); fb >= int(p.FBDivMin); fb-- {
		v := p.XOSCKHz * uint32(fb)
		if v < p.VCOMin || v > p.VCOMax {
			continue
		}
		for d1 := 7; d1 >= 1; d1-- {
			for d2 := d1; d2 >= 1; d2-- {
				denom := uint32(d1 * d2)
				if v%denom != 0 {
					continue
				}
				if v/denom == target {
					return v, uint32(fb), uint32(d1), uint32(d2), true
				}
			}
		}
	}
	return 0, 0, 0, 0, false
}

func (p *SimPLL) Set(khz units.KHz) bool {
	if _, _, _, _, ok := p.Achievable(khz); !ok {
		return false
	}
	return !p.edgeFail[khz]
}
