package governors

import (
	"errors"

	"github.com/nighttraders/dvfsgov/internal/state"
	"github.com/nighttraders/dvfsgov/internal/units"
)

// AdaptiveParams holds the adaptive governor's thirteen tunables
// (spec.md §3 Adaptive Governor Parameters), ported from
// governors_rp2040_perf.c's static rp_params struct.
type AdaptiveParams struct {
	CooldownMS       uint32     `yaml:"cooldown_ms"`
	RampUpCooldownMS uint32     `yaml:"ramp_up_cooldown_ms"`
	ThrHighIntensity float64    `yaml:"thr_high_intensity"`
	ThrMedIntensity  float64    `yaml:"thr_med_intensity"`
	ThrLowIntensity  float64    `yaml:"thr_low_intensity"`
	DurHighMS        float64    `yaml:"dur_high_ms"`
	DurMedMS         float64    `yaml:"dur_med_ms"`
	DurShortMS       float64    `yaml:"dur_short_ms"`
	TempBackoffC     float64    `yaml:"temp_backoff_c"`
	TempRestoreC     float64    `yaml:"temp_restore_c"`
	BackoffTargetKHz units.KHz  `yaml:"backoff_target_khz"`
	IdleTargetKHz    units.KHz  `yaml:"idle_target_khz"`
	IdleTimeoutMS    uint32     `yaml:"idle_timeout_ms"`
}

// DefaultAdaptiveParams mirrors the C struct's static initializer,
// except IdleTargetKHz, which starts at state.MinKHz so the idle target
// stays inside the clock bounds and the idle_target_khz range check.
func DefaultAdaptiveParams() AdaptiveParams {
	return AdaptiveParams{
		CooldownMS:       2000,
		RampUpCooldownMS: 500,
		ThrHighIntensity: 80.0,
		ThrMedIntensity:  60.0,
		ThrLowIntensity:  20.0,
		DurHighMS:        500.0,
		DurMedMS:         250.0,
		DurShortMS:       200.0,
		TempBackoffC:     72.0,
		TempRestoreC:     65.0,
		BackoffTargetKHz: 200_000,
		IdleTargetKHz:    125_000,
		IdleTimeoutMS:    5000,
	}
}

var (
	ErrUnknownParam = errors.New("governors: unknown adaptive parameter")
	ErrOutOfRange   = errors.New("governors: adaptive parameter value out of range")
)

// ParamNames lists every settable parameter, in the order
// rp2040_perf_list_params prints them.
var ParamNames = []string{
	"cooldown_ms", "thr_high_intensity", "thr_med_intensity", "thr_low_intensity",
	"dur_high_ms", "dur_med_ms", "dur_short_ms", "temp_backoff_C", "temp_restore_C",
	"backoff_target_khz", "idle_target_khz", "idle_timeout_ms", "ramp_up_cooldown_ms",
}

// SetParam validates and applies one named parameter. Only
// ramp_up_cooldown_ms (100..5000), backoff_target_khz and
// idle_target_khz (MinKHz..MaxKHz) and idle_timeout_ms (1000..60000)
// are range-checked; the other nine fields accept any value. Unknown
// names and out-of-range values reject with no state change.
func (p *AdaptiveParams) SetParam(name string, val float64) error {
	switch name {
	case "cooldown_ms":
		p.CooldownMS = uint32(val)
	case "ramp_up_cooldown_ms":
		if val < 100 || val > 5000 {
			return ErrOutOfRange
		}
		p.RampUpCooldownMS = uint32(val)
	case "thr_high_intensity":
		p.ThrHighIntensity = val
	case "thr_med_intensity":
		p.ThrMedIntensity = val
	case "thr_low_intensity":
		p.ThrLowIntensity = val
	case "dur_high_ms":
		p.DurHighMS = val
	case "dur_med_ms":
		p.DurMedMS = val
	case "dur_short_ms":
		p.DurShortMS = val
	case "temp_backoff_C":
		p.TempBackoffC = val
	case "temp_restore_C":
		p.TempRestoreC = val
	case "backoff_target_khz":
		if units.KHz(val) < state.MinKHz || units.KHz(val) > state.MaxKHz {
			return ErrOutOfRange
		}
		p.BackoffTargetKHz = units.KHz(val)
	case "idle_target_khz":
		if units.KHz(val) < state.MinKHz || units.KHz(val) > state.MaxKHz {
			return ErrOutOfRange
		}
		p.IdleTargetKHz = units.KHz(val)
	case "idle_timeout_ms":
		if val < 1000 || val > 60000 {
			return ErrOutOfRange
		}
		p.IdleTimeoutMS = uint32(val)
	default:
		return ErrUnknownParam
	}
	return nil
}

// GetParam returns one named parameter's current value as a float64.
func (p *AdaptiveParams) GetParam(name string) (float64, error) {
	switch name {
	case "cooldown_ms":
		return float64(p.CooldownMS), nil
	case "ramp_up_cooldown_ms":
		return float64(p.RampUpCooldownMS), nil
	case "thr_high_intensity":
		return p.ThrHighIntensity, nil
	case "thr_med_intensity":
		return p.ThrMedIntensity, nil
	case "thr_low_intensity":
		return p.ThrLowIntensity, nil
	case "dur_high_ms":
		return p.DurHighMS, nil
	case "dur_med_ms":
		return p.DurMedMS, nil
	case "dur_short_ms":
		return p.DurShortMS, nil
	case "temp_backoff_C":
		return p.TempBackoffC, nil
	case "temp_restore_C":
		return p.TempRestoreC, nil
	case "backoff_target_khz":
		return float64(p.BackoffTargetKHz), nil
	case "idle_target_khz":
		return float64(p.IdleTargetKHz), nil
	case "idle_timeout_ms":
		return float64(p.IdleTimeoutMS), nil
	default:
		return 0, ErrUnknownParam
	}
}
