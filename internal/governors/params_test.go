package governors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdaptiveParams_SetGetRoundTrip(t *testing.T) {
	p := DefaultAdaptiveParams()
	require.NoError(t, p.SetParam("thr_high_intensity", 95))
	v, err := p.GetParam("thr_high_intensity")
	require.NoError(t, err)
	assert.Equal(t, 95.0, v)
}

func TestAdaptiveParams_RejectsUnknownName(t *testing.T) {
	p := DefaultAdaptiveParams()
	assert.ErrorIs(t, p.SetParam("not_a_param", 1), ErrUnknownParam)
}

func TestAdaptiveParams_RejectsOutOfRangeValues(t *testing.T) {
	p := DefaultAdaptiveParams()
	assert.ErrorIs(t, p.SetParam("ramp_up_cooldown_ms", 50), ErrOutOfRange)
	assert.ErrorIs(t, p.SetParam("idle_timeout_ms", 999_999), ErrOutOfRange)
	assert.ErrorIs(t, p.SetParam("idle_target_khz", 10), ErrOutOfRange)
}

func TestAdaptiveParams_RejectedSetLeavesValueUnchanged(t *testing.T) {
	p := DefaultAdaptiveParams()
	before := p.RampUpCooldownMS
	_ = p.SetParam("ramp_up_cooldown_ms", 50)
	assert.Equal(t, before, p.RampUpCooldownMS)
}

func TestAdaptiveParams_YAMLRoundTrip(t *testing.T) {
	p := DefaultAdaptiveParams()
	p.ThrHighIntensity = 77.5

	blob, err := p.ToYAML()
	require.NoError(t, err)

	got, err := UnmarshalAdaptiveParams(blob)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}
