package hw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nighttraders/dvfsgov/internal/units"
)

func TestSimVREG_HighRailAcceptsAllFourSetpoints(t *testing.T) {
	v := NewSimVREG()
	for _, mv := range []units.MV{1100, 1200, 1300, 1350} {
		require.NoError(t, v.SetVoltageMV(mv))
		assert.Equal(t, mv, v.CurrentMV())
	}
}

func TestSimVREG_NoHighRailRejects1350(t *testing.T) {
	v := NewSimVREGNoHighRail()
	require.NoError(t, v.SetVoltageMV(1300))
	assert.Error(t, v.SetVoltageMV(1350))
	assert.False(t, v.SupportsHighVoltage())
}

func TestSimVREG_RejectsUnknownSetpoint(t *testing.T) {
	v := NewSimVREG()
	assert.Error(t, v.SetVoltageMV(900))
}
