package governors

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/metrics"
	"github.com/nighttraders/dvfsgov/internal/state"
	"github.com/nighttraders/dvfsgov/internal/units"
)

func TestOndemand_InitStartsAtMin(t *testing.T) {
	sh := state.New()
	eng, vreg, temp := newTestEngine(sh)
	clock := newFakeClock()
	d := Ondemand(sh, eng, vreg, temp, dmesg.New(), clock.Now, noSleep)

	d.Init()
	assert.Equal(t, state.MinKHz, sh.TargetKHz())
}

func TestOndemand_HighIntensityRampsUp(t *testing.T) {
	sh := state.New()
	eng, vreg, temp := newTestEngine(sh)
	temp.Set(40)
	clock := newFakeClock()
	d := Ondemand(sh, eng, vreg, temp, dmesg.New(), clock.Now, noSleep)
	d.Init()

	d.Tick(&metrics.Aggregate{Count: 1, AvgIntensity: 85})
	assert.Greater(t, sh.TargetKHz(), state.MinKHz)
}

func TestOndemand_HotBacksOff(t *testing.T) {
	sh := state.New()
	eng, vreg, temp := newTestEngine(sh)
	clock := newFakeClock()
	d := Ondemand(sh, eng, vreg, temp, dmesg.New(), clock.Now, noSleep)
	d.Init()
	sh.SetTargetKHz(200_000)

	temp.Set(70)
	d.Tick(&metrics.Aggregate{Count: 1, AvgIntensity: 40})
	assert.Less(t, sh.TargetKHz(), units.KHz(200_000))
}

func TestOndemand_IdleBackoffRateLimited(t *testing.T) {
	sh := state.New()
	eng, vreg, temp := newTestEngine(sh)
	temp.Set(40)
	clock := newFakeClock()
	d := Ondemand(sh, eng, vreg, temp, dmesg.New(), clock.Now, noSleep)
	d.Init()
	sh.SetTargetKHz(200_000)

	// Init starts the idle-backoff cooldown, so let it elapse first.
	clock.Advance(600 * time.Millisecond)
	d.Tick(nil) // idle, cool: backs off once
	first := sh.TargetKHz()
	require.Less(t, first, units.KHz(200_000))

	d.Tick(nil) // immediately again: cooldown blocks a second backoff
	assert.Equal(t, first, sh.TargetKHz())

	clock.Advance(600 * time.Millisecond)
	d.Tick(nil) // cooldown elapsed: backs off again
	assert.Less(t, sh.TargetKHz(), first)
}
