package hw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimPIOSource_FIFOOrderAndDrain(t *testing.T) {
	s := NewSimPIOSource()
	s.PushIdleTicks(10)
	s.PushIdleTicks(20)
	s.PushHBPeriod(100)

	assert.Equal(t, uint32(10), s.PollIdleTicks())
	assert.Equal(t, uint32(20), s.PollIdleTicks())
	assert.Equal(t, uint32(0), s.PollIdleTicks(), "empty FIFO polls as 0")

	ticks, ok := s.PollHBPeriod()
	assert.True(t, ok)
	assert.Equal(t, uint32(100), ticks)

	_, ok = s.PollHBPeriod()
	assert.False(t, ok, "empty FIFO reports no new period")
}

func TestSimLockout_TracksHaltedState(t *testing.T) {
	l := NewSimLockout()
	assert.False(t, l.Halted())
	l.Start()
	assert.True(t, l.Halted())
	l.End()
	assert.False(t, l.Halted())
}
