package hw

import "sync/atomic"

// SimLockout simulates multicore_lockout_start_blocking/_end_blocking:
// while held, the sibling core is considered halted. Tests assert on
// Halted() around PLL/flash operations to verify spec.md §8 property 2
// (the sibling never runs mid-transition).
type SimLockout struct {
	halted atomic.Bool
}

func NewSimLockout() *SimLockout { return &SimLockout{} }

func (l *SimLockout) Start() { l.halted.Store(true) }
func (l *SimLockout) End()   { l.halted.Store(false) }

// Halted reports whether the sibling is currently held off.
func (l *SimLockout) Halted() bool { return l.halted.Load() }
