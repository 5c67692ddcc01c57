package hw

import "sync"

// SimPIOSource is a scriptable stand-in for the two PIO state machines
// described in spec.md §4.D: tests enqueue idle-tick counts and
// heartbeat periods exactly as the real state machines would emit them
// into their FIFOs, and the stability arbiter drains them on Poll.
type SimPIOSource struct {
	mu        sync.Mutex
	idleQueue []uint32
	hbQueue   []uint32
}

func NewSimPIOSource() *SimPIOSource {
	return &SimPIOSource{}
}

// PushIdleTicks enqueues one idle-window sample, as SM0 would after
// observing Core 0's idle-spin line for one polling window.
func (s *SimPIOSource) PushIdleTicks(ticks uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idleQueue = append(s.idleQueue, ticks)
}

// PushHBPeriod enqueues one heartbeat-period sample, as SM1 would after
// measuring the interval between two heartbeat pulses.
func (s *SimPIOSource) PushHBPeriod(ticks uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hbQueue = append(s.hbQueue, ticks)
}

func (s *SimPIOSource) PollIdleTicks() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.idleQueue) == 0 {
		return 0
	}
	v := s.idleQueue[0]
	s.idleQueue = s.idleQueue[1:]
	return v
}

func (s *SimPIOSource) PollHBPeriod() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.hbQueue) == 0 {
		return 0, false
	}
	v := s.hbQueue[0]
	s.hbQueue = s.hbQueue[1:]
	return v, true
}
