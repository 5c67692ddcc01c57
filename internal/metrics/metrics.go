// Package metrics ports metrics.c: a mutex-protected power-of-two ring
// buffer of workload samples, means computed on demand, and a separate
// lightweight kernel-tick snapshot channel.
package metrics

import "sync"

// Clock supplies sample timestamps. Tests inject a deterministic Clock
// the same way the teacher's proc package lets tests override
// CLK_TCK — the real program uses a wall-clock-backed implementation.
type Clock interface {
	NowMS() uint64
}

// Aggregate is produced on demand by Aggregate (spec.md §3). A
// zero-count Aggregate has zeroed means, never NaN or a divide-by-zero
// panic.
type Aggregate struct {
	Count           int
	AvgWorkload     float64
	AvgIntensity    float64
	AvgDurationMS   float64
	LastTimestampMS uint64
}

// KernelSnapshot is the sibling-core tick-cadence channel (spec.md §3),
// replaced atomically on every publish.
type KernelSnapshot struct {
	GovTickCount    uint64
	GovTickAvgMS    float64
	LastTimestampMS uint64
}

// Pipeline is the process-wide ring buffer plus the kernel snapshot
// slot, guarded by one mutex matching the original's single
// metrics_mutex covering both.
type Pipeline struct {
	mu    sync.Mutex
	ring  ring
	clock Clock

	haveSnapshot bool
	snapshot     KernelSnapshot
}

// New returns an empty Pipeline driven by clock.
func New(clock Clock) *Pipeline {
	return &Pipeline{clock: clock}
}

// Submit timestamps and inserts one sample, overwriting the oldest
// element when the ring is full.
func (p *Pipeline) Submit(workload, intensity, durationMS uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ring.push(Sample{
		Workload:    workload,
		Intensity:   intensity,
		DurationMS:  durationMS,
		TimestampMS: p.clock.NowMS(),
	})
}

// Aggregate walks the retained samples computing the three means. When
// consume is true the buffer is emptied afterward (spec.md §4.C).
// count == 0 returns a cleanly zeroed Aggregate.
func (p *Pipeline) Aggregate(consume bool) Aggregate {
	p.mu.Lock()
	defer p.mu.Unlock()

	var agg Aggregate
	var sumWorkload, sumIntensity, sumDuration float64

	p.ring.walk(func(s Sample) {
		agg.Count++
		sumWorkload += float64(s.Workload)
		sumIntensity += float64(s.Intensity)
		sumDuration += float64(s.DurationMS)
		agg.LastTimestampMS = s.TimestampMS
	})

	if agg.Count > 0 {
		n := float64(agg.Count)
		agg.AvgWorkload = sumWorkload / n
		agg.AvgIntensity = sumIntensity / n
		agg.AvgDurationMS = sumDuration / n
	}

	if consume {
		p.ring.clear()
	}
	return agg
}

// PublishKernelSnapshot atomically replaces the kernel-tick snapshot.
func (p *Pipeline) PublishKernelSnapshot(s KernelSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshot = s
	p.haveSnapshot = true
}

// KernelSnapshot returns the latest published snapshot. ok is false
// until at least one tick has been recorded, matching the original
// metrics_get_kernel_snapshot's return-1-if-nonzero-count contract.
func (p *Pipeline) KernelSnapshot() (KernelSnapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot, p.haveSnapshot
}
