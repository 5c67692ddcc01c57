// Package bench ports benchmark.c's cpu benchmark into a synthetic
// CPU-bound workload generator: a tight loop that periodically submits
// measured intensity and duration to a metrics.Pipeline, giving
// cmd/govctl a real (if synthetic) load source to exercise governors
// end-to-end, per spec.md's explicitly out-of-scope "benchmark
// harness" external collaborator.
package bench

import (
	"time"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/metrics"
)

// SubmitInterval mirrors measure_cpu's "every ~100ms" metrics_submit
// cadence.
const SubmitInterval = 100 * time.Millisecond

// itersPerFullInterval is benchmark.c's "rough calibration: assume
// ~5,000,000 iters/100ms ~ 100%" constant, kept at the firmware's value
// rather than rescaled for this host's clock speed.
const itersPerFullInterval = 5_000_000

// Result summarizes one CPU benchmark run, mirroring measure_cpu's END
// log line.
type Result struct {
	Iterations uint64
	Elapsed    time.Duration
	IterPerSec float64
}

// clock lets tests run CPU without a real time.Sleep/time.Now cadence.
type clock = func() time.Time

// RunCPU busy-loops for duration, submitting an intensity/duration
// sample to pipe every SubmitInterval, and logs a start/end line the
// way measure_cpu does.
func RunCPU(duration time.Duration, pipe *metrics.Pipeline, log *dmesg.Log) Result {
	return runCPU(duration, pipe, log, time.Now)
}

func runCPU(duration time.Duration, pipe *metrics.Pipeline, log *dmesg.Log, now clock) Result {
	start := now()
	end := start.Add(duration)

	if log != nil {
		log.Infof("[bench:cpu] START duration=%s", duration)
	}

	var acc uint32
	var iter uint64
	lastSubmit := start
	lastSnapshot := uint64(0)

	for now().Before(end) {
		acc += uint32(iter ^ (iter << 1))
		iter++

		t := now()
		if t.Sub(lastSubmit) >= SubmitInterval {
			itersDone := iter - lastSnapshot
			lastSnapshot = iter

			intensity := float64(itersDone) / itersPerFullInterval * 100.0
			if intensity < 1.0 {
				intensity = 1.0
			}
			if intensity > 100.0 {
				intensity = 100.0
			}

			if pipe != nil {
				pipe.Submit(100, uint32(intensity), 100)
			}
			if log != nil {
				log.Infof("bench:cpu @%s iters=%d intensity=%.0f%%", t.Sub(start), iter, intensity)
			}
			lastSubmit = t
		}
	}

	elapsed := now().Sub(start)
	secs := elapsed.Seconds()
	var rate float64
	if secs > 0 {
		rate = float64(iter) / secs
	}
	_ = acc

	if log != nil {
		log.Infof("[bench:cpu] END iterations=%d time=%.3fs rate=%.1f Miter/s", iter, secs, rate/1e6)
	}

	return Result{Iterations: iter, Elapsed: elapsed, IterPerSec: rate}
}
