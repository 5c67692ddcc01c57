package bench

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nighttraders/dvfsgov/internal/dmesg"
	"github.com/nighttraders/dvfsgov/internal/metrics"
)

type fakeMetricsClock struct{}

func (fakeMetricsClock) NowMS() uint64 { return 0 }

// steppedClock advances by 1ms on every call, letting a test drive the
// submit cadence deterministically without a real busy-wait.
func steppedClock() clock {
	cur := time.Unix(0, 0)
	return func() time.Time {
		cur = cur.Add(time.Millisecond)
		return cur
	}
}

func TestRunCPU_SubmitsIntensitySamplesAtInterval(t *testing.T) {
	pipe := metrics.New(fakeMetricsClock{})

	res := runCPU(250*time.Millisecond, pipe, dmesg.New(), steppedClock())

	assert.Greater(t, res.Iterations, uint64(0))

	agg := pipe.Aggregate(false)
	assert.GreaterOrEqual(t, agg.Count, 2)
	assert.LessOrEqual(t, agg.AvgIntensity, 100.0)
	assert.GreaterOrEqual(t, agg.AvgIntensity, 1.0)
}

func TestRunCPU_NoPipelineDoesNotPanic(t *testing.T) {
	res := runCPU(50*time.Millisecond, nil, nil, steppedClock())
	assert.Greater(t, res.Iterations, uint64(0))
}
