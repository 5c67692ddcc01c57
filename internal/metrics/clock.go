package metrics

import "time"

// WallClock is the production Clock, backed by time.Now.
type WallClock struct{ start time.Time }

// NewWallClock returns a Clock whose NowMS is milliseconds since
// construction, mirroring the firmware's boot-relative millisecond
// timestamps rather than wall-clock epoch time.
func NewWallClock() *WallClock { return &WallClock{start: time.Now()} }

func (w *WallClock) NowMS() uint64 {
	return uint64(time.Since(w.start) / time.Millisecond)
}
