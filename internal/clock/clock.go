// Package clock abstracts the time sources the registry depends on, so
// merge and TTL-sweep logic can be driven deterministically in tests
// instead of against wall time.
package clock

import "time"

// Clock provides two distinct time sources: a monotonic counter (here,
// monotonic seconds) used for TTL deadlines and heartbeat bookkeeping,
// and a wall-clock seconds value used to stamp acknowledge-driven
// republication.
type Clock interface {
	MonotonicSeconds() int64
	WallSeconds() int64
}

// System is the production Clock backed by time.Now.
type System struct{}

// processStart anchors System.MonotonicSeconds to the wall clock once, at
// process start.
var processStart = time.Now()

// MonotonicSeconds returns the Unix-epoch second of process start plus the
// whole seconds elapsed since then, measured on the monotonic clock. It
// only needs to be non-decreasing for the lifetime of the process, which
// holds even if the wall clock is stepped.
func (System) MonotonicSeconds() int64 {
	return processStart.Unix() + int64(time.Since(processStart)/time.Second)
}

// WallSeconds returns the current wall-clock time in seconds since epoch.
func (System) WallSeconds() int64 {
	return time.Now().Unix()
}

// Fixed is a Clock that returns a fixed, mutable pair of values, for tests.
type Fixed struct {
	Mono int64
	Wall int64
}

// MonotonicSeconds returns the fixed monotonic value.
func (f *Fixed) MonotonicSeconds() int64 { return f.Mono }

// WallSeconds returns the fixed wall-clock value.
func (f *Fixed) WallSeconds() int64 { return f.Wall }

// Advance moves both clocks forward by the given number of seconds.
func (f *Fixed) Advance(seconds int64) {
	f.Mono += seconds
	f.Wall += seconds
}
