package ctime

import (
	"sync/atomic"
	"time"
)

// Coarse cached wall clock. Leak reports and workload logging only need
// tick-level precision, so one ticker amortizes time.Now across all callers.

var nowUnix atomic.Int64

// Start begins refreshing the cached clock at the given resolution and
// returns a stop function. Until Start is called (and after stop), readers
// fall back to the real clock.
func Start(resolution time.Duration) (stop func()) {
	nowUnix.Store(time.Now().UnixNano())
	t := time.NewTicker(resolution)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case tt := <-t.C:
				nowUnix.Store(tt.UnixNano())
			case <-done:
				t.Stop()
				nowUnix.Store(0)
				return
			}
		}
	}()
	return func() { close(done) }
}

func Now() time.Time {
	if v := nowUnix.Load(); v != 0 {
		return time.Unix(0, v)
	}
	return time.Now()
}

func UnixNano() int64 {
	if v := nowUnix.Load(); v != 0 {
		return v
	}
	return time.Now().UnixNano()
}

func Since(t time.Time) time.Duration { return Now().Sub(t) }
