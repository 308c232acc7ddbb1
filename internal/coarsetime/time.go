// Package coarsetime provides a clock that is cheap to read on every packet.
// The current time is refreshed every 50ms by a background goroutine.
package coarsetime

import (
	"sync/atomic"
	"time"
)

const tick = 50 * time.Millisecond

var now atomic.Pointer[time.Time]

func init() {
	store(time.Now())

	ticker := time.NewTicker(tick)
	go func() {
		for t := range ticker.C {
			store(t)
		}
	}()
}

func store(t time.Time) {
	now.Store(&t)
}

// Now returns the current time, at most one tick behind.
func Now() time.Time {
	return *now.Load()
}
