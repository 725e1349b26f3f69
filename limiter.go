package html2pdf

import (
	"sync"
	"sync/atomic"
)

// DefaultMaxConcurrent caps simultaneous browsing contexts. Each context
// costs the shared browser real memory, so the default is deliberately low.
const DefaultMaxConcurrent = 2

// admission is a counting gate bounding concurrent renders.
// Acquisition is non-blocking: callers over the ceiling are rejected
// immediately rather than queued.
type admission struct {
	ceiling  int64
	inflight atomic.Int64
}

func newAdmission(ceiling int) *admission {
	if ceiling < 1 {
		ceiling = 1
	}
	return &admission{ceiling: int64(ceiling)}
}

// tryAcquire reserves one render slot. The check-and-increment is a single
// CAS so two callers can never both claim the last slot. On success it
// returns a release function that is safe to call more than once but
// decrements exactly once.
func (a *admission) tryAcquire() (release func(), ok bool) {
	for {
		cur := a.inflight.Load()
		if cur >= a.ceiling {
			return nil, false
		}
		if a.inflight.CompareAndSwap(cur, cur+1) {
			var once sync.Once
			return func() {
				once.Do(func() { a.inflight.Add(-1) })
			}, true
		}
	}
}

// InFlight returns the number of renders currently holding a slot.
func (a *admission) InFlight() int64 {
	return a.inflight.Load()
}
