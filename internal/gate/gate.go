// Package gate bounds in-flight per-request work with a counted semaphore
// so the UDP server never drops a packet at receive time: acquisition
// suspends until a slot frees up rather than rejecting the caller.
//
// Grounded on golang.org/x/sync/semaphore, the same package already reached
// for by moby-moby's libnetwork resolver and by OWASP Amass's dnssrv package
// to bound exactly this kind of concurrent-lookup fan-out.
package gate

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate is a fixed-size concurrency limiter.
type Gate struct {
	sem *semaphore.Weighted
}

// New creates a Gate with room for size concurrent slot holders.
func New(size int64) *Gate {
	return &Gate{sem: semaphore.NewWeighted(size)}
}

// Acquire blocks until a slot is available or ctx is done. The returned
// release function must be called exactly once to free the slot; it is
// safe to call via defer on every exit path, including a recovered panic.
func (g *Gate) Acquire(ctx context.Context) (release func(), err error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { g.sem.Release(1) }, nil
}
