package indexer

import "sync/atomic"

// runLock provides non-blocking lock semantics. A second Run while one is
// in flight must fail fast instead of queueing behind the first.
type runLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking.
func (l *runLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock. Must only be called by the goroutine that
// successfully acquired it.
func (l *runLock) Release() {
	l.state.Store(0)
}
