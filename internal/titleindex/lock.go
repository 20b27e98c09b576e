package titleindex

import "sync/atomic"

// buildLock provides non-blocking lock semantics using atomic operations
type buildLock struct {
	state atomic.Int32 // 0 = unlocked, 1 = locked
}

// TryAcquire attempts to acquire the lock without blocking
func (l *buildLock) TryAcquire() bool {
	return l.state.CompareAndSwap(0, 1)
}

// Release releases the lock
func (l *buildLock) Release() {
	l.state.Store(0)
}
