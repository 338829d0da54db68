package store

import "time"

// LockObserver receives the wait time and acquisition site of every Lock
// call. Implementations must be cheap and must not call back into the
// Store. A nil observer disables instrumentation entirely.
type LockObserver interface {
	LockWait(site string, wait time.Duration)
}

// nopObserver is installed when Options.Observer is nil.
type nopObserver struct{}

func (nopObserver) LockWait(string, time.Duration) {}
