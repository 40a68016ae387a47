// File: lock/lock.go
// Package lock provides the locking policies used by delegates.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Policy is fixed at the point a delegate is created. Three policies are
// provided: None for single-goroutine use, Spin for very short critical
// sections and Blocking for anything else.

package lock

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Policy builds the mutex guarding a single delegate.
type Policy func() sync.Locker

var (
	// None performs no synchronization at all.
	None Policy = func() sync.Locker { return noLock{} }

	// Spin busy-waits on a CAS flag.
	Spin Policy = func() sync.Locker { return new(SpinLock) }

	// Blocking parks waiting goroutines on a sync.Mutex.
	Blocking Policy = func() sync.Locker { return new(sync.Mutex) }
)

// New returns a fresh locker for p, falling back to None when p is nil.
func (p Policy) New() sync.Locker {
	if p == nil {
		return noLock{}
	}
	return p()
}

type noLock struct{}

func (noLock) Lock()         {}
func (noLock) Unlock()       {}
func (noLock) TryLock() bool { return true }

// SpinLock is a non-reentrant test-and-set lock.
// The zero value is unlocked.
type SpinLock struct {
	state atomic.Uint32
	_     [60]byte // keep neighbouring locks off the same cache line
}

// Lock spins until the lock is acquired, yielding the processor between attempts.
func (s *SpinLock) Lock() {
	for spins := 0; !s.state.CompareAndSwap(0, 1); spins++ {
		if spins >= 16 {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock acquires the lock if it is free.
func (s *SpinLock) TryLock() bool {
	return s.state.CompareAndSwap(0, 1)
}

// Unlock releases the lock. Unlocking an unlocked SpinLock panics.
func (s *SpinLock) Unlock() {
	if !s.state.CompareAndSwap(1, 0) {
		panic("lock: unlock of unlocked SpinLock")
	}
}
