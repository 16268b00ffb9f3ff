package engine

import (
	"runtime"
	"sync/atomic"
)

// spinLock is a small CAS-based spin lock. The kernel submission
// interface requires single-threaded access to the submission-queue
// head, and coupling request-table insertion to submission closes the
// race where a completion could arrive before the table observes the
// record — both are tiny critical sections, so a spin lock is
// preferable to a sync.Mutex's syscall-capable park/wake path.
type spinLock struct {
	held atomic.Bool
}

func (l *spinLock) Lock() {
	for !l.held.CompareAndSwap(false, true) {
		for l.held.Load() {
			runtime.Gosched()
		}
	}
}

func (l *spinLock) Unlock() {
	l.held.Store(false)
}
