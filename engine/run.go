package engine

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/godzie44/go-uring/uring"

	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/reqtable"
)

var errEINTR = int32(unix.EINTR)
var errEAGAIN = int32(unix.EAGAIN)

// waitErrorBackoff bounds how fast the worker loop retries after a
// failed wait for completions, so a persistent ring error logs and
// spins at a fixed rate rather than as fast as the CPU allows.
const waitErrorBackoff = 10 * time.Millisecond

// Run enters the worker loop. It checks the stop request before each wait
// and returns once it sees it set: after the wake-up completion from Stop
// unblocks a pending wait, or without waiting at all if Stop was invoked
// before that check. In the second case the wake-up completion is left
// in the completion queue and is not drained.
func (e *Engine) Run() {
	e.running.Store(true)
	defer close(e.done)

	for !e.stopRequested.Load() {
		cqe, err := e.ring.WaitCQEvents(1)
		if err != nil {
			e.log.Warn("wait for completion failed", "err", err)
			time.Sleep(waitErrorBackoff)
			continue
		}

		id := cqe.UserData
		res := int32(cqe.Res)
		e.ring.SeenCQE(cqe)

		if id == 0 {
			// Wake-up sentinel: nothing to dispatch.
			continue
		}

		e.dispatchCompletion(id, res)
	}
}

// dispatchCompletion looks up id, atomically removes-or-updates its
// record, and routes to the read or write completion handler.
func (e *Engine) dispatchCompletion(id uint64, res int32) {
	e.lock.Lock()
	rec, found := e.table.Find(id)
	e.lock.Unlock()
	if !found {
		return
	}

	if rec.Direction == reqtable.Read {
		e.handleReadCompletion(id, rec, res)
		return
	}
	e.handleWriteCompletion(id, rec, res)
}

// handleReadCompletion implements the read state machine: a negative
// result is terminal for that read (it does not auto-rearm); a
// non-negative result delivers the bytes and, if continuous-read is
// still enabled, rearms exactly once.
func (e *Engine) handleReadCompletion(id uint64, rec reqtable.Record, res int32) {
	e.lock.Lock()
	e.table.Erase(id)
	e.lock.Unlock()

	if res < 0 {
		e.cb.DispatchError(res)
		return
	}

	data := rec.Buf[:res]
	e.cb.DispatchRead(data)
	e.counters.RecordReceive(uint64(res))

	if e.continuousRead.Load() {
		e.submitRead()
	}
}

// handleWriteCompletion drives a write to completion across however
// many submissions it takes: EINTR retries at the same offset, a
// positive result short of the remaining length advances the offset
// and resubmits, and any other negative result or resubmission failure
// is terminal for that request.
func (e *Engine) handleWriteCompletion(id uint64, rec reqtable.Record, res int32) {
	if res == -errEINTR {
		if !e.resubmitWrite(rec) {
			e.terminateWrite(id, rec, -errEAGAIN)
		}
		return
	}

	if res < 0 {
		e.terminateWrite(id, rec, res)
		return
	}

	newOffset := rec.Offset + int(res)
	if newOffset < len(rec.Buf) {
		rec.Offset = newOffset
		if !e.resubmitWrite(rec) {
			e.terminateWrite(id, rec, -errEAGAIN)
		}
		return
	}

	// Fully drained: report total bytes written and release the buffer.
	e.lock.Lock()
	e.table.Erase(id)
	e.lock.Unlock()

	total := newOffset
	e.pool.Release(rec.Buf)
	e.counters.RecordSend(uint64(total))
	e.cb.DispatchWrite(total)
}

// terminateWrite drops rec from the table, releases its buffer, and
// surfaces errCode through the error callback.
func (e *Engine) terminateWrite(id uint64, rec reqtable.Record, errCode int32) {
	e.lock.Lock()
	e.table.Erase(id)
	e.lock.Unlock()

	e.pool.Release(rec.Buf)
	e.cb.DispatchError(errCode)
}

// Stop requests that the worker loop exit and submits a sentinel no-op
// with request ID 0 to wake it if it is blocked in WaitCQEvents. The
// stop request and the sentinel submission both happen unconditionally,
// independent of whether Run has started yet: Run checks the stop
// request on every loop iteration rather than relying on a snapshot
// taken at entry, so a Stop that outraces the worker's startup is seen at
// the loop's first check and Run returns without waiting. The running CAS only tracks the true-to-false
// transition for callers inspecting Engine state; it does not gate the
// sentinel.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
	e.running.CompareAndSwap(true, false)

	e.lock.Lock()
	sqe := uring.Nop()
	_ = e.ring.QueueSQE(sqe, 0, 0)
	_, _ = e.ring.Submit()
	e.lock.Unlock()
}

// Wait blocks until the worker goroutine started by Run has returned.
func (e *Engine) Wait() {
	<-e.done
}

// Close releases the submission ring. It must only be called after Run
// has returned.
func (e *Engine) Close() error {
	return e.ring.Close()
}
