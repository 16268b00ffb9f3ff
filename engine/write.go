package engine

import (
	"github.com/godzie44/go-uring/uring"

	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/reqtable"
)

// SubmitSend copies data into an engine-owned buffer acquired from the
// pool and enqueues a write request. It returns immediately. If no
// submission slot is available the buffer is released and the write is
// silently dropped: there is no in-flight request yet to report the
// failure against.
func (e *Engine) SubmitSend(data []byte) {
	buf := e.pool.Acquire(len(data))
	buf = append(buf, data...)

	if len(buf) == 0 {
		// Zero-length write: no-op that still fires the write callback.
		e.pool.Release(buf)
		e.cb.DispatchWrite(0)
		return
	}

	id := e.allocID()

	e.lock.Lock()
	fd := e.fd
	if fd < 0 {
		e.lock.Unlock()
		e.pool.Release(buf)
		return
	}

	sqe := uring.Write(uintptr(fd), buf, currentOffset)
	if err := e.ring.QueueSQE(sqe, 0, id); err != nil {
		e.lock.Unlock()
		e.pool.Release(buf)
		return
	}

	e.table.Insert(id, reqtable.Record{ID: id, Direction: reqtable.Write, FD: fd, Buf: buf, Offset: 0})

	if _, err := e.ring.Submit(); err != nil {
		e.table.Erase(id)
		e.lock.Unlock()
		e.pool.Release(buf)
		return
	}
	e.lock.Unlock()
}

// resubmitWrite re-queues the remaining bytes of rec's buffer starting
// at rec.Offset, keeping the same request ID. Used both for EINTR retry
// (offset unchanged by the caller) and for partial-write continuation
// (offset already advanced by the caller). It reports whether the
// resubmit was queued successfully.
func (e *Engine) resubmitWrite(rec reqtable.Record) bool {
	e.lock.Lock()
	remaining := rec.Buf[rec.Offset:]
	sqe := uring.Write(uintptr(rec.FD), remaining, currentOffset)
	if err := e.ring.QueueSQE(sqe, 0, rec.ID); err != nil {
		e.lock.Unlock()
		return false
	}
	e.table.Update(rec.ID, rec)
	if _, err := e.ring.Submit(); err != nil {
		e.lock.Unlock()
		return false
	}
	e.lock.Unlock()
	return true
}
