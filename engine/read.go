package engine

import (
	"github.com/godzie44/go-uring/uring"

	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/reqtable"
)

// StartRead binds the engine to fd, allocates an internal read buffer of
// bufSize, enables continuous-read, and submits one read.
func (e *Engine) StartRead(fd int, bufSize int) {
	e.lock.Lock()
	e.fd = fd
	e.readBuf = make([]byte, bufSize)
	e.lock.Unlock()

	e.continuousRead.Store(true)
	e.submitRead()
}

// StopRead disables continuous-read. Any in-flight read is allowed to
// complete and deliver bytes; the next arming is skipped.
func (e *Engine) StopRead() {
	e.continuousRead.Store(false)
}

// submitRead allocates a request ID, inserts the record, and submits a
// read SQE for the currently bound fd and read buffer. It is the
// single-fd rearm path invoked both from StartRead and after a
// successful continuous-read completion.
func (e *Engine) submitRead() {
	id := e.allocID()

	e.lock.Lock()
	fd := e.fd
	buf := e.readBuf
	if fd < 0 {
		e.lock.Unlock()
		e.log.Error("submitRead called with no bound fd")
		return
	}

	sqe := uring.Read(uintptr(fd), buf, currentOffset)
	if err := e.ring.QueueSQE(sqe, 0, id); err != nil {
		e.lock.Unlock()
		// No in-flight request exists yet for this id, so a failed
		// initial submission just drops silently rather than surfacing
		// through the error callback.
		return
	}

	e.table.Insert(id, reqtable.Record{ID: id, Direction: reqtable.Read, FD: fd, Buf: buf})

	if _, err := e.ring.Submit(); err != nil {
		e.table.Erase(id)
		e.lock.Unlock()
		return
	}
	e.lock.Unlock()
}
