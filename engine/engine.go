// Package engine implements a completion-driven submission engine: a
// single background worker owning a submission ring, multiplexing
// outstanding reads and writes by request ID, honouring partial-write
// resumption and EINTR retry, dispatching results through swappable
// callbacks, and tearing down without losing in-flight buffers or racing
// the kernel.
package engine

import (
	"math"
	"sync/atomic"

	"github.com/godzie44/go-uring/uring"

	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/bufpool"
	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/callback"
	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/reqtable"
	"github.com/RoboMaster-DLMU-CONE/HySerial/hlog"
	"github.com/RoboMaster-DLMU-CONE/HySerial/hserr"
	"github.com/RoboMaster-DLMU-CONE/HySerial/metrics"
)

// DefaultQueueDepth is the default submission-ring depth.
const DefaultQueueDepth = 256

// currentOffset tells the kernel to use the file's current position,
// the conventional offset for a non-seekable character device.
const currentOffset = math.MaxUint64

// Callbacks bundles the three sink types a client may register.
type Callbacks struct {
	OnRead  callback.ReadFunc
	OnWrite callback.WriteFunc
	OnError callback.ErrorFunc
}

// Options configures an Engine at construction time.
type Options struct {
	QueueDepth int
	Counters   *metrics.Counters
	Logger     hlog.Logger
}

// Engine owns the submission ring, the request table, the buffer pool
// and the worker goroutine driving them. It is bound to at most one fd
// at a time.
type Engine struct {
	ring  *uring.Ring
	depth int

	table    *reqtable.Table
	pool     *bufpool.Pool
	cb       callback.Registry
	counters *metrics.Counters
	log      hlog.Logger

	lock spinLock

	nextID        atomic.Uint64
	running       atomic.Bool
	stopRequested atomic.Bool
	done          chan struct{}

	fd             int
	readBuf        []byte
	continuousRead atomic.Bool
}

// New constructs an Engine with its own submission ring of the
// requested depth (DefaultQueueDepth if zero or negative).
func New(opts Options) (*Engine, error) {
	depth := opts.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}

	ring, err := uring.New(uint32(depth))
	if err != nil {
		return nil, hserr.Wrap(hserr.UringInitError, "failed to initialize submission ring", err)
	}

	log := opts.Logger
	if log == nil {
		log = hlog.Default()
	}

	e := &Engine{
		ring:     ring,
		depth:    depth,
		table:    reqtable.New(depth),
		pool:     bufpool.New(depth*2, bufpool.DefaultBufferSize),
		counters: opts.Counters,
		log:      log,
		fd:       -1,
		done:     make(chan struct{}),
	}
	// nextID starts at its zero value; allocID's first Add(1) returns 1,
	// since 0 is reserved as the wake-up sentinel and never allocated.

	return e, nil
}

// SetCallbacks registers the initial callback set through the individual
// SetXCallback methods. A nil field leaves its slot unchanged rather than
// clearing it.
func (e *Engine) SetCallbacks(cbs Callbacks) {
	if cbs.OnRead != nil {
		e.SetReadCallback(cbs.OnRead)
	}
	if cbs.OnWrite != nil {
		e.SetWriteCallback(cbs.OnWrite)
	}
	if cbs.OnError != nil {
		e.SetErrorCallback(cbs.OnError)
	}
}

// SetReadCallback atomically replaces the read callback. After it
// returns, any completion observed thereafter whose submission
// post-dates the swap invokes the new callback.
func (e *Engine) SetReadCallback(cb callback.ReadFunc) { e.cb.SetRead(cb) }

// SetWriteCallback atomically replaces the write callback.
func (e *Engine) SetWriteCallback(cb callback.WriteFunc) { e.cb.SetWrite(cb) }

// SetErrorCallback atomically replaces the error callback.
func (e *Engine) SetErrorCallback(cb callback.ErrorFunc) { e.cb.SetError(cb) }

// BindFD sets the active fd without starting reads, used when only
// writes are desired initially.
func (e *Engine) BindFD(fd int) {
	e.lock.Lock()
	e.fd = fd
	e.lock.Unlock()
}

// Counters returns the counters supplied at construction, or nil if
// none were requested.
func (e *Engine) Counters() *metrics.Counters { return e.counters }

// allocID returns the next monotonic request ID. 0 is reserved and
// never returned.
func (e *Engine) allocID() uint64 {
	return e.nextID.Add(1)
}
