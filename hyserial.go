// Package hyserial provides a completion-driven, callback-based serial
// port client. A Serial is assembled by Builder, which validates
// configuration, opens and configures the tty, wires the submission
// engine to it, and starts the background worker goroutine that drains
// completions for the lifetime of the connection.
//
// Build opens the device, constructs the engine, registers callbacks,
// binds the fd, and spawns the worker before returning; Close stops
// the engine, joins the worker, then closes the ring and the device,
// in that order.
package hyserial

import (
	"sync/atomic"

	"github.com/RoboMaster-DLMU-CONE/HySerial/device"
	"github.com/RoboMaster-DLMU-CONE/HySerial/engine"
	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/callback"
	"github.com/RoboMaster-DLMU-CONE/HySerial/hlog"
	"github.com/RoboMaster-DLMU-CONE/HySerial/hserr"
	"github.com/RoboMaster-DLMU-CONE/HySerial/metrics"
)

// Serial is an open, configured serial port with a background
// completion worker. All methods are safe to call concurrently.
type Serial struct {
	dev    *device.Device
	eng    *engine.Engine
	closed atomic.Bool
}

// Send enqueues data for asynchronous write. It returns immediately;
// completion, or a failure after the write was submitted, is reported
// through the write or error callback. A write that cannot be queued is
// dropped without any callback. The caller's slice may be reused as soon
// as Send returns.
func (s *Serial) Send(data []byte) {
	s.eng.SubmitSend(data)
}

// StartRead arms continuous reads into an internal buffer of bufSize
// bytes, delivering each completed read through the read callback.
func (s *Serial) StartRead(bufSize int) {
	s.eng.StartRead(s.dev.FD(), bufSize)
}

// StopRead disables rearming after the current in-flight read
// completes. Bytes already in flight are still delivered.
func (s *Serial) StopRead() {
	s.eng.StopRead()
}

// SetReadCallback atomically replaces the read callback.
func (s *Serial) SetReadCallback(cb callback.ReadFunc) { s.eng.SetReadCallback(cb) }

// SetWriteCallback atomically replaces the write callback.
func (s *Serial) SetWriteCallback(cb callback.WriteFunc) { s.eng.SetWriteCallback(cb) }

// SetErrorCallback atomically replaces the error callback.
func (s *Serial) SetErrorCallback(cb callback.ErrorFunc) { s.eng.SetErrorCallback(cb) }

// Counters returns the connection's traffic counters, or nil if the
// Builder was not asked to collect them.
func (s *Serial) Counters() *metrics.Counters {
	return s.eng.Counters()
}

// FD returns the underlying tty file descriptor. Exposed for tests and
// for callers that need to poll it alongside other descriptors.
func (s *Serial) FD() int { return s.dev.FD() }

// Close stops the worker, waits for it to return, then releases the
// submission ring and the device. Close is idempotent; subsequent
// calls return nil.
func (s *Serial) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.eng.Stop()
	s.eng.Wait()

	if err := s.eng.Close(); err != nil {
		_ = s.dev.Close()
		return err
	}
	return s.dev.Close()
}

// Builder assembles a Serial fluently. The zero value is not usable;
// obtain one from NewBuilder.
type Builder struct {
	cfg        device.Config
	queueDepth int
	logger     hlog.Logger
	counters   *metrics.Counters
	onRead     callback.ReadFunc
	onWrite    callback.WriteFunc
	onError    callback.ErrorFunc
	readBuf    int
}

// DefaultReadBufferSize is the read buffer size AutoRead uses when it is
// given a size of zero or less.
const DefaultReadBufferSize = 4096

// NewBuilder returns a Builder seeded with device.DefaultConfig.
func NewBuilder() *Builder {
	return &Builder{cfg: device.DefaultConfig()}
}

// Device sets the tty path, e.g. "/dev/ttyUSB0".
func (b *Builder) Device(path string) *Builder {
	b.cfg.DevicePath = path
	return b
}

// BaudRate sets the line speed.
func (b *Builder) BaudRate(rate device.BaudRate) *Builder {
	b.cfg.BaudRate = rate
	return b
}

// DataBits sets the number of data bits per character.
func (b *Builder) DataBits(bits device.DataBits) *Builder {
	b.cfg.DataBits = bits
	return b
}

// StopBits sets the number of stop bits per frame.
func (b *Builder) StopBits(bits device.StopBits) *Builder {
	b.cfg.StopBits = bits
	return b
}

// Parity sets the parity scheme.
func (b *Builder) Parity(p device.Parity) *Builder {
	b.cfg.Parity = p
	return b
}

// FlowControl sets the flow-control scheme.
func (b *Builder) FlowControl(f device.FlowControl) *Builder {
	b.cfg.FlowControl = f
	return b
}

// RTSDTROn requests that RTS and DTR be asserted after opening, best
// effort. See device.Open for caveats.
func (b *Builder) RTSDTROn(on bool) *Builder {
	b.cfg.RTSDTROn = on
	return b
}

// QueueDepth overrides the submission ring depth. Zero keeps
// engine.DefaultQueueDepth.
func (b *Builder) QueueDepth(depth int) *Builder {
	b.queueDepth = depth
	return b
}

// Logger overrides the logger used by the connection's worker. Nil
// keeps hlog.Default.
func (b *Builder) Logger(l hlog.Logger) *Builder {
	b.logger = l
	return b
}

// WithCounters enables traffic counters, retrievable via Serial.Counters.
func (b *Builder) WithCounters() *Builder {
	b.counters = metrics.New()
	return b
}

// OnRead registers the read callback invoked from Build onward.
func (b *Builder) OnRead(cb callback.ReadFunc) *Builder {
	b.onRead = cb
	return b
}

// OnWrite registers the write callback.
func (b *Builder) OnWrite(cb callback.WriteFunc) *Builder {
	b.onWrite = cb
	return b
}

// OnError registers the error callback.
func (b *Builder) OnError(cb callback.ErrorFunc) *Builder {
	b.onError = cb
	return b
}

// AutoRead arms continuous reads as part of Build, using bufSize as the
// internal read buffer size. If bufSize is zero, DefaultReadBufferSize
// is used. Without a call to AutoRead, Build leaves reading disabled
// and the caller must invoke Serial.StartRead explicitly.
func (b *Builder) AutoRead(bufSize int) *Builder {
	if bufSize <= 0 {
		bufSize = DefaultReadBufferSize
	}
	b.readBuf = bufSize
	return b
}

// Build validates cfg.DevicePath, opens and configures the tty,
// constructs the submission engine, registers callbacks, binds the fd,
// and starts the worker goroutine. On any failure it unwinds whatever
// it already opened.
func (b *Builder) Build() (*Serial, error) {
	if b.cfg.DevicePath == "" {
		return nil, hserr.New(hserr.InvalidSocketError, "device path must not be empty")
	}

	dev, err := device.Open(b.cfg)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(engine.Options{
		QueueDepth: b.queueDepth,
		Counters:   b.counters,
		Logger:     b.logger,
	})
	if err != nil {
		_ = dev.Close()
		return nil, err
	}

	eng.SetCallbacks(engine.Callbacks{
		OnRead:  b.onRead,
		OnWrite: b.onWrite,
		OnError: b.onError,
	})
	eng.BindFD(dev.FD())

	s := &Serial{dev: dev, eng: eng}

	go eng.Run()

	if b.readBuf > 0 {
		s.StartRead(b.readBuf)
	}

	return s, nil
}
