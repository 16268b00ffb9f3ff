// Package metrics provides an optional set of relaxed-atomic counters
// an Engine can be wired to at construction time. A nil *Counters is a
// valid, zero-overhead no-op — hyserial itself never allocates one
// unless the caller opts in via Builder.
package metrics

import "sync/atomic"

// Counters tracks message and byte counts for one Engine. All fields are
// safe for concurrent use; the worker goroutine and client goroutines
// may update and read them concurrently.
type Counters struct {
	messagesSent     atomic.Uint64
	messagesReceived atomic.Uint64
	bytesSent        atomic.Uint64
	bytesReceived    atomic.Uint64
}

// New returns a fresh, zeroed Counters.
func New() *Counters { return &Counters{} }

// RecordSend records one completed write of n bytes.
func (c *Counters) RecordSend(n uint64) {
	if c == nil {
		return
	}
	c.messagesSent.Add(1)
	c.bytesSent.Add(n)
}

// RecordReceive records one completed read of n bytes.
func (c *Counters) RecordReceive(n uint64) {
	if c == nil {
		return
	}
	c.messagesReceived.Add(1)
	c.bytesReceived.Add(n)
}

// Snapshot is a point-in-time copy of the counters, safe to read freely.
type Snapshot struct {
	MessagesSent     uint64
	MessagesReceived uint64
	BytesSent        uint64
	BytesReceived    uint64
}

// Snapshot reads all counters. Individual fields are read independently
// and are not mutually atomic with one another.
func (c *Counters) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return Snapshot{
		MessagesSent:     c.messagesSent.Load(),
		MessagesReceived: c.messagesReceived.Load(),
		BytesSent:        c.bytesSent.Load(),
		BytesReceived:    c.bytesReceived.Load(),
	}
}
