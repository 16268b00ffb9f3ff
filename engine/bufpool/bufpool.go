// Package bufpool implements the write-side buffer pool: a fixed set of
// reusable byte slices sized to avoid per-send allocation under load.
package bufpool

import "sync/atomic"

// DefaultBufferSize is the default capacity of each pooled buffer.
const DefaultBufferSize = 8192

// Pool is a fixed pool of shared byte buffers. Acquire scans slots for
// an available one via compare-and-swap; Release returns a buffer to its
// slot by identity. A buffer that didn't originate in the pool (acquired
// while the pool was exhausted) is simply dropped on Release.
type Pool struct {
	bufSize   int
	buffers   []*buffer
	available []atomic.Bool
}

type buffer struct {
	data []byte
}

// New creates a Pool of the given size, each buffer defaulting to
// bufSize capacity. size is typically 2x the submission-ring depth so
// concurrent writes plus in-flight completions rarely both exhaust
// slots.
func New(size, bufSize int) *Pool {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	p := &Pool{
		bufSize:   bufSize,
		buffers:   make([]*buffer, size),
		available: make([]atomic.Bool, size),
	}
	for i := range p.buffers {
		p.buffers[i] = &buffer{data: make([]byte, 0, bufSize)}
		p.available[i].Store(true)
	}
	return p
}

// Acquire returns a pooled buffer cleared and reserved to at least n
// bytes, or a freshly allocated (non-pooled) buffer when the pool is
// exhausted.
func (p *Pool) Acquire(n int) []byte {
	for i := range p.buffers {
		if p.available[i].CompareAndSwap(true, false) {
			buf := p.buffers[i]
			if cap(buf.data) < n {
				buf.data = make([]byte, 0, n)
			}
			return buf.data[:0]
		}
	}
	return make([]byte, 0, n)
}

// Release returns b to its slot if it originated in the pool (identified
// by the backing array's address), otherwise it is dropped.
func (p *Pool) Release(b []byte) {
	if b == nil {
		return
	}
	for i, buf := range p.buffers {
		if sameBacking(buf.data, b) {
			buf.data = b[:0]
			p.available[i].Store(true)
			return
		}
	}
}

// sameBacking reports whether a and b share the same underlying array,
// identified by the address of the first element of each slice's full
// capacity.
func sameBacking(a, b []byte) bool {
	if cap(a) == 0 || cap(b) == 0 {
		return false
	}
	return &a[:cap(a)][0] == &b[:cap(b)][0]
}

// Size returns the number of buffers this pool owns.
func (p *Pool) Size() int { return len(p.buffers) }

// BufferSize returns the default capacity new pooled buffers are created with.
func (p *Pool) BufferSize() int { return p.bufSize }
