// Package reqtable implements the request table: a mapping from a
// stable 64-bit request ID to the in-flight RequestRecord describing one
// submitted read or write. The primary storage is a fixed-size,
// direct-mapped slot array sized to the submission-ring depth and
// indexed by request_id modulo depth; a request ID that collides with a
// still-occupied slot spills into an auxiliary concurrent map.
package reqtable

import "github.com/puzpuzpuz/xsync/v3"

// Direction identifies whether a RequestRecord is an in-flight read or
// write.
type Direction uint8

const (
	// Read marks a record submitted via a read SQE.
	Read Direction = iota
	// Write marks a record submitted via a write SQE.
	Write
)

// Record describes one in-flight submission. request_id 0 is reserved
// as the wake-up sentinel and is never stored here.
type Record struct {
	ID        uint64
	Direction Direction
	FD        int
	Buf       []byte
	Offset    int
}

type slot struct {
	occupied bool
	id       uint64
	rec      Record
}

// Table is the request table described above. It is not safe for
// concurrent Insert/Erase without external synchronization — the engine
// serializes all mutations under its submission lock — but Find may be
// called without that lock since a slot's occupied flag and stored id
// are only ever mutated while holding it, and Find only reads.
type Table struct {
	depth    uint64
	slots    []slot
	overflow *xsync.MapOf[uint64, Record]
}

// New creates a Table sized to the given submission-ring depth.
func New(depth int) *Table {
	if depth <= 0 {
		depth = 1
	}
	return &Table{
		depth:    uint64(depth),
		slots:    make([]slot, depth),
		overflow: xsync.NewMapOf[uint64, Record](),
	}
}

// Insert records rec under id. Callers must call it exactly once per id.
func (t *Table) Insert(id uint64, rec Record) {
	idx := id % t.depth
	s := &t.slots[idx]
	if !s.occupied {
		s.occupied = true
		s.id = id
		s.rec = rec
		return
	}
	// Slot is occupied by a different in-flight id: spill to overflow.
	t.overflow.Store(id, rec)
}

// Find returns the record for id and whether it was present.
func (t *Table) Find(id uint64) (Record, bool) {
	idx := id % t.depth
	s := &t.slots[idx]
	if s.occupied && s.id == id {
		return s.rec, true
	}
	return t.overflow.Load(id)
}

// Update replaces the stored record for id in place (used to advance a
// partial write's offset after a successful resubmit). It is a no-op if
// id is not present.
func (t *Table) Update(id uint64, rec Record) {
	idx := id % t.depth
	s := &t.slots[idx]
	if s.occupied && s.id == id {
		s.rec = rec
		return
	}
	if _, ok := t.overflow.Load(id); ok {
		t.overflow.Store(id, rec)
	}
}

// Erase removes id from the table, wherever it lives.
func (t *Table) Erase(id uint64) {
	idx := id % t.depth
	s := &t.slots[idx]
	if s.occupied && s.id == id {
		s.occupied = false
		s.id = 0
		s.rec = Record{}
		return
	}
	t.overflow.Delete(id)
}
