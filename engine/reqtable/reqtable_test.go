package reqtable_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/reqtable"
)

func TestInsertFindErase(t *testing.T) {
	tbl := reqtable.New(4)

	tbl.Insert(1, reqtable.Record{ID: 1, Direction: reqtable.Read, FD: 3})
	rec, ok := tbl.Find(1)
	require.True(t, ok)
	assert.Equal(t, uint64(1), rec.ID)
	assert.Equal(t, reqtable.Read, rec.Direction)

	tbl.Erase(1)
	_, ok = tbl.Find(1)
	assert.False(t, ok)
}

func TestCollisionSpillsToOverflow(t *testing.T) {
	depth := 4
	tbl := reqtable.New(depth)

	// 1 and 5 both map to slot index 1.
	tbl.Insert(1, reqtable.Record{ID: 1, Direction: reqtable.Read, FD: 3})
	tbl.Insert(5, reqtable.Record{ID: 5, Direction: reqtable.Write, FD: 7})

	recA, ok := tbl.Find(1)
	require.True(t, ok)
	assert.Equal(t, reqtable.Read, recA.Direction)

	recB, ok := tbl.Find(5)
	require.True(t, ok)
	assert.Equal(t, reqtable.Write, recB.Direction)
	assert.Equal(t, 7, recB.FD)

	tbl.Erase(5)
	_, ok = tbl.Find(5)
	assert.False(t, ok)

	// The slot occupant survives the overflow entry's erasure.
	_, ok = tbl.Find(1)
	assert.True(t, ok)
}

func TestUpdateAdvancesStoredOffset(t *testing.T) {
	tbl := reqtable.New(4)
	tbl.Insert(2, reqtable.Record{ID: 2, Direction: reqtable.Write, FD: 3, Offset: 0})

	tbl.Update(2, reqtable.Record{ID: 2, Direction: reqtable.Write, FD: 3, Offset: 64})

	rec, ok := tbl.Find(2)
	require.True(t, ok)
	assert.Equal(t, 64, rec.Offset)
}

func TestUpdateOnMissingIDIsNoOp(t *testing.T) {
	tbl := reqtable.New(4)
	assert.NotPanics(t, func() {
		tbl.Update(99, reqtable.Record{ID: 99})
	})
	_, ok := tbl.Find(99)
	assert.False(t, ok)
}

func TestFindOnEmptyTable(t *testing.T) {
	tbl := reqtable.New(8)
	_, ok := tbl.Find(42)
	assert.False(t, ok)
}
