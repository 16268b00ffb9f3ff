package bufpool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/bufpool"
)

func TestAcquireReturnsClearedBuffer(t *testing.T) {
	p := bufpool.New(2, 16)

	buf := p.Acquire(4)
	assert.Len(t, buf, 0)
	assert.GreaterOrEqual(t, cap(buf), 4)
}

func TestReleaseReturnsBufferForReuse(t *testing.T) {
	p := bufpool.New(1, 16)

	buf := p.Acquire(4)
	buf = append(buf, 1, 2, 3, 4)
	p.Release(buf)

	reacquired := p.Acquire(4)
	assert.Len(t, reacquired, 0)
	assert.GreaterOrEqual(t, cap(reacquired), 4)
}

func TestAcquireGrowsBufferBeyondDefaultCapacity(t *testing.T) {
	p := bufpool.New(1, 8)

	buf := p.Acquire(64)
	assert.GreaterOrEqual(t, cap(buf), 64)
}

func TestPoolExhaustionFallsBackToFreshAllocation(t *testing.T) {
	p := bufpool.New(1, 16)

	held := p.Acquire(4)
	overflow := p.Acquire(4)

	assert.GreaterOrEqual(t, cap(overflow), 4)

	// Releasing the overflow buffer, which never came from the pool, is a
	// silent no-op; the held buffer's slot stays reserved.
	p.Release(overflow)
	require.NotPanics(t, func() { p.Release(held) })
}

func TestReleaseNilIsNoOp(t *testing.T) {
	p := bufpool.New(1, 16)
	assert.NotPanics(t, func() { p.Release(nil) })
}

func TestSizeAndBufferSizeAccessors(t *testing.T) {
	p := bufpool.New(3, 128)
	assert.Equal(t, 3, p.Size())
	assert.Equal(t, 128, p.BufferSize())
}
