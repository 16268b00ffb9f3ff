package callback_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/RoboMaster-DLMU-CONE/HySerial/engine/callback"
)

func TestDispatchWithoutCallbackReportsFalse(t *testing.T) {
	var reg callback.Registry

	assert.False(t, reg.DispatchRead([]byte("x")))
	assert.False(t, reg.DispatchWrite(3))
	assert.False(t, reg.DispatchError(-1))
}

func TestSetAndDispatchInvokesCallback(t *testing.T) {
	var reg callback.Registry

	var gotRead []byte
	reg.SetRead(func(data []byte) { gotRead = data })
	assert.True(t, reg.DispatchRead([]byte("hello")))
	assert.Equal(t, []byte("hello"), gotRead)

	var gotWrite int
	reg.SetWrite(func(n int) { gotWrite = n })
	assert.True(t, reg.DispatchWrite(42))
	assert.Equal(t, 42, gotWrite)

	var gotErr int32
	reg.SetError(func(code int32) { gotErr = code })
	assert.True(t, reg.DispatchError(-11))
	assert.Equal(t, int32(-11), gotErr)
}

func TestSetNilClearsCallback(t *testing.T) {
	var reg callback.Registry

	reg.SetRead(func(data []byte) {})
	reg.SetRead(nil)

	assert.False(t, reg.DispatchRead([]byte("x")))
}

func TestSwapReplacesCallback(t *testing.T) {
	var reg callback.Registry

	calls := 0
	reg.SetWrite(func(n int) { calls = 1 })
	reg.SetWrite(func(n int) { calls = 2 })

	reg.DispatchWrite(1)
	assert.Equal(t, 2, calls)
}
