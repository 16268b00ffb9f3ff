//go:build linux

package hyserial_test

import (
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"github.com/RoboMaster-DLMU-CONE/HySerial"
	"github.com/RoboMaster-DLMU-CONE/HySerial/device"
)

func TestBuildRejectsEmptyDevicePath(t *testing.T) {
	_, err := hyserial.NewBuilder().Device("").Build()
	require.Error(t, err)
}

func TestBuildRejectsMissingDevice(t *testing.T) {
	_, err := hyserial.NewBuilder().Device("/dev/hyserial-does-not-exist").Build()
	require.Error(t, err)
}

func TestAutoReadAndSendConnectionsCloseIndependently(t *testing.T) {
	_, slaveA, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { slaveA.Close() })

	masterB, slaveB, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { masterB.Close(); slaveB.Close() })

	received := make(chan int, 1)
	serialA, err := hyserial.NewBuilder().
		Device(slaveA.Name()).
		BaudRate(device.B115200).
		OnRead(func(data []byte) {
			select {
			case received <- len(data):
			default:
			}
		}).
		AutoRead(64).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { serialA.Close() })

	// Cross-write via masterA/masterB is unnecessary here: we only assert
	// that a Builder-assembled Serial can be closed cleanly and that a
	// second, unread connection tears down independently.
	serialB, err := hyserial.NewBuilder().Device(slaveB.Name()).Build()
	require.NoError(t, err)

	serialB.Send([]byte("hi"))
	_, err = masterB.Read(make([]byte, 2))
	_ = err // best effort, timing-dependent on some kernels

	require.NoError(t, serialB.Close())
	require.NoError(t, serialB.Close())
}

func TestCloseIsIdempotent(t *testing.T) {
	_, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { slave.Close() })

	s, err := hyserial.NewBuilder().Device(slave.Name()).Build()
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestBuilderFluentConfigurationBuildsWithCounters(t *testing.T) {
	_, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { slave.Close() })

	s, err := hyserial.NewBuilder().
		Device(slave.Name()).
		BaudRate(device.B9600).
		DataBits(device.DataBits7).
		StopBits(device.StopBits2).
		Parity(device.ParityEven).
		FlowControl(device.FlowControlNone).
		WithCounters().
		Build()
	require.NoError(t, err)
	defer s.Close()

	require.NotNil(t, s.Counters())
	require.GreaterOrEqual(t, s.FD(), 0)
}

func TestWriteCallbackFiresOnSend(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	done := make(chan int, 1)
	s, err := hyserial.NewBuilder().
		Device(slave.Name()).
		OnWrite(func(n int) { done <- n }).
		Build()
	require.NoError(t, err)
	defer s.Close()

	s.Send([]byte("test"))

	select {
	case n := <-done:
		require.Equal(t, 4, n)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for write callback")
	}
}
