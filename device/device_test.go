//go:build linux

package device_test

import (
	"fmt"
	"os"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	"github.com/RoboMaster-DLMU-CONE/HySerial/device"
	"github.com/RoboMaster-DLMU-CONE/HySerial/hserr"
)

func TestOpenAppliesLineDisciplineToPtySlave(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := device.DefaultConfig()
	cfg.DevicePath = slave.Name()
	cfg.BaudRate = device.B9600
	cfg.Parity = device.ParityEven
	cfg.StopBits = device.StopBits2

	dev, err := device.Open(cfg)
	require.NoError(t, err)
	require.GreaterOrEqual(t, dev.FD(), 0)

	require.NoError(t, dev.Close())
}

func TestOpenRejectsUnsupportedBaud(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := device.DefaultConfig()
	cfg.DevicePath = slave.Name()
	cfg.BaudRate = device.BaudRate(1234567)

	_, err = device.Open(cfg)
	require.Error(t, err)

	var hsErr *hserr.Error
	require.ErrorAs(t, err, &hsErr)
	require.Equal(t, hserr.SocketBindError, hsErr.Code)
}

func TestOpenRejectsMissingDevice(t *testing.T) {
	cfg := device.DefaultConfig()
	cfg.DevicePath = "/dev/hyserial-does-not-exist"

	_, err := device.Open(cfg)
	require.Error(t, err)

	var hsErr *hserr.Error
	require.ErrorAs(t, err, &hsErr)
	require.Equal(t, hserr.SocketCreateError, hsErr.Code)
}

func TestCloseIsIdempotent(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := device.DefaultConfig()
	cfg.DevicePath = slave.Name()

	dev, err := device.Open(cfg)
	require.NoError(t, err)

	require.NoError(t, dev.Close())
	require.NoError(t, dev.Close())
}

func TestReopenReacquiresTheSamePath(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	cfg := device.DefaultConfig()
	cfg.DevicePath = slave.Name()

	dev, err := device.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { dev.Close() })

	require.NoError(t, dev.Reopen())
	require.GreaterOrEqual(t, dev.FD(), 0)

	// Reopen closes the old fd first, so the kernel may hand back the same
	// number; what must hold is that the new fd refers to the same path.
	path, err := os.Readlink(fmt.Sprintf("/proc/self/fd/%d", dev.FD()))
	require.NoError(t, err)
	require.Equal(t, slave.Name(), path)
}
