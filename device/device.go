//go:build linux

package device

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/RoboMaster-DLMU-CONE/HySerial/hserr"
)

// Device owns a file descriptor for an open, configured tty. fd is
// always >= 0 for the lifetime of a live Device and is closed exactly
// once by Close. Device values must not be copied; pass *Device.
type Device struct {
	fd     int
	cfg    Config
	closed bool
}

// FD returns the owned file descriptor.
func (d *Device) FD() int { return d.fd }

// Open opens cfg.DevicePath for read/write without becoming the
// controlling terminal, applies the requested line discipline, and
// returns an owned Device with a blocking fd ready for the submission
// engine. On any failure the fd, if opened, is closed before returning.
func Open(cfg Config) (*Device, error) {
	speed, err := baudToUnix(cfg.BaudRate)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Open(cfg.DevicePath, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, hserr.Wrap(hserr.SocketCreateError,
			fmt.Sprintf("failed to open serial device %q", cfg.DevicePath), err)
	}

	if err := applyTermios(fd, cfg, speed); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}

	if cfg.RTSDTROn {
		assertRTSDTR(fd) // best-effort, failures ignored
	}

	if err := unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIOFLUSH); err != nil {
		_ = unix.Close(fd)
		return nil, hserr.Wrap(hserr.SocketFlushError,
			fmt.Sprintf("failed to flush serial device %q", cfg.DevicePath), err)
	}

	if err := unix.SetNonblock(fd, false); err != nil {
		_ = unix.Close(fd)
		return nil, hserr.Wrap(hserr.SocketBindError, "failed to clear O_NONBLOCK", err)
	}

	return &Device{fd: fd, cfg: cfg}, nil
}

func applyTermios(fd int, cfg Config, speed uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return hserr.Wrap(hserr.SocketBindError,
			fmt.Sprintf("failed to get attributes for %q", cfg.DevicePath), err)
	}

	t.Ispeed = speed
	t.Ospeed = speed
	t.Cflag &^= unix.CBAUD
	t.Cflag |= speed

	t.Cflag &^= unix.CSIZE
	switch cfg.DataBits {
	case DataBits5:
		t.Cflag |= unix.CS5
	case DataBits6:
		t.Cflag |= unix.CS6
	case DataBits7:
		t.Cflag |= unix.CS7
	default:
		t.Cflag |= unix.CS8
	}

	if cfg.Parity == ParityNone {
		t.Cflag &^= unix.PARENB
	} else {
		t.Cflag |= unix.PARENB
		if cfg.Parity == ParityOdd {
			t.Cflag |= unix.PARODD
		} else {
			t.Cflag &^= unix.PARODD
		}
	}

	if cfg.StopBits == StopBits2 {
		t.Cflag |= unix.CSTOPB
	} else {
		t.Cflag &^= unix.CSTOPB
	}

	if cfg.FlowControl == FlowControlRTSCTS {
		t.Cflag |= unix.CRTSCTS
	} else {
		t.Cflag &^= unix.CRTSCTS
	}

	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.ICRNL | unix.INLCR |
		unix.PARMRK | unix.INPCK | unix.ISTRIP | unix.IXON
	if cfg.FlowControl == FlowControlXONXOFF {
		t.Iflag |= unix.IXON | unix.IXOFF
	}

	t.Oflag &^= unix.OPOST

	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN

	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return hserr.Wrap(hserr.SocketBindError,
			fmt.Sprintf("failed to set attributes for %q", cfg.DevicePath), err)
	}
	return nil
}

// assertRTSDTR raises RTS and DTR via TIOCMGET/TIOCMSET. Failures here
// are non-fatal and silently ignored: not every serial adapter exposes
// modem-control lines, and treating that as fatal would break normal
// USB-serial adapters that don't wire RTS/DTR at all.
func assertRTSDTR(fd int) {
	status, err := unix.IoctlGetInt(fd, unix.TIOCMGET)
	if err != nil {
		return
	}
	status |= unix.TIOCM_RTS | unix.TIOCM_DTR
	_ = unix.IoctlSetPointerInt(fd, unix.TIOCMSET, status)
}

func baudToUnix(b BaudRate) (uint32, error) {
	switch b {
	case B50:
		return unix.B50, nil
	case B75:
		return unix.B75, nil
	case B110:
		return unix.B110, nil
	case B134:
		return unix.B134, nil
	case B150:
		return unix.B150, nil
	case B200:
		return unix.B200, nil
	case B300:
		return unix.B300, nil
	case B600:
		return unix.B600, nil
	case B1200:
		return unix.B1200, nil
	case B1800:
		return unix.B1800, nil
	case B2400:
		return unix.B2400, nil
	case B4800:
		return unix.B4800, nil
	case B9600:
		return unix.B9600, nil
	case B19200:
		return unix.B19200, nil
	case B38400:
		return unix.B38400, nil
	case B57600:
		return unix.B57600, nil
	case B115200:
		return unix.B115200, nil
	case B230400:
		return unix.B230400, nil
	case B460800:
		return unix.B460800, nil
	case B921600:
		return unix.B921600, nil
	default:
		return 0, hserr.New(hserr.SocketBindError, fmt.Sprintf("unsupported baud rate %d", uint32(b)))
	}
}

// Close closes the device's fd exactly once. Subsequent calls are
// no-ops.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return unix.Close(d.fd)
}

// Reopen closes the current fd, if any, and opens d.cfg.DevicePath
// again with the same line discipline. It is meant for callers that
// observe a dropped USB-serial adapter and want to retry the exact
// configuration without reconstructing it.
func (d *Device) Reopen() error {
	if !d.closed {
		if err := unix.Close(d.fd); err != nil {
			return hserr.Wrap(hserr.SocketBindError, "failed to close device before reopen", err)
		}
	}

	fresh, err := Open(d.cfg)
	if err != nil {
		d.closed = true
		return err
	}

	d.fd = fresh.fd
	d.closed = false
	return nil
}
