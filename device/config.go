// Package device opens a tty character device and applies the line
// discipline (baud, data bits, parity, stop bits, flow control) an
// hyserial client requests, yielding an owned, blocking file descriptor
// ready to be handed to the submission engine.
package device

import "fmt"

// BaudRate is one of the POSIX-standard rates this library supports.
type BaudRate uint32

// The enumerated POSIX-standard baud rates. Any other value is rejected
// by Open with hserr.SocketBindError.
const (
	B50     BaudRate = 50
	B75     BaudRate = 75
	B110    BaudRate = 110
	B134    BaudRate = 134
	B150    BaudRate = 150
	B200    BaudRate = 200
	B300    BaudRate = 300
	B600    BaudRate = 600
	B1200   BaudRate = 1200
	B1800   BaudRate = 1800
	B2400   BaudRate = 2400
	B4800   BaudRate = 4800
	B9600   BaudRate = 9600
	B19200  BaudRate = 19200
	B38400  BaudRate = 38400
	B57600  BaudRate = 57600
	B115200 BaudRate = 115200
	B230400 BaudRate = 230400
	B460800 BaudRate = 460800
	B921600 BaudRate = 921600
)

func (b BaudRate) String() string {
	return fmt.Sprintf("%d", uint32(b))
}

// DataBits is the number of data bits per character.
type DataBits uint8

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)

// StopBits is the number of stop bits per frame.
type StopBits uint8

const (
	StopBits1 StopBits = 1
	StopBits2 StopBits = 2
)

// Parity selects the parity scheme.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

func (p Parity) String() string {
	switch p {
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	default:
		return "none"
	}
}

// FlowControl selects the flow-control scheme.
type FlowControl uint8

const (
	FlowControlNone FlowControl = iota
	FlowControlRTSCTS
	FlowControlXONXOFF
)

func (f FlowControl) String() string {
	switch f {
	case FlowControlRTSCTS:
		return "rts/cts"
	case FlowControlXONXOFF:
		return "xon/xoff"
	default:
		return "none"
	}
}

// Config is the immutable set of line-discipline parameters applied by
// Open. Once handed to Open it is never mutated.
type Config struct {
	DevicePath  string
	BaudRate    BaudRate
	DataBits    DataBits
	StopBits    StopBits
	Parity      Parity
	FlowControl FlowControl
	RTSDTROn    bool
}

// DefaultConfig returns 8N1 at 115200 baud on /dev/ttyUSB0 with flow
// control and RTS/DTR assertion both off.
func DefaultConfig() Config {
	return Config{
		DevicePath: "/dev/ttyUSB0",
		BaudRate:   B115200,
		DataBits:   DataBits8,
		StopBits:   StopBits1,
		Parity:     ParityNone,
	}
}
