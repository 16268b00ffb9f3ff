// Command loopback exercises two hyserial connections cross-wired over a
// pair of tty devices (e.g. a USB-to-null-modem cable, or two ends of a
// socat pty pair): it sends one short message from B and asserts A's read
// callback observes it within a timeout.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/RoboMaster-DLMU-CONE/HySerial"
	"github.com/RoboMaster-DLMU-CONE/HySerial/device"
)

func main() {
	baud := flag.Int("baud", 115200, "baud rate for both ends")
	timeout := flag.Duration("timeout", 2*time.Second, "how long to wait for the message")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: loopback [flags] <devA> <devB>")
		os.Exit(2)
	}
	devA, devB := flag.Arg(0), flag.Arg(1)

	rate := device.BaudRate(*baud)

	received := make(chan int, 1)

	serialA, err := hyserial.NewBuilder().
		Device(devA).
		BaudRate(rate).
		OnRead(func(data []byte) {
			select {
			case received <- len(data):
			default:
			}
		}).
		AutoRead(1024).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create serial A: %v\n", err)
		os.Exit(1)
	}
	defer serialA.Close()

	serialB, err := hyserial.NewBuilder().
		Device(devB).
		BaudRate(rate).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create serial B: %v\n", err)
		os.Exit(1)
	}
	defer serialB.Close()

	serialB.Send([]byte("hello-test"))

	select {
	case n := <-received:
		fmt.Printf("test passed: received %d bytes\n", n)
	case <-time.After(*timeout):
		fmt.Fprintln(os.Stderr, "test failed: timeout waiting for data")
		os.Exit(1)
	}
}
