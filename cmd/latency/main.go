// Command latency measures end-to-end frame latency across two hyserial
// connections cross-wired over a pair of tty devices. Each frame is
// seq(uint64) + send-timestamp-ns(uint64) + a payload of fixed size; the
// receiver timestamps arrival and reports min/mean/p50/p95/p99/max.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/RoboMaster-DLMU-CONE/HySerial"
	"github.com/RoboMaster-DLMU-CONE/HySerial/device"
)

const headerSize = 16 // seq uint64 + timestamp uint64

func main() {
	baud := flag.Int("baud", 115200, "baud rate for both ends")
	count := flag.Int("count", 1000, "number of frames to send")
	payloadSize := flag.Int("payload", 16, "payload bytes per frame")
	wait := flag.Duration("wait", 10*time.Second, "max time to wait for all frames")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "usage: latency [flags] <devA> <devB>")
		os.Exit(2)
	}
	devA, devB := flag.Arg(0), flag.Arg(1)
	rate := device.BaudRate(*baud)
	frameSize := headerSize + *payloadSize

	var (
		mu        sync.Mutex
		latencies []int64
		acc       []byte
	)

	serialA, err := hyserial.NewBuilder().
		Device(devA).
		BaudRate(rate).
		OnRead(func(data []byte) {
			if len(data) == 0 {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			acc = append(acc, data...)
			for len(acc) >= frameSize {
				ts := int64(binary.LittleEndian.Uint64(acc[8:16]))
				now := time.Now().UnixNano()
				lat := now - ts
				if lat < 0 {
					lat = 0
				}
				latencies = append(latencies, lat)
				acc = acc[frameSize:]
			}
		}).
		AutoRead(frameSize).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create serial A: %v\n", err)
		os.Exit(1)
	}
	defer serialA.Close()

	serialB, err := hyserial.NewBuilder().
		Device(devB).
		BaudRate(rate).
		OnError(func(code int32) {
			fmt.Fprintf(os.Stderr, "serial B error callback: %d\n", code)
		}).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create serial B: %v\n", err)
		os.Exit(1)
	}
	defer serialB.Close()

	time.Sleep(50 * time.Millisecond)

	for i := 0; i < *count; i++ {
		frame := make([]byte, frameSize)
		binary.LittleEndian.PutUint64(frame[0:8], uint64(i))
		binary.LittleEndian.PutUint64(frame[8:16], uint64(time.Now().UnixNano()))
		for k := 0; k < *payloadSize; k++ {
			frame[headerSize+k] = byte(k)
		}
		serialB.Send(frame)
	}

	deadline := time.Now().Add(*wait)
	for {
		mu.Lock()
		n := len(latencies)
		mu.Unlock()
		if n >= *count || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	mu.Lock()
	result := append([]int64(nil), latencies...)
	mu.Unlock()

	if len(result) == 0 {
		fmt.Fprintln(os.Stderr, "no packets received")
		os.Exit(1)
	}

	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })

	var sum int64
	for _, v := range result {
		sum += v
	}
	mean := float64(sum) / float64(len(result))
	p50 := result[len(result)/2]
	p95 := result[percentileIndex(len(result), 95)]
	p99 := result[percentileIndex(len(result), 99)]

	fmt.Printf("messages sent: %d received: %d\n", *count, len(result))
	fmt.Printf("min(us): %.1f mean(us): %.1f p50(us): %.1f p95(us): %.1f p99(us): %.1f max(us): %.1f\n",
		float64(result[0])/1000, mean/1000, float64(p50)/1000, float64(p95)/1000, float64(p99)/1000,
		float64(result[len(result)-1])/1000)
}

func percentileIndex(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}
