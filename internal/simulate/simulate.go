// Package simulate generates fake ESP32 serial output for testing the
// monitor path without attached hardware.
package simulate

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"pkt.systems/canflash/schema"
)

// Options tunes the simulated stream.
type Options struct {
	// Seed fixes the frame generator; 0 seeds from the clock.
	Seed int64
	// Interval is the delay between emitted lines.
	Interval time.Duration
	// MaxFrames stops the stream after N CAN frames; 0 streams until
	// the context is cancelled.
	MaxFrames int
}

var busErrors = []string{"bit error", "stuff error", "form error", "ack error"}

// Stream writes a simulated boot banner followed by CAN frames to w
// until the context is cancelled or MaxFrames is reached.
func Stream(ctx context.Context, w io.Writer, port schema.PortID, opts Options) error {
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	counter := 1234
	for _, line := range BootLines(port) {
		if err := emit(ctx, w, opts.Interval, line); err != nil {
			return err
		}
	}

	frames := 0
	for opts.MaxFrames <= 0 || frames < opts.MaxFrames {
		counter++
		if err := emit(ctx, w, opts.Interval, frameLine(rng, counter)); err != nil {
			return err
		}
		frames++
		if rng.Float64() < 0.1 {
			counter++
			if err := emit(ctx, w, opts.Interval, busErrorLine(rng, counter)); err != nil {
				return err
			}
		}
	}
	return nil
}

// BootLines returns the simulated boot banner for a port.
func BootLines(port schema.PortID) []string {
	lines := []string{
		fmt.Sprintf("[FAKE] Connected to %s at %d baud", schema.DevicePath(port), schema.DefaultBaud),
		"[FAKE] ESP32 boot sequence started...",
	}
	boot := []string{
		"cpu_start: Starting scheduler.",
		"heap_init: Initializing. RAM available for dynamic allocation:",
		"boot: ESP-IDF v5.4.1 2nd stage bootloader",
		"boot: chip revision: v1.0",
		"boot: flash size: 4MB",
		"boot: flash mode: DIO",
		"boot: Starting app...",
		"app_main: Starting CAN bus application...",
		"can: CAN driver initialized",
		"can: CAN bus started",
	}
	for i, msg := range boot {
		lines = append(lines, fmt.Sprintf("[FAKE] (%d) %s", 1234+i, msg))
	}
	return lines
}

func frameLine(rng *rand.Rand, counter int) string {
	id := 0x100 + rng.Intn(0x700)
	dlc := 1 + rng.Intn(8)
	data := make([]string, dlc)
	for i := range data {
		data[i] = fmt.Sprintf("%02X", rng.Intn(256))
	}
	return fmt.Sprintf("[FAKE] (%d) can: CAN message received: ID=0x%03X, DLC=%d, Data=[%s]",
		counter, id, dlc, strings.Join(data, " "))
}

func busErrorLine(rng *rand.Rand, counter int) string {
	return fmt.Sprintf("[FAKE] (%d) can: CAN bus error detected: %s",
		counter, busErrors[rng.Intn(len(busErrors))])
}

func emit(ctx context.Context, w io.Writer, interval time.Duration, line string) error {
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(interval):
		return nil
	}
}
