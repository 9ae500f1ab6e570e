package core

import (
	"strings"
	"sync"
	"time"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// Surface renders flushed sink output. Print returns an error when the
// text contains markup the surface cannot render.
type Surface interface {
	Print(text string) error
	Clear()
}

// BufferedLog is a rate-limited output sink. Lines accumulate in a
// buffer and reach the surface in batches: on a timer, when the buffer
// fills and the flush interval has passed, immediately on error
// markers, and unconditionally when the buffer grows to twice its
// capacity.
type BufferedLog struct {
	surface  Surface
	log      pslog.Logger
	capacity int
	interval time.Duration
	maxLines int

	mu        sync.Mutex
	lines     []string
	timer     *time.Timer
	lastFlush time.Time
	retained  int

	totalLines     int
	flushCount     int
	flushDuration  time.Duration
	emergencyCount int
}

// SinkOptions tunes a BufferedLog. Zero values fall back to the schema
// defaults.
type SinkOptions struct {
	Capacity      int
	FlushInterval time.Duration
	MaxLines      int
	Logger        pslog.Logger
}

// NewBufferedLog constructs a sink writing to surface.
func NewBufferedLog(surface Surface, opts SinkOptions) *BufferedLog {
	if opts.Capacity <= 0 {
		opts.Capacity = schema.DefaultSinkCapacity
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = schema.DefaultFlushInterval
	}
	if opts.MaxLines <= 0 {
		opts.MaxLines = schema.DefaultSinkMaxLines
	}
	return &BufferedLog{
		surface:   surface,
		log:       opts.Logger,
		capacity:  opts.Capacity,
		interval:  opts.FlushInterval,
		maxLines:  opts.MaxLines,
		lines:     make([]string, 0, 2*opts.Capacity),
		lastFlush: time.Now(),
	}
}

var errorMarkers = []string{"error", "failed", "exception", "❌"}

func hasErrorMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range errorMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Write buffers one line, flushing according to the sink's policy.
func (b *BufferedLog) Write(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, text)
	b.totalLines++
	switch {
	case hasErrorMarker(text):
		b.flushLocked()
	case len(b.lines) >= 2*b.capacity:
		b.emergencyCount++
		if b.log != nil {
			b.log.Warn("sink emergency flush", "buffered", len(b.lines))
		}
		b.flushLocked()
	case len(b.lines) >= b.capacity && time.Since(b.lastFlush) >= b.interval:
		b.flushLocked()
	default:
		b.armTimerLocked()
	}
}

// Flush forces any buffered lines to the surface.
func (b *BufferedLog) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) > 0 {
		b.flushLocked()
	}
}

// Clear drops buffered lines, resets the surface scrollback and zeroes
// the counters.
func (b *BufferedLog) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = b.lines[:0]
	b.retained = 0
	b.totalLines = 0
	b.flushCount = 0
	b.flushDuration = 0
	b.emergencyCount = 0
	b.stopTimerLocked()
	if b.surface != nil {
		b.surface.Clear()
	}
}

// Stats returns a snapshot of the sink counters.
func (b *BufferedLog) Stats() schema.SinkStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := schema.SinkStats{
		TotalLines:          b.totalLines,
		BufferSize:          len(b.lines),
		FlushCount:          b.flushCount,
		EmergencyFlushCount: b.emergencyCount,
	}
	if b.flushCount > 0 {
		stats.AvgFlushTime = b.flushDuration / time.Duration(b.flushCount)
		avg := float64(b.totalLines-len(b.lines)) / float64(b.flushCount)
		stats.BufferEfficiency = avg / float64(b.capacity)
		if stats.BufferEfficiency > 1 {
			stats.BufferEfficiency = 1
		}
	}
	return stats
}

func (b *BufferedLog) armTimerLocked() {
	if b.timer != nil {
		return
	}
	b.timer = time.AfterFunc(b.interval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.timer = nil
		if len(b.lines) > 0 {
			b.flushLocked()
		}
	})
}

func (b *BufferedLog) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *BufferedLog) flushLocked() {
	b.stopTimerLocked()
	count := len(b.lines)
	if count == 0 {
		b.lastFlush = time.Now()
		return
	}
	// Reset the scrollback before it grows unbounded.
	if b.retained+count > b.maxLines && b.surface != nil {
		b.surface.Clear()
		b.retained = 0
	}
	text := strings.Join(b.lines, "\n")
	started := time.Now()
	b.printDegraded(text)
	b.flushDuration += time.Since(started)
	b.flushCount++
	b.retained += count
	b.lines = b.lines[:0]
	b.lastFlush = time.Now()
	if b.log != nil {
		b.log.Trace("sink flushed", "lines", count)
	}
}

// printDegraded writes text to the surface, stepping down through
// markup degradation when the surface rejects it: escape the markup,
// then rewrite the brackets entirely.
func (b *BufferedLog) printDegraded(text string) {
	if b.surface == nil {
		return
	}
	if err := b.surface.Print(text); err == nil {
		return
	}
	escaped := strings.ReplaceAll(text, "[", `\[`)
	if err := b.surface.Print(escaped); err == nil {
		if b.log != nil {
			b.log.Debug("sink markup escaped")
		}
		return
	}
	plain := strings.ReplaceAll(strings.ReplaceAll(text, "[", "("), "]", ")")
	if err := b.surface.Print(plain); err != nil && b.log != nil {
		b.log.Warn("sink surface write failed", "err", err)
	}
}
