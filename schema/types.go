package schema

import "time"

// PortID identifies a serial port by its /dev basename (e.g. "ttyUSB0")
// or a simulated port name (e.g. "Port1").
type PortID string

// OptionID identifies a configuration option symbol, e.g. "CAN_BACKEND_TWAI".
type OptionID string

// SessionID identifies one monitor session.
type SessionID string

// PortClass tags how a port's monitor command is constructed.
type PortClass string

const (
	// PortSimulated marks a port served by the built-in data generator.
	PortSimulated PortClass = "simulated"
	// PortRealSerial marks a real hardware serial port under /dev.
	PortRealSerial PortClass = "serial"
)

// CommandSpec describes one external shell invocation.
type CommandSpec struct {
	Name    string
	Command string
}

// Option is one selectable entry from the option catalog.
type Option struct {
	ID          OptionID
	DisplayName string
	Type        string
	DependsOn   []OptionID
}

// SinkStats reports buffering performance of an output sink.
type SinkStats struct {
	TotalLines          int
	BufferSize          int
	FlushCount          int
	AvgFlushTime        time.Duration
	EmergencyFlushCount int
	BufferEfficiency    float64
}
