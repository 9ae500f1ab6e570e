package core

import (
	"context"

	"pkt.systems/canflash/schema"
)

// Sink receives streamed output lines from running processes.
type Sink interface {
	Write(text string)
}

// Runner drives one external command to completion while streaming its
// output into a sink.
type Runner interface {
	// RunAndWait runs the command and reports success: exit code zero
	// and no error pattern in the captured output. Failures are logged
	// and written to the sink; errors never escape.
	RunAndWait(ctx context.Context) bool
	// Terminate stops the process. Safe to call at any time.
	Terminate()
	// IsRunning reports whether the process is still alive.
	IsRunning() bool
	// PauseOutput throttles sink delivery without stopping capture.
	PauseOutput()
	// ResumeOutput restores sink delivery and drains withheld lines.
	ResumeOutput()
}

// RunnerFactory builds a Runner for a command spec bound to a sink.
type RunnerFactory func(spec schema.CommandSpec, sink Sink) Runner
