package logx

import (
	"context"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// Ctx returns the logger bound to the provided context.
func Ctx(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx)
}

// WithPort annotates the logger with a port identifier when available.
func WithPort(log pslog.Logger, port schema.PortID) pslog.Logger {
	if port != "" {
		log = log.With("port", port)
	}
	return log
}

// WithCommand annotates the logger with command metadata when available.
func WithCommand(log pslog.Logger, spec schema.CommandSpec) pslog.Logger {
	if spec.Name != "" {
		log = log.With("command", spec.Name)
	}
	return log
}

// WithSession annotates the logger with a monitor session id when available.
func WithSession(log pslog.Logger, sessionID schema.SessionID) pslog.Logger {
	if sessionID != "" {
		log = log.With("session", sessionID)
	}
	return log
}
