package schema

import "errors"

var (
	// ErrEmptyCommand indicates a command spec with no command line.
	ErrEmptyCommand = errors.New("empty command")
	// ErrAlreadyStarted indicates Start was called twice on one process.
	ErrAlreadyStarted = errors.New("process already started")
	// ErrRunTimeout indicates a process exceeded its maximum run duration.
	ErrRunTimeout = errors.New("process run timed out")
	// ErrPortBusy indicates a monitor session already exists for the port.
	ErrPortBusy = errors.New("port already monitored")
	// ErrNoSession indicates no active monitor session for the port.
	ErrNoSession = errors.New("no active monitor for port")
	// ErrOptionNotFound indicates an option id missing from the catalog.
	ErrOptionNotFound = errors.New("option not found")
	// ErrEmptySelection indicates a missing library or example selection.
	ErrEmptySelection = errors.New("library and example must be selected")
)
