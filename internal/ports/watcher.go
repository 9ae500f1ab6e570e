package ports

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// Event reports a serial port appearing or disappearing under /dev.
type Event struct {
	Port  schema.PortID
	Added bool
}

// Watcher observes /dev for hotplug of ttyACM/ttyUSB devices.
type Watcher struct {
	dir    string
	events chan Event
	log    pslog.Logger
}

// NewWatcher constructs a watcher over the given device directory
// (normally /dev).
func NewWatcher(dir string, logger pslog.Logger) *Watcher {
	if dir == "" {
		dir = "/dev"
	}
	return &Watcher{
		dir:    dir,
		events: make(chan Event, 16),
		log:    logger,
	}
}

// Events yields hotplug events while Run is active.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run watches until the context is cancelled. The events channel is
// closed on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()
	if err := fw.Add(w.dir); err != nil {
		return err
	}
	if w.log != nil {
		w.log.Debug("port watcher started", "dir", w.dir)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			port := schema.PortID(filepath.Base(event.Name))
			if schema.ClassifyPort(port) != schema.PortRealSerial {
				continue
			}
			switch {
			case event.Has(fsnotify.Create):
				w.emit(ctx, Event{Port: port, Added: true})
			case event.Has(fsnotify.Remove):
				w.emit(ctx, Event{Port: port, Added: false})
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if w.log != nil {
				w.log.Warn("port watcher error", "err", err)
			}
		}
	}
}

func (w *Watcher) emit(ctx context.Context, event Event) {
	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}
