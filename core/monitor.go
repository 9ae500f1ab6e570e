package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"pkt.systems/canflash/internal/logx"
	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// MonitorSpec builds the shell command that tails a port. Real serial
// devices are configured raw and streamed with cat; simulated ports
// re-invoke this binary's simulator.
func MonitorSpec(cfg schema.ServiceConfig, port schema.PortID) schema.CommandSpec {
	name := fmt.Sprintf("monitor %s", port)
	if !cfg.ForceSimulated && schema.ClassifyPort(port) == schema.PortRealSerial {
		device := schema.DevicePath(port)
		return schema.CommandSpec{
			Name:    name,
			Command: fmt.Sprintf("stty -F %s %d raw -echo && cat %s", device, cfg.Baud, device),
		}
	}
	return schema.CommandSpec{
		Name:    name,
		Command: fmt.Sprintf("%s simulate %s", cfg.SelfPath, port),
	}
}

type monitorSession struct {
	id     schema.SessionID
	runner Runner
	handle TaskHandle
}

// MonitorManager keeps at most one monitor session per port.
type MonitorManager struct {
	cfg     schema.ServiceConfig
	factory RunnerFactory
	sink    Sink
	sched   Scheduler

	mu       sync.Mutex
	sessions map[schema.PortID]*monitorSession
}

// NewMonitorManager constructs a manager spawning monitors through
// sched with runners from factory.
func NewMonitorManager(cfg schema.ServiceConfig, factory RunnerFactory, sink Sink, sched Scheduler) *MonitorManager {
	return &MonitorManager{
		cfg:      cfg,
		factory:  factory,
		sink:     sink,
		sched:    sched,
		sessions: make(map[schema.PortID]*monitorSession),
	}
}

// Start opens a monitor session on port. A port whose session is still
// in the map reports schema.ErrPortBusy; the session stays mapped from
// insertion until Stop or the task's own cleanup removes it.
func (m *MonitorManager) Start(ctx context.Context, port schema.PortID) (schema.SessionID, error) {
	log := logx.WithPort(pslog.Ctx(ctx), port)
	m.mu.Lock()
	if _, ok := m.sessions[port]; ok {
		m.mu.Unlock()
		return "", schema.ErrPortBusy
	}
	spec := MonitorSpec(m.cfg, port)
	session := &monitorSession{
		id:     schema.SessionID(uuid.NewString()),
		runner: m.factory(spec, m.sink),
	}
	m.sessions[port] = session
	log = logx.WithSession(log, session.id)
	// The handle is assigned before the lock is released; Stop only
	// sees the session once it carries one.
	session.handle = m.sched.Spawn(spec.Name, func(taskCtx context.Context) {
		ok := session.runner.RunAndWait(taskCtx)
		m.mu.Lock()
		if current, found := m.sessions[port]; found && current == session {
			delete(m.sessions, port)
		}
		m.mu.Unlock()
		if log != nil {
			log.Info("monitor exited", "ok", ok)
		}
		if m.sink != nil {
			m.sink.Write(fmt.Sprintf("[yellow]monitor %s finished[/]", port))
		}
	})
	m.mu.Unlock()

	if log != nil {
		log.Info("monitor starting", "command", spec.Command)
	}
	return session.id, nil
}

// Stop terminates the session on port and waits up to the configured
// stop window for the monitor task to return. The session is removed
// either way; a monitor that outlives the window is logged and left to
// die in the background.
func (m *MonitorManager) Stop(ctx context.Context, port schema.PortID) error {
	log := logx.WithPort(pslog.Ctx(ctx), port)
	m.mu.Lock()
	session, ok := m.sessions[port]
	if !ok {
		m.mu.Unlock()
		return schema.ErrNoSession
	}
	delete(m.sessions, port)
	m.mu.Unlock()

	session.runner.Terminate()
	wait := m.cfg.StopWait
	if wait <= 0 {
		wait = schema.DefaultStopWait
	}
	if session.handle != nil {
		select {
		case <-session.handle.Done():
		case <-time.After(wait):
			if log != nil {
				log.Warn("monitor stop timed out", "session", session.id)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if log != nil {
		log.Info("monitor stopped", "session", session.id)
	}
	return nil
}

// StopAll stops every active session and returns how many were
// actually stopped. One port failing to stop does not prevent the
// rest.
func (m *MonitorManager) StopAll(ctx context.Context) int {
	stopped := 0
	for _, port := range m.Active() {
		if err := m.Stop(ctx, port); err != nil {
			if err != schema.ErrNoSession {
				if log := pslog.Ctx(ctx); log != nil {
					log.Warn("monitor stop failed", "port", port, "err", err)
				}
			}
			continue
		}
		stopped++
	}
	return stopped
}

// Active returns the monitored ports in sorted order.
func (m *MonitorManager) Active() []schema.PortID {
	m.mu.Lock()
	ports := make([]schema.PortID, 0, len(m.sessions))
	for port := range m.sessions {
		ports = append(ports, port)
	}
	m.mu.Unlock()
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// IsMonitoring reports whether port has a session.
func (m *MonitorManager) IsMonitoring(port schema.PortID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[port]
	return ok
}

// Pause suspends output forwarding for the session on port.
func (m *MonitorManager) Pause(port schema.PortID) error {
	m.mu.Lock()
	session, ok := m.sessions[port]
	m.mu.Unlock()
	if !ok {
		return schema.ErrNoSession
	}
	session.runner.PauseOutput()
	return nil
}

// Resume restores output forwarding for the session on port.
func (m *MonitorManager) Resume(port schema.PortID) error {
	m.mu.Lock()
	session, ok := m.sessions[port]
	m.mu.Unlock()
	if !ok {
		return schema.ErrNoSession
	}
	session.runner.ResumeOutput()
	return nil
}
