package shellproc

import "sync"

// Registry tracks live processes so shutdown paths can terminate
// everything that is still running.
type Registry struct {
	mu    sync.Mutex
	procs map[*Process]struct{}
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[*Process]struct{})}
}

// Add registers a running process.
func (r *Registry) Add(p *Process) {
	r.mu.Lock()
	r.procs[p] = struct{}{}
	r.mu.Unlock()
}

// Remove unregisters a process after it exits.
func (r *Registry) Remove(p *Process) {
	r.mu.Lock()
	delete(r.procs, p)
	r.mu.Unlock()
}

// Running returns the number of tracked processes.
func (r *Registry) Running() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// TerminateAll terminates every tracked process.
func (r *Registry) TerminateAll() {
	r.mu.Lock()
	procs := make([]*Process, 0, len(r.procs))
	for p := range r.procs {
		procs = append(procs, p)
	}
	r.mu.Unlock()
	for _, p := range procs {
		p.Terminate()
	}
}
