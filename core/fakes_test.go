package core

import (
	"context"
	"sync"

	"pkt.systems/canflash/schema"
)

// fakeRunner scripts a Runner for pipeline and monitor tests.
type fakeRunner struct {
	spec    schema.CommandSpec
	sink    Sink
	result  bool
	block   chan struct{} // RunAndWait blocks until closed when set
	panics  bool
	emit    []string
	mu      sync.Mutex
	running bool
	termed  bool
	paused  bool
}

func (r *fakeRunner) RunAndWait(ctx context.Context) bool {
	if r.panics {
		panic("scripted panic")
	}
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	for _, line := range r.emit {
		if r.sink != nil {
			r.sink.Write(line)
		}
	}
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
		}
	}
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	return r.result
}

func (r *fakeRunner) Terminate() {
	r.mu.Lock()
	r.termed = true
	r.mu.Unlock()
	if r.block != nil {
		select {
		case <-r.block:
		default:
			close(r.block)
		}
	}
}

func (r *fakeRunner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *fakeRunner) PauseOutput() {
	r.mu.Lock()
	r.paused = true
	r.mu.Unlock()
}

func (r *fakeRunner) ResumeOutput() {
	r.mu.Lock()
	r.paused = false
	r.mu.Unlock()
}

// scriptedFactory hands out pre-built runners in order and records the
// specs it saw.
type scriptedFactory struct {
	mu      sync.Mutex
	runners []*fakeRunner
	specs   []schema.CommandSpec
}

func (f *scriptedFactory) factory(spec schema.CommandSpec, sink Sink) Runner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.specs = append(f.specs, spec)
	if len(f.runners) == 0 {
		r := &fakeRunner{spec: spec, sink: sink, result: true}
		return r
	}
	r := f.runners[0]
	f.runners = f.runners[1:]
	r.spec = spec
	r.sink = sink
	return r
}

// listSink collects written lines.
type listSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *listSink) Write(text string) {
	s.mu.Lock()
	s.lines = append(s.lines, text)
	s.mu.Unlock()
}

func (s *listSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.lines))
	copy(out, s.lines)
	return out
}
