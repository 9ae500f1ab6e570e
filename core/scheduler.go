package core

import (
	"context"
	"sync"

	"pkt.systems/pslog"
)

// TaskHandle tracks one spawned background task.
type TaskHandle interface {
	// Done is closed when the task returns.
	Done() <-chan struct{}
}

// Scheduler spawns background tasks for the core. Injecting it keeps
// the core free of any UI framework's worker machinery.
type Scheduler interface {
	Spawn(name string, fn func(ctx context.Context)) TaskHandle
}

type goTask struct {
	done chan struct{}
}

func (t *goTask) Done() <-chan struct{} { return t.done }

// GoScheduler runs tasks as plain goroutines bound to a base context.
type GoScheduler struct {
	base context.Context
	log  pslog.Logger
	wg   sync.WaitGroup
}

// NewGoScheduler constructs a scheduler whose tasks inherit ctx.
func NewGoScheduler(ctx context.Context) *GoScheduler {
	return &GoScheduler{base: ctx, log: pslog.Ctx(ctx)}
}

// Spawn starts fn as a goroutine and returns its handle.
func (s *GoScheduler) Spawn(name string, fn func(ctx context.Context)) TaskHandle {
	task := &goTask{done: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(task.done)
		if s.log != nil {
			s.log.Trace("task started", "task", name)
		}
		fn(s.base)
		if s.log != nil {
			s.log.Trace("task finished", "task", name)
		}
	}()
	return task
}

// Wait blocks until every spawned task has returned.
func (s *GoScheduler) Wait() {
	s.wg.Wait()
}
