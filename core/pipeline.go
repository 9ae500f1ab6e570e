package core

import (
	"context"
	"fmt"
	"runtime/debug"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// Step is one pipeline stage: either an external command (Spec set) or
// an in-process operation (Op set).
type Step struct {
	Name string
	Spec *schema.CommandSpec
	Op   func(ctx context.Context) error
}

// CommandStep wraps a command spec as a pipeline step.
func CommandStep(spec schema.CommandSpec) Step {
	return Step{Name: spec.Name, Spec: &spec}
}

// OpStep wraps an in-process operation as a pipeline step.
func OpStep(name string, op func(ctx context.Context) error) Step {
	return Step{Name: name, Op: op}
}

// Pipeline runs steps in order, stopping at the first failure.
type Pipeline struct {
	factory RunnerFactory
	sink    Sink
}

// NewPipeline constructs a pipeline spawning runners from factory and
// reporting progress to sink.
func NewPipeline(factory RunnerFactory, sink Sink) *Pipeline {
	return &Pipeline{factory: factory, sink: sink}
}

// Run executes steps sequentially. It returns true only when every
// step succeeds; the first failing step short-circuits the rest. A
// panic inside a step counts as a failed step, never a crash.
func (p *Pipeline) Run(ctx context.Context, steps []Step) bool {
	log := pslog.Ctx(ctx)
	for i, step := range steps {
		if log != nil {
			log.Info("pipeline step", "index", i+1, "total", len(steps), "name", step.Name)
		}
		if p.sink != nil {
			p.sink.Write(fmt.Sprintf("[cyan]▶ %s[/]", step.Name))
		}
		if !p.runStep(ctx, step) {
			if log != nil {
				log.Warn("pipeline aborted", "step", step.Name)
			}
			if p.sink != nil {
				p.sink.Write(fmt.Sprintf("[red]❌ %s FAILED[/]", step.Name))
			}
			return false
		}
		if p.sink != nil {
			p.sink.Write(fmt.Sprintf("[green]✅ %s[/]", step.Name))
		}
	}
	return true
}

func (p *Pipeline) runStep(ctx context.Context, step Step) (ok bool) {
	log := pslog.Ctx(ctx)
	defer func() {
		if r := recover(); r != nil {
			if log != nil {
				log.Error("pipeline step panicked", "step", step.Name, "panic", r, "stack", string(debug.Stack()))
			}
			ok = false
		}
	}()
	switch {
	case step.Spec != nil:
		runner := p.factory(*step.Spec, p.sink)
		return runner.RunAndWait(ctx)
	case step.Op != nil:
		if err := step.Op(ctx); err != nil {
			if log != nil {
				log.Warn("pipeline op failed", "step", step.Name, "err", err)
			}
			return false
		}
		return true
	default:
		if log != nil {
			log.Warn("pipeline step empty", "step", step.Name)
		}
		return false
	}
}
