package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pkt.systems/canflash/schema"
)

func TestPipelineRunsAllSteps(t *testing.T) {
	factory := &scriptedFactory{}
	sink := &listSink{}
	pipeline := NewPipeline(factory.factory, sink)

	ok := pipeline.Run(context.Background(), []Step{
		CommandStep(schema.CommandSpec{Name: "configure", Command: "true"}),
		CommandStep(schema.CommandSpec{Name: "compile", Command: "true"}),
	})
	if !ok {
		t.Fatalf("expected success")
	}
	if len(factory.specs) != 2 {
		t.Fatalf("expected 2 runners, got %d", len(factory.specs))
	}
	joined := strings.Join(sink.snapshot(), "\n")
	if !strings.Contains(joined, "✅ configure") || !strings.Contains(joined, "✅ compile") {
		t.Fatalf("missing success markers: %q", joined)
	}
}

func TestPipelineShortCircuitsOnFailure(t *testing.T) {
	factory := &scriptedFactory{runners: []*fakeRunner{
		{result: false},
		{result: true},
	}}
	sink := &listSink{}
	pipeline := NewPipeline(factory.factory, sink)

	ok := pipeline.Run(context.Background(), []Step{
		CommandStep(schema.CommandSpec{Name: "compile"}),
		CommandStep(schema.CommandSpec{Name: "flash"}),
	})
	if ok {
		t.Fatalf("expected failure")
	}
	if len(factory.specs) != 1 {
		t.Fatalf("second step must not run, got %d runners", len(factory.specs))
	}
	joined := strings.Join(sink.snapshot(), "\n")
	if !strings.Contains(joined, "❌ compile FAILED") {
		t.Fatalf("missing failure marker: %q", joined)
	}
	if strings.Contains(joined, "flash") {
		t.Fatalf("short-circuited step should not be announced: %q", joined)
	}
}

func TestPipelineOpStep(t *testing.T) {
	factory := &scriptedFactory{}
	pipeline := NewPipeline(factory.factory, &listSink{})

	ran := false
	ok := pipeline.Run(context.Background(), []Step{
		OpStep("update", func(ctx context.Context) error {
			ran = true
			return nil
		}),
	})
	if !ok || !ran {
		t.Fatalf("op step should run and succeed, ok=%v ran=%v", ok, ran)
	}

	ok = pipeline.Run(context.Background(), []Step{
		OpStep("update", func(ctx context.Context) error {
			return errors.New("no")
		}),
		OpStep("never", func(ctx context.Context) error {
			t.Fatalf("must not run after failure")
			return nil
		}),
	})
	if ok {
		t.Fatalf("failing op step must fail the pipeline")
	}
}

func TestPipelineRecoversPanics(t *testing.T) {
	factory := &scriptedFactory{runners: []*fakeRunner{{panics: true}}}
	pipeline := NewPipeline(factory.factory, &listSink{})

	ok := pipeline.Run(context.Background(), []Step{
		CommandStep(schema.CommandSpec{Name: "compile"}),
	})
	if ok {
		t.Fatalf("panicking step must fail, not crash")
	}

	ok = pipeline.Run(context.Background(), []Step{
		OpStep("bad", func(ctx context.Context) error {
			panic("op panic")
		}),
	})
	if ok {
		t.Fatalf("panicking op must fail, not crash")
	}
}

func TestPipelineEmptyStepFails(t *testing.T) {
	pipeline := NewPipeline((&scriptedFactory{}).factory, &listSink{})
	if pipeline.Run(context.Background(), []Step{{Name: "noop"}}) {
		t.Fatalf("step with neither spec nor op must fail")
	}
}
