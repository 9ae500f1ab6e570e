// Package shellproc runs shell commands with streamed output capture,
// error-pattern detection and bounded termination.
package shellproc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"pkt.systems/canflash/core"
	"pkt.systems/canflash/internal/logx"
	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// Options tunes a Process. Zero values fall back to the schema
// defaults.
type Options struct {
	// Registry tracks the process for its lifetime when set.
	Registry *Registry
	// RunTimeout bounds RunAndWait.
	RunTimeout time.Duration
	// TermGrace is the SIGTERM-to-SIGKILL escalation delay.
	TermGrace time.Duration
}

// Process runs one shell command, streaming its stdout and stderr line
// by line into a sink while capturing everything for inspection.
type Process struct {
	spec schema.CommandSpec
	sink core.Sink
	opts Options
	log  pslog.Logger

	mu         sync.Mutex
	cmd        *exec.Cmd
	started    bool
	terminated bool
	paused     bool
	pending    []string
	stdout     []string
	stderr     []string
	errLine    string

	exited chan struct{}
}

// New constructs a Process for spec writing lines to sink.
func New(spec schema.CommandSpec, sink core.Sink, opts Options) *Process {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = schema.DefaultRunTimeout
	}
	if opts.TermGrace <= 0 {
		opts.TermGrace = schema.DefaultTermGrace
	}
	return &Process{
		spec:   spec,
		sink:   sink,
		opts:   opts,
		exited: make(chan struct{}),
	}
}

// Factory returns a core.RunnerFactory producing shell processes with
// the given options.
func Factory(opts Options) core.RunnerFactory {
	return func(spec schema.CommandSpec, sink core.Sink) core.Runner {
		return New(spec, sink, opts)
	}
}

// Start runs the command to completion, streaming output into the
// sink, and returns its exit code. Spawn failures, reuse and timeouts
// surface as errors with exit code -1.
func (p *Process) Start(ctx context.Context) (int, error) {
	p.log = logx.WithCommand(pslog.Ctx(ctx), p.spec)
	if p.spec.Command == "" {
		return -1, schema.ErrEmptyCommand
	}
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return -1, schema.ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	runCtx, cancel := context.WithTimeout(ctx, p.opts.RunTimeout)
	defer cancel()

	cmd := exec.Command("bash", "-c", p.spec.Command)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("spawn: %w", err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()
	if p.opts.Registry != nil {
		p.opts.Registry.Add(p)
		defer p.opts.Registry.Remove(p)
	}
	if p.log != nil {
		p.log.Debug("process started", "pid", cmd.Process.Pid)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go p.readLines(stdout, &p.stdout, &wg)
	go p.readLines(stderr, &p.stderr, &wg)

	waitErr := make(chan error, 1)
	go func() {
		wg.Wait()
		waitErr <- cmd.Wait()
	}()

	started := time.Now()
	select {
	case err := <-waitErr:
		close(p.exited)
		exitCode := 0
		if err != nil {
			var exitErr *exec.ExitError
			if !errors.As(err, &exitErr) {
				return -1, fmt.Errorf("wait: %w", err)
			}
			exitCode = exitErr.ExitCode()
		}
		if p.log != nil {
			p.log.Info("process finished",
				"exit_code", exitCode,
				"duration_ms", time.Since(started).Milliseconds(),
				"error_line", p.ErrorLine() != "")
		}
		return exitCode, nil
	case <-runCtx.Done():
		if p.log != nil {
			p.log.Warn("process timed out", "timeout", p.opts.RunTimeout)
		}
		p.Terminate()
		<-waitErr
		close(p.exited)
		return -1, schema.ErrRunTimeout
	}
}

// RunAndWait runs the command to completion and reports success: the
// process spawned, exited zero within the timeout and printed no line
// matching an error pattern. All failure modes are logged and surfaced
// through the sink; no error escapes.
func (p *Process) RunAndWait(ctx context.Context) bool {
	exitCode, err := p.Start(ctx)
	if err != nil {
		p.fail(err.Error(), err)
		return false
	}
	if exitCode != 0 {
		p.fail(fmt.Sprintf("exit code %d", exitCode), nil)
		return false
	}
	if errLine := p.ErrorLine(); errLine != "" {
		if p.sink != nil {
			p.sink.Write("[red]FAILED: " + p.spec.Name + ": " + errLine + "[/]")
		}
		return false
	}
	return true
}

func (p *Process) readLines(r io.Reader, captured *[]string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := ConvertANSI(scanner.Text())
		p.mu.Lock()
		*captured = append(*captured, line)
		if p.errLine == "" {
			if pattern := MatchErrorPattern(line); pattern != "" {
				p.errLine = line
				if p.log != nil {
					p.log.Warn("error pattern matched", "pattern", pattern, "line", line)
				}
			}
		}
		paused := p.paused
		if paused {
			p.pending = append(p.pending, line)
		}
		p.mu.Unlock()
		if !paused && p.sink != nil {
			p.sink.Write(line)
		}
	}
	if err := scanner.Err(); err != nil && p.log != nil {
		p.log.Warn("process read failed", "err", err)
	}
}

func (p *Process) fail(reason string, err error) {
	if p.log != nil {
		if err != nil {
			p.log.Error("process failed", "reason", reason, "err", err)
		} else {
			p.log.Error("process failed", "reason", reason)
		}
	}
	if p.sink != nil {
		p.sink.Write("[red]FAILED: " + p.spec.Name + ": " + reason + "[/]")
	}
}

// Terminate stops the process group, escalating from SIGTERM to
// SIGKILL after the grace period. Idempotent and safe before Start.
func (p *Process) Terminate() {
	p.mu.Lock()
	cmd := p.cmd
	if p.terminated || cmd == nil || cmd.Process == nil {
		p.mu.Unlock()
		return
	}
	p.terminated = true
	p.mu.Unlock()

	pid := cmd.Process.Pid
	_ = unix.Kill(-pid, unix.SIGTERM)
	if p.log != nil {
		p.log.Debug("process terminating", "pid", pid)
	}
	go func() {
		select {
		case <-p.exited:
		case <-time.After(p.opts.TermGrace):
			_ = unix.Kill(-pid, unix.SIGKILL)
			if p.log != nil {
				p.log.Warn("process killed", "pid", pid)
			}
		}
	}()
}

// IsRunning reports whether the process has started and not yet exited.
func (p *Process) IsRunning() bool {
	p.mu.Lock()
	started := p.started && p.cmd != nil
	p.mu.Unlock()
	if !started {
		return false
	}
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// PauseOutput suspends sink delivery. Capture continues; withheld
// lines are queued for ResumeOutput.
func (p *Process) PauseOutput() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

// ResumeOutput restores sink delivery and drains lines withheld while
// paused, in order.
func (p *Process) ResumeOutput() {
	p.mu.Lock()
	pending := p.pending
	p.pending = nil
	p.paused = false
	p.mu.Unlock()
	if p.sink != nil {
		for _, line := range pending {
			p.sink.Write(line)
		}
	}
}

// StdoutLines returns a copy of the captured stdout lines.
func (p *Process) StdoutLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.stdout))
	copy(out, p.stdout)
	return out
}

// StderrLines returns a copy of the captured stderr lines.
func (p *Process) StderrLines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.stderr))
	copy(out, p.stderr)
	return out
}

// ErrorLine returns the first captured line that matched an error
// pattern, or "".
func (p *Process) ErrorLine() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.errLine
}
