package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ruffel/childproc"
)

// Close releases resources associated with the process.
// If the process is still running, it will be killed to ensure cleanup.
func (p *Process) Close() error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return nil // Already closed
	}

	done := p.done // Capture channel reference
	p.closed = true
	p.mu.Unlock()

	// Kill and wait outside of lock to avoid deadlock
	if done != nil {
		select {
		case <-done:
			// Process already completed, nothing to kill
		default:
			_ = p.kill()

			<-done // Wait for monitor to finish
		}
	}

	closeFiles(p.stdin, p.stdout, p.stderr)

	return nil
}

func (p *Process) kill() error {
	if p.execCmd.Process == nil || p.execCmd.Process.Pid <= 0 {
		return nil
	}

	// A detached child leads its own group; take its descendants down with it.
	if p.req.Detached {
		return killProcessGroup(p.execCmd.Process.Pid)
	}

	return p.execCmd.Process.Kill()
}

func (p *Process) start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if strings.TrimSpace(p.req.Command) == "" {
		return childproc.ErrEmptyCommand
	}

	if p.closed {
		return fmt.Errorf("cannot start process %q: already closed", p.req.Command)
	}

	name, args := p.req.Command, p.req.Args
	if p.req.Shell {
		name, args = p.spawner.targetOS.ShellCommand(strings.Join(append([]string{name}, args...), " "))
	}

	p.execCmd = exec.CommandContext(ctx, name, args...)

	if p.req.Argv0 != "" && !p.req.Shell {
		p.execCmd.Args[0] = p.req.Argv0
	}

	// Set working directory if specified
	if p.req.Dir != "" {
		p.execCmd.Dir = p.req.Dir
	}

	// Set environment variables if specified
	if len(p.req.Env) > 0 {
		p.execCmd.Env = append(os.Environ(), p.req.Env...)
	}

	configureSysProcAttr(p.execCmd, p.req)

	var w wiring

	if err := p.wire(&w); err != nil {
		w.abort()

		return err
	}

	p.done = make(chan struct{})

	if err := p.execCmd.Start(); err != nil {
		w.abort()

		return err
	}

	// The child holds its own copies now.
	w.started()

	go p.monitor()

	return nil
}

// monitor waits for the process to exit and records how it terminated.
func (p *Process) monitor() {
	defer close(p.done)
	defer p.spawner.decrementActive()

	err := p.execCmd.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	state := p.execCmd.ProcessState
	if state == nil {
		p.waitErr = err

		return
	}

	p.status = exitStatus(state)

	// Anything other than an unsuccessful exit (context errors, a failing writer handle) is a
	// failure of the wait itself.
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		p.waitErr = err
	}
}

func (p *Process) wire(w *wiring) error {
	slots := p.req.Stdio

	if err := p.wireStdin(w, slots.Stdin); err != nil {
		return fmt.Errorf("stdin: %w", err)
	}

	out, stdout, err := p.wireOutput(w, slots.Stdout, os.Stdout)
	if err != nil {
		return fmt.Errorf("stdout: %w", err)
	}

	p.execCmd.Stdout, p.stdout = out, stdout

	errOut, stderr, err := p.wireOutput(w, slots.Stderr, os.Stderr)
	if err != nil {
		return fmt.Errorf("stderr: %w", err)
	}

	p.execCmd.Stderr, p.stderr = errOut, stderr

	return nil
}

func (p *Process) wireStdin(w *wiring, t childproc.Target) error {
	switch t.Kind {
	case childproc.TargetDiscard:
		// os/exec connects a nil Stdin to the null device.
		p.execCmd.Stdin = nil
	case childproc.TargetInherit:
		p.execCmd.Stdin = os.Stdin
	case childproc.TargetPipe:
		r, pw, err := w.pipe()
		if err != nil {
			return err
		}

		w.child(r)
		p.execCmd.Stdin, p.stdin = r, pw
	case childproc.TargetFd:
		f, err := w.fd(t.Fd)
		if err != nil {
			return err
		}

		p.execCmd.Stdin = f
	case childproc.TargetHandle:
		if t.Reader == nil {
			return fmt.Errorf("%w: handle is not readable", childproc.ErrInvalidStdio)
		}

		p.execCmd.Stdin = t.Reader
	default:
		return fmt.Errorf("%w: unknown target %v", childproc.ErrInvalidStdio, t.Kind)
	}

	return nil
}

// wireOutput returns what the child writes to and, for pipes, the parent's read end.
func (p *Process) wireOutput(w *wiring, t childproc.Target, inherit *os.File) (io.Writer, *os.File, error) {
	switch t.Kind {
	case childproc.TargetDiscard:
		return nil, nil, nil
	case childproc.TargetInherit:
		return inherit, nil, nil
	case childproc.TargetPipe:
		r, pw, err := w.pipe()
		if err != nil {
			return nil, nil, err
		}

		w.child(pw)

		return pw, r, nil
	case childproc.TargetFd:
		f, err := w.fd(t.Fd)
		if err != nil {
			return nil, nil, err
		}

		return f, nil, nil
	case childproc.TargetHandle:
		if t.Writer == nil {
			return nil, nil, fmt.Errorf("%w: handle is not writable", childproc.ErrInvalidStdio)
		}

		return t.Writer, nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown target %v", childproc.ErrInvalidStdio, t.Kind)
	}
}

// wiring tracks descriptors opened while starting a process.
type wiring struct {
	opened    []*os.File
	childEnds []*os.File
}

func (w *wiring) pipe() (*os.File, *os.File, error) {
	r, pw, err := os.Pipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create pipe: %w", err)
	}

	w.opened = append(w.opened, r, pw)

	return r, pw, nil
}

// child marks f as the child's end, closed in the parent once the child has started.
func (w *wiring) child(f *os.File) {
	w.childEnds = append(w.childEnds, f)
}

// fd returns a file for a parent descriptor. The standard descriptors are shared as-is;
// others are duplicated so the caller's descriptor is never closed by us.
func (w *wiring) fd(fd int) (*os.File, error) {
	switch fd {
	case 0:
		return os.Stdin, nil
	case 1:
		return os.Stdout, nil
	case 2:
		return os.Stderr, nil
	}

	f, err := dupFd(fd)
	if err != nil {
		return nil, err
	}

	w.opened = append(w.opened, f)
	w.child(f)

	return f, nil
}

func (w *wiring) started() {
	closeFiles(w.childEnds...)
}

func (w *wiring) abort() {
	closeFiles(w.opened...)
}

func closeFiles(files ...*os.File) {
	for _, f := range files {
		if f != nil {
			_ = f.Close()
		}
	}
}
