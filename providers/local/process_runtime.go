package local

import (
	"fmt"
	"io"
	"os"

	"github.com/ruffel/childproc"
)

// Wait blocks until the process terminates and returns how it terminated.
// An unsuccessful exit is not an error here; the error reports a failure of the
// wait itself (e.g. context cancellation racing a clean exit).
func (p *Process) Wait() (childproc.ExitStatus, error) {
	p.mu.RLock()

	if p.closed {
		p.mu.RUnlock()

		return childproc.ExitStatus{}, fmt.Errorf("cannot wait on process %q: already closed", p.req.Command)
	}

	done := p.done
	p.mu.RUnlock()

	if done == nil {
		return childproc.ExitStatus{}, fmt.Errorf("cannot wait on process %q: not started", p.req.Command)
	}

	// Block until the monitoring goroutine closes the done channel
	<-done

	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status, p.waitErr
}

// Pid returns the OS process identifier, or 0 if the process has not started.
func (p *Process) Pid() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.execCmd == nil || p.execCmd.Process == nil {
		return 0
	}

	return p.execCmd.Process.Pid
}

// Stdin returns the write end of the stdin pipe, or nil if stdin is not piped.
func (p *Process) Stdin() io.WriteCloser {
	if p.stdin == nil {
		return nil
	}

	return p.stdin
}

// Stdout returns the read end of the stdout pipe, or nil if stdout is not piped.
func (p *Process) Stdout() io.Reader {
	if p.stdout == nil {
		return nil
	}

	return p.stdout
}

// Stderr returns the read end of the stderr pipe, or nil if stderr is not piped.
func (p *Process) Stderr() io.Reader {
	if p.stderr == nil {
		return nil
	}

	return p.stderr
}

// Signal sends an OS signal to the running process.
// It delegates directly to os.Process.Signal.
func (p *Process) Signal(sig os.Signal) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return fmt.Errorf("cannot signal process %q: already closed", p.req.Command)
	}

	if p.execCmd == nil || p.execCmd.Process == nil {
		return fmt.Errorf("cannot signal process %q: not started", p.req.Command)
	}

	return p.execCmd.Process.Signal(sig)
}
