package mock

import (
	"bytes"
	"io"
	"os"
	"sync"

	"github.com/ruffel/childproc"
)

var _ childproc.Process = (*ScriptedProcess)(nil)

// ScriptedProcess is a fake child whose streams and termination are driven by the test.
// All three standard streams are backed by in-memory pipes; writes block until the
// Runner reads them.
type ScriptedProcess struct {
	pid int

	stdinW  *io.PipeWriter
	stdoutR *io.PipeReader
	stdoutW *io.PipeWriter
	stderrR *io.PipeReader
	stderrW *io.PipeWriter

	stdin     bytes.Buffer
	stdinDone chan struct{}

	exitOnce sync.Once
	exited   chan struct{}
	status   childproc.ExitStatus
	err      error

	mu      sync.Mutex
	signals []os.Signal
	closed  bool
}

// NewScriptedProcess creates a scripted process reporting the given pid.
func NewScriptedProcess(pid int) *ScriptedProcess {
	p := &ScriptedProcess{
		pid:       pid,
		stdinDone: make(chan struct{}),
		exited:    make(chan struct{}),
	}

	stdinR, stdinW := io.Pipe()
	p.stdinW = stdinW
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()

	go func() {
		defer close(p.stdinDone)

		_, _ = io.Copy(&p.stdin, stdinR)
	}()

	return p
}

// WriteStdout emits a chunk on stdout.
func (p *ScriptedProcess) WriteStdout(s string) error {
	_, err := io.WriteString(p.stdoutW, s)

	return err
}

// WriteStderr emits a chunk on stderr.
func (p *ScriptedProcess) WriteStderr(s string) error {
	_, err := io.WriteString(p.stderrW, s)

	return err
}

// CloseStdout signals end of data on stdout.
func (p *ScriptedProcess) CloseStdout() {
	_ = p.stdoutW.Close()
}

// CloseStderr signals end of data on stderr.
func (p *ScriptedProcess) CloseStderr() {
	_ = p.stderrW.Close()
}

// CloseOutput signals end of data on stdout and stderr.
func (p *ScriptedProcess) CloseOutput() {
	p.CloseStdout()
	p.CloseStderr()
}

// Exit terminates the process with status. Only the first Exit or Fail takes effect.
func (p *ScriptedProcess) Exit(status childproc.ExitStatus) {
	p.exitOnce.Do(func() {
		p.status = status
		close(p.exited)
	})
}

// Fail makes Wait report err. Only the first Exit or Fail takes effect.
func (p *ScriptedProcess) Fail(err error) {
	p.exitOnce.Do(func() {
		p.err = err
		close(p.exited)
	})
}

// StdinText blocks until stdin has been closed and returns everything written to it.
func (p *ScriptedProcess) StdinText() string {
	<-p.stdinDone

	return p.stdin.String()
}

// Signals returns the signals sent so far.
func (p *ScriptedProcess) Signals() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]os.Signal(nil), p.signals...)
}

// Closed reports whether Close has been called.
func (p *ScriptedProcess) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closed
}

// Pid returns the configured pid.
func (p *ScriptedProcess) Pid() int { return p.pid }

// Stdin returns the write end of the stdin pipe.
func (p *ScriptedProcess) Stdin() io.WriteCloser { return p.stdinW }

// Stdout returns the read end of the stdout pipe.
func (p *ScriptedProcess) Stdout() io.Reader { return p.stdoutR }

// Stderr returns the read end of the stderr pipe.
func (p *ScriptedProcess) Stderr() io.Reader { return p.stderrR }

// Wait blocks until Exit or Fail is called.
func (p *ScriptedProcess) Wait() (childproc.ExitStatus, error) {
	<-p.exited

	return p.status, p.err
}

// Signal records sig. It does not terminate the process; call Exit for that.
func (p *ScriptedProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.signals = append(p.signals, sig)

	return nil
}

// Close releases the pipes. Pending writes to stdout and stderr fail.
func (p *ScriptedProcess) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	_ = p.stdinW.Close()
	_ = p.stdoutR.Close()
	_ = p.stderrR.Close()

	return nil
}
