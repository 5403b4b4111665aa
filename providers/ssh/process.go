package ssh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ruffel/childproc"
	"golang.org/x/crypto/ssh"
)

var _ childproc.Process = (*Process)(nil)

// Process is a command running in its own SSH session.
type Process struct {
	spawner *Spawner
	session *ssh.Session

	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader

	status  childproc.ExitStatus
	waitErr error
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// Pid returns 0: the remote process identifier is not exposed by the protocol.
func (p *Process) Pid() int {
	return 0
}

// Stdin returns the session's stdin pipe, or nil if the slot was not piped.
func (p *Process) Stdin() io.WriteCloser {
	return p.stdin
}

// Stdout returns the session's stdout pipe, or nil if the slot was not piped.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the session's stderr pipe, or nil if the slot was not piped.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// Wait blocks until the remote command exits and reports how it terminated.
func (p *Process) Wait() (childproc.ExitStatus, error) {
	<-p.done

	return p.status, p.waitErr
}

// Signal delivers sig to the remote process. Servers may ignore signal requests.
func (p *Process) Signal(sig os.Signal) error {
	sshSig, err := toSSHSignal(sig)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.New("process closed")
	}

	return p.session.Signal(sshSig)
}

// Close tears down the session. It is safe to call more than once.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	p.spawner.decrementActive()

	err := p.session.Close()
	if errors.Is(err, io.EOF) {
		return nil
	}

	return err
}

func (p *Process) start(ctx context.Context, commandLine string, stdio childproc.ResolvedStdio) error {
	if err := p.wire(stdio); err != nil {
		return err
	}

	childproc.Logger().Debug("starting ssh session", "command", commandLine)

	if err := p.session.Start(commandLine); err != nil {
		return fmt.Errorf("failed to start remote command: %w", err)
	}

	go p.monitor(ctx)

	return nil
}

// monitor records the exit of the remote command. Cancelling ctx kills the session.
func (p *Process) monitor(ctx context.Context) {
	defer close(p.done)

	waited := make(chan error, 1)

	go func() { waited <- p.session.Wait() }()

	var err error

	select {
	case err = <-waited:
	case <-ctx.Done():
		_ = p.Signal(os.Kill)
		_ = p.Close()
		<-waited

		p.waitErr = fmt.Errorf("ssh session: %w", ctx.Err())

		return
	}

	p.status, p.waitErr = exitStatus(err)
}

func (p *Process) wire(stdio childproc.ResolvedStdio) error {
	var err error

	switch t := stdio.Stdin; t.Kind {
	case childproc.TargetPipe:
		if p.stdin, err = p.session.StdinPipe(); err != nil {
			return fmt.Errorf("stdin pipe: %w", err)
		}
	case childproc.TargetHandle:
		if t.Reader == nil {
			return fmt.Errorf("%w: stdin handle is not readable", childproc.ErrInvalidStdio)
		}

		p.session.Stdin = t.Reader
	case childproc.TargetDiscard:
	default:
		return fmt.Errorf("stdin %v over ssh: %w", t.Kind, childproc.ErrNotSupported)
	}

	if p.stdout, err = wireOutput(stdio.Stdout, &p.session.Stdout, p.session.StdoutPipe, os.Stdout); err != nil {
		return fmt.Errorf("stdout: %w", err)
	}

	if p.stderr, err = wireOutput(stdio.Stderr, &p.session.Stderr, p.session.StderrPipe, os.Stderr); err != nil {
		return fmt.Errorf("stderr: %w", err)
	}

	return nil
}

// wireOutput connects one output slot. A nil session writer discards the channel's data.
func wireOutput(t childproc.Target, dst *io.Writer, pipe func() (io.Reader, error), inherit io.Writer) (io.Reader, error) {
	switch t.Kind {
	case childproc.TargetPipe:
		return pipe()
	case childproc.TargetHandle:
		if t.Writer == nil {
			return nil, fmt.Errorf("%w: handle is not writable", childproc.ErrInvalidStdio)
		}

		*dst = t.Writer
	case childproc.TargetInherit:
		*dst = inherit
	case childproc.TargetDiscard:
	default:
		return nil, fmt.Errorf("%v over ssh: %w", t.Kind, childproc.ErrNotSupported)
	}

	return nil, nil
}
