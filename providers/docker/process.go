package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/ruffel/childproc"
)

const exitPollTimeout = 30 * time.Second

var _ childproc.Process = (*Process)(nil)

// Process is a docker exec instance.
type Process struct {
	spawner *Spawner

	execID string
	pid    int
	stream types.HijackedResponse

	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader

	status  childproc.ExitStatus
	waitErr error
	done    chan struct{}

	// halted stops a handle stdin copy from issuing further reads.
	halted   chan struct{}
	haltOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// Pid returns the exec instance's process id as reported by the daemon, or 0 if unknown.
func (p *Process) Pid() int {
	return p.pid
}

// Stdin returns the attached stdin, or nil if the slot was not piped.
// Closing it half-closes the attach connection, which the command sees as end of input.
func (p *Process) Stdin() io.WriteCloser {
	return p.stdin
}

// Stdout returns the demultiplexed stdout, or nil if the slot was not piped.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Stderr returns the demultiplexed stderr, or nil if the slot was not piped.
func (p *Process) Stderr() io.Reader {
	return p.stderr
}

// Wait blocks until the output stream has ended and the daemon reports the exit code.
func (p *Process) Wait() (childproc.ExitStatus, error) {
	<-p.done

	return p.status, p.waitErr
}

// Signal is not supported: the Engine API cannot signal exec instances.
func (p *Process) Signal(sig os.Signal) error {
	return fmt.Errorf("signal %v in docker exec: %w", sig, childproc.ErrNotSupported)
}

// Close disconnects the attach stream. It is safe to call more than once.
func (p *Process) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	p.halt()
	p.spawner.decrementActive()

	if p.stream.Conn != nil {
		p.stream.Close()
	}

	return nil
}

func (p *Process) start(ctx context.Context, plan execPlan) error {
	cli := p.spawner.client

	created, err := cli.ContainerExecCreate(ctx, p.spawner.config.ContainerID, plan.options)
	if err != nil {
		return fmt.Errorf("failed to create exec: %w", err)
	}

	p.execID = created.ID

	resp, err := cli.ContainerExecAttach(ctx, p.execID, container.ExecStartOptions{})
	if err != nil {
		return fmt.Errorf("failed to attach exec: %w", err)
	}

	p.stream = resp

	if inspect, err := cli.ContainerExecInspect(ctx, p.execID); err == nil {
		p.pid = inspect.Pid
	}

	childproc.Logger().Debug("docker exec started", "container", p.spawner.config.ContainerID,
		"exec", p.execID, "cmd", plan.options.Cmd)

	switch plan.stdin.Kind {
	case childproc.TargetPipe:
		p.stdin = &stdinWriter{stream: resp}
	case childproc.TargetHandle:
		go func() {
			defer func() { _ = resp.CloseWrite() }()

			_, _ = io.Copy(resp.Conn, &haltReader{r: plan.stdin.Reader, halted: p.halted})
		}()
	}

	stdoutW, stdoutR, stdoutPipe := outputWriter(plan.stdout, os.Stdout)
	stderrW, stderrR, stderrPipe := outputWriter(plan.stderr, os.Stderr)

	if stdoutR != nil {
		p.stdout = stdoutR
	}

	if stderrR != nil {
		p.stderr = stderrR
	}

	outputDone := make(chan struct{})

	go func() {
		defer close(outputDone)

		_, err := stdcopy.StdCopy(stdoutW, stderrW, resp.Reader)

		for _, pw := range []*io.PipeWriter{stdoutPipe, stderrPipe} {
			if pw != nil {
				_ = pw.CloseWithError(err)
			}
		}
	}()

	go p.monitor(ctx, cli, outputDone)

	return nil
}

// monitor waits for the output stream to end, then polls the daemon for the exit code.
func (p *Process) monitor(ctx context.Context, cli *client.Client, outputDone <-chan struct{}) {
	defer close(p.done)
	defer p.halt()

	select {
	case <-outputDone:
	case <-ctx.Done():
		_ = p.Close()
		<-outputDone

		p.waitErr = fmt.Errorf("docker exec: %w", ctx.Err())

		return
	}

	// The run's context may already be done; the exit code is still worth collecting.
	inspect, err := pollForExitCode(context.Background(), cli, p.execID, exitPollTimeout) //nolint:contextcheck
	if err != nil {
		p.waitErr = fmt.Errorf("inspect exec %s: %w", p.execID, err)

		return
	}

	p.status = exitStatus(inspect.ExitCode)
}

func (p *Process) halt() {
	p.haltOnce.Do(func() { close(p.halted) })
}

// haltReader reads from r until halted is closed. A Read already blocked in r when that
// happens cannot be interrupted; whatever it returns is dropped.
type haltReader struct {
	r      io.Reader
	halted <-chan struct{}
}

func (h *haltReader) Read(p []byte) (int, error) {
	select {
	case <-h.halted:
		return 0, io.EOF
	default:
	}

	n, err := h.r.Read(p)

	select {
	case <-h.halted:
		return 0, io.EOF
	default:
		return n, err
	}
}

// pollForExitCode polls the Docker API until the exec process exits or times out.
func pollForExitCode(ctx context.Context, cli *client.Client, execID string, timeout time.Duration) (container.ExecInspect, error) {
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		inspectResp, err := cli.ContainerExecInspect(pollCtx, execID)
		if err != nil {
			return inspectResp, err
		}

		if !inspectResp.Running {
			return inspectResp, nil
		}

		select {
		case <-pollCtx.Done():
			return inspectResp, pollCtx.Err()
		case <-ticker.C:
		}
	}
}

// stdinWriter writes to the attach connection; Close half-closes it.
type stdinWriter struct {
	stream types.HijackedResponse
	once   sync.Once
	err    error
}

func (w *stdinWriter) Write(p []byte) (int, error) {
	return w.stream.Conn.Write(p)
}

func (w *stdinWriter) Close() error {
	w.once.Do(func() {
		w.err = w.stream.CloseWrite()
		if errors.Is(w.err, io.EOF) {
			w.err = nil
		}
	})

	return w.err
}
