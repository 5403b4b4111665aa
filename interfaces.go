// Package childproc runs an external executable to completion and hands back its output.
//
// # Core Interfaces
//
// - Spawner: the OS process-spawn primitive (see providers/local).
// - Process: a live child with optional piped standard streams.
// - LogSink: a destination for output that resolves to a writable handle on demand.
//
// # Stdio
//
// Each of the three standard streams (stdin, stdout, stderr) is configured independently with a
// Stdio value: Discard, Inherit, Pipe, Fd, FromReader, ToWriter or ToLog. Output slots left as Pipe
// are captured as text and returned in the Result. Omitting the configuration pipes all three.
//
// # Termination
//
// A run succeeds when the child exits with code 0, or when it is terminated by SIGTERM. Any other
// termination is reported as a *SpawnError carrying whatever was captured.
package childproc

import (
	"context"
	"io"
	"os"
)

// Spawner abstracts the primitive that launches processes.
type Spawner interface {
	// Spawn launches the requested process. Errors returned here (missing executable,
	// permission denied, invalid stdio) are surfaced to callers unchanged.
	Spawn(ctx context.Context, req *SpawnRequest) (Process, error)

	// TargetOS returns the operating system processes are launched on.
	TargetOS() TargetOS

	// LookPath searches for an executable named file in the directories named by
	// the PATH environment variable.
	LookPath(ctx context.Context, file string) (string, error)
}

// Process represents a spawned child.
type Process interface {
	io.Closer

	// Pid returns the OS process identifier.
	Pid() int

	// Stdin returns the write end of the child's input pipe, or nil if stdin was not piped.
	Stdin() io.WriteCloser

	// Stdout returns the read end of the child's output pipe, or nil if stdout was not piped.
	Stdout() io.Reader

	// Stderr returns the read end of the child's error pipe, or nil if stderr was not piped.
	Stderr() io.Reader

	// Wait blocks until the process terminates and reports how it terminated.
	// A non-nil error means the wait itself failed, not that the child exited unsuccessfully.
	Wait() (ExitStatus, error)

	// Signal sends an OS signal to the process.
	Signal(sig os.Signal) error
}

// LogSink is a destination for process output backed by a lazily opened handle.
//
// Stream may block until the handle is available. When the returned writer is an *os.File the
// child writes to it directly; otherwise output is copied into it.
type LogSink interface {
	Stream(ctx context.Context) (io.Writer, error)
}
