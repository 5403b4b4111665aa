package childproc

import (
	"fmt"
	"io"
	"strings"

	"github.com/ruffel/childproc/internal/sentinel"
	"github.com/ruffel/childproc/internal/transcode"
)

// Sentinel errors for inspection with errors.Is.
const (
	// ErrEmptyCommand is returned by Spawners when the invocation names no binary.
	ErrEmptyCommand = sentinel.Error("command binary cannot be empty")

	// ErrInvalidStdio indicates a stdio configuration the Spawner cannot honour,
	// such as a reader on an output slot.
	ErrInvalidStdio = sentinel.Error("invalid stdio configuration")

	// ErrUnknownEncoding is returned when an encoding name cannot be resolved.
	ErrUnknownEncoding = transcode.ErrUnknownEncoding

	// ErrNotSupported indicates that the requested feature is not supported by the
	// Spawner or OS.
	ErrNotSupported = sentinel.Error("operation not supported")

	// ErrSpawnerClosed indicates that a spawn was attempted on a closed Spawner.
	ErrSpawnerClosed = sentinel.Error("spawner is closed")
)

// SpawnError reports a process that terminated abnormally: a non-zero exit code, or a signal
// other than SIGTERM.
type SpawnError struct {
	Command []string // Executable followed by its arguments
	Code    *int     // Exit code, nil if the process was killed by a signal
	Signal  string   // Terminating signal, empty if the process exited

	// Output captured before termination, only for slots that were captured.
	Stdout *string
	Stderr *string
}

func newSpawnError(argv []string, status ExitStatus, stdout, stderr *string) *SpawnError {
	e := &SpawnError{
		Command: argv,
		Signal:  status.Signal,
		Stdout:  stdout,
		Stderr:  stderr,
	}

	if status.Exited() {
		code := status.Code
		e.Code = &code
	}

	return e
}

// CommandLine returns the failing command and its arguments joined by single spaces,
// without quoting.
func (e *SpawnError) CommandLine() string {
	return strings.Join(e.Command, " ")
}

// ExitCode returns the exit code, or -1 if the process was killed by a signal.
func (e *SpawnError) ExitCode() int {
	if e.Code == nil {
		return -1
	}

	return *e.Code
}

func (e *SpawnError) Error() string {
	if e.Code == nil {
		return fmt.Sprintf("command %q exited with signal %s", e.CommandLine(), e.Signal)
	}

	return fmt.Sprintf("command %q exited with code %d", e.CommandLine(), *e.Code)
}

// Report renders the error for diagnostics. Outside the production profile the captured
// output is appended under "stdout:" and "stderr:" headings, each line indented by two
// spaces. A slot that was not captured, or captured nothing, gets no heading at all.
func (e *SpawnError) Report() string {
	var b strings.Builder

	b.WriteString(e.Error())
	b.WriteString("\n")

	if CurrentProfile() != ProfileProduction {
		writeSection(&b, "stdout", e.Stdout)
		writeSection(&b, "stderr", e.Stderr)
	}

	return b.String()
}

// Format implements fmt.Formatter. %+v renders the full Report.
func (e *SpawnError) Format(f fmt.State, verb rune) {
	switch {
	case verb == 'v' && f.Flag('+'):
		_, _ = io.WriteString(f, e.Report())
	case verb == 'q':
		fmt.Fprintf(f, "%q", e.Error())
	default:
		_, _ = io.WriteString(f, e.Error())
	}
}

// writeSection appends captured output under a heading. Empty or uncaptured slots are skipped.
func writeSection(b *strings.Builder, name string, text *string) {
	if text == nil || *text == "" {
		return
	}

	b.WriteString(name)
	b.WriteString(":\n")

	for line := range strings.SplitSeq(strings.TrimSuffix(*text, "\n"), "\n") {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}
