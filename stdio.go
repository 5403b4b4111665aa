package childproc

import (
	"context"
	"fmt"
	"io"
	"strconv"
)

type stdioKind int

const (
	kindPipe stdioKind = iota
	kindDiscard
	kindInherit
	kindFd
	kindReader
	kindWriter
	kindLog
)

// Stdio configures a single standard stream slot. The zero value is Pipe.
type Stdio struct {
	kind stdioKind
	fd   int
	r    io.Reader
	w    io.Writer
	sink LogSink
}

// Pipe connects the slot to a pipe. Output slots are captured as text unless a writer is attached.
func Pipe() Stdio { return Stdio{kind: kindPipe} }

// Discard connects the slot to the null device.
func Discard() Stdio { return Stdio{kind: kindDiscard} }

// Inherit shares the parent's corresponding stream with the child.
func Inherit() Stdio { return Stdio{kind: kindInherit} }

// Fd connects the slot to an open file descriptor of the parent.
func Fd(fd int) Stdio { return Stdio{kind: kindFd, fd: fd} }

// FromReader feeds r into the child's stdin. Only meaningful for the stdin slot.
func FromReader(r io.Reader) Stdio { return Stdio{kind: kindReader, r: r} }

// ToWriter sends the slot's output to w. Only meaningful for stdout and stderr.
// The caller keeps ownership of w; it is never closed.
func ToWriter(w io.Writer) Stdio { return Stdio{kind: kindWriter, w: w} }

// ToLog sends the slot's output to the handle sink resolves to.
func ToLog(sink LogSink) Stdio { return Stdio{kind: kindLog, sink: sink} }

func (s Stdio) String() string {
	switch s.kind {
	case kindPipe:
		return "pipe"
	case kindDiscard:
		return "discard"
	case kindInherit:
		return "inherit"
	case kindFd:
		return "fd:" + strconv.Itoa(s.fd)
	case kindReader:
		return "reader"
	case kindWriter:
		return "writer"
	case kindLog:
		return "log"
	default:
		return "unknown"
	}
}

// StdioSpec configures all three slots. The zero value pipes every slot.
type StdioSpec struct {
	Stdin  Stdio
	Stdout Stdio
	Stderr Stdio
}

// StdioAll applies a single token to all three slots. A log sink is special-cased:
// stdin is discarded and both output slots go to the sink.
func StdioAll(s Stdio) StdioSpec {
	if s.kind == kindLog {
		return StdioLog(s.sink)
	}

	return StdioSpec{Stdin: s, Stdout: s, Stderr: s}
}

// StdioLog discards stdin and routes stdout and stderr into sink.
func StdioLog(sink LogSink) StdioSpec {
	return StdioSpec{Stdin: Discard(), Stdout: ToLog(sink), Stderr: ToLog(sink)}
}

// StdioTuple configures each slot independently.
func StdioTuple(stdin, stdout, stderr Stdio) StdioSpec {
	return StdioSpec{Stdin: stdin, Stdout: stdout, Stderr: stderr}
}

// TargetKind enumerates what a Spawner can connect a slot to.
type TargetKind int

const (
	// TargetDiscard connects the slot to the null device.
	TargetDiscard TargetKind = iota
	// TargetInherit shares the parent's stream.
	TargetInherit
	// TargetPipe creates a pipe exposed through Process.Stdin/Stdout/Stderr.
	TargetPipe
	// TargetFd uses a parent file descriptor.
	TargetFd
	// TargetHandle uses a reader or writer directly.
	TargetHandle
)

func (k TargetKind) String() string {
	switch k {
	case TargetDiscard:
		return "discard"
	case TargetInherit:
		return "inherit"
	case TargetPipe:
		return "pipe"
	case TargetFd:
		return "fd"
	case TargetHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Target is a slot reduced to something a Spawner understands.
type Target struct {
	Kind   TargetKind
	Fd     int
	Reader io.Reader // TargetHandle on stdin
	Writer io.Writer // TargetHandle on stdout/stderr
}

func handleTarget(v any) Target {
	t := Target{Kind: TargetHandle}
	t.Reader, _ = v.(io.Reader)
	t.Writer, _ = v.(io.Writer)

	return t
}

// ResolvedStdio is the stdio configuration handed to the Spawner.
type ResolvedStdio struct {
	Stdin  Target
	Stdout Target
	Stderr Target
}

// plumbing records what the Runner itself must connect once the process exists.
type plumbing struct {
	source     io.Reader // fed into stdin
	stdoutSink io.Writer // receives transcoded stdout
	stderrSink io.Writer // receives transcoded stderr
}

// resolveStdio reduces spec to targets, awaiting any log sinks. Log sinks are used as handles
// directly and never transcoded; a writer only gets a pipe when its slot has an encoding.
func resolveStdio(ctx context.Context, spec StdioSpec, enc Encodings) (ResolvedStdio, plumbing, error) {
	var (
		resolved ResolvedStdio
		plumb    plumbing
		err      error
	)

	resolved.Stdin, plumb.source, err = resolveInput(ctx, spec.Stdin)
	if err != nil {
		return ResolvedStdio{}, plumbing{}, fmt.Errorf("stdin: %w", err)
	}

	resolved.Stdout, plumb.stdoutSink, err = resolveOutput(ctx, spec.Stdout, enc.Stdout)
	if err != nil {
		return ResolvedStdio{}, plumbing{}, fmt.Errorf("stdout: %w", err)
	}

	resolved.Stderr, plumb.stderrSink, err = resolveOutput(ctx, spec.Stderr, enc.Stderr)
	if err != nil {
		return ResolvedStdio{}, plumbing{}, fmt.Errorf("stderr: %w", err)
	}

	return resolved, plumb, nil
}

func resolveInput(ctx context.Context, s Stdio) (Target, io.Reader, error) {
	switch s.kind {
	case kindReader:
		return Target{Kind: TargetPipe}, s.r, nil
	case kindLog:
		h, err := resolveLog(ctx, s.sink)
		if err != nil {
			return Target{}, nil, err
		}

		return handleTarget(h), nil, nil
	case kindWriter:
		return handleTarget(s.w), nil, nil
	default:
		return passthrough(s), nil, nil
	}
}

func resolveOutput(ctx context.Context, s Stdio, encoding string) (Target, io.Writer, error) {
	switch s.kind {
	case kindWriter:
		if encoding != "" {
			return Target{Kind: TargetPipe}, s.w, nil
		}

		return handleTarget(s.w), nil, nil
	case kindLog:
		h, err := resolveLog(ctx, s.sink)
		if err != nil {
			return Target{}, nil, err
		}

		return handleTarget(h), nil, nil
	case kindReader:
		return handleTarget(s.r), nil, nil
	default:
		return passthrough(s), nil, nil
	}
}

func passthrough(s Stdio) Target {
	switch s.kind {
	case kindDiscard:
		return Target{Kind: TargetDiscard}
	case kindInherit:
		return Target{Kind: TargetInherit}
	case kindFd:
		return Target{Kind: TargetFd, Fd: s.fd}
	default:
		return Target{Kind: TargetPipe}
	}
}

func resolveLog(ctx context.Context, sink LogSink) (io.Writer, error) {
	if sink == nil {
		return nil, fmt.Errorf("%w: nil log sink", ErrInvalidStdio)
	}

	w, err := sink.Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve log sink: %w", err)
	}

	return w, nil
}
