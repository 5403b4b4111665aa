package childproc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ruffel/childproc/internal/transcode"
	"golang.org/x/sync/errgroup"
)

const drainBufferSize = 32 * 1024

// drain empties one piped output slot, either into a custom sink or into an accumulator.
type drain struct {
	name     string
	src      io.Reader
	sink     io.Writer
	sinkMu   *sync.Mutex // shared by both slots of a run; stdout and stderr may share a sink
	encoding string
	log      *slog.Logger

	buf *strings.Builder // nil when forwarding to sink
}

// newDrain prepares a drain for a slot. It returns nil when the slot is not piped.
// A piped slot without a sink captures to a string even when the process exposes no stream.
func newDrain(name string, target Target, src io.Reader, sink io.Writer, encoding string, mu *sync.Mutex, log *slog.Logger) *drain {
	if target.Kind != TargetPipe {
		return nil
	}

	d := &drain{
		name:     name,
		src:      src,
		sink:     sink,
		sinkMu:   mu,
		encoding: encoding,
		log:      log,
	}

	if sink == nil {
		d.buf = &strings.Builder{}
	}

	return d
}

// captured returns the accumulated text, or nil when the slot was not captured.
// Only valid once the drain has finished.
func (d *drain) captured() *string {
	if d == nil || d.buf == nil {
		return nil
	}

	s := d.buf.String()

	return &s
}

// run reads the slot until EOF. A failing sink stops receiving chunks but the stream is still
// drained so the child never blocks on a full pipe; the write error is returned at the end.
func (d *drain) run() error {
	r := d.src
	if d.encoding != "" {
		var err error

		r, err = transcode.NewReader(r, d.encoding)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
	}

	var (
		chunk   = make([]byte, drainBufferSize)
		sinkErr error
	)

	for {
		n, err := r.Read(chunk)
		if n > 0 {
			d.deliver(chunk[:n], &sinkErr)
		}

		if errors.Is(err, io.EOF) {
			d.log.Debug("stream drained", "stream", d.name)

			return sinkErr
		}

		if err != nil {
			return fmt.Errorf("read %s: %w", d.name, err)
		}
	}
}

func (d *drain) deliver(p []byte, sinkErr *error) {
	if d.buf != nil {
		d.buf.Write(p)

		return
	}

	if *sinkErr != nil {
		return
	}

	d.sinkMu.Lock()
	_, err := d.sink.Write(p)
	d.sinkMu.Unlock()

	if err != nil {
		d.log.Warn("output sink write failed; discarding remaining output", "stream", d.name, "error", err)
		*sinkErr = fmt.Errorf("write %s: %w", d.name, err)
	}
}

// multiplexer connects a spawned process's pipes to the run's sources, sinks and accumulators.
type multiplexer struct {
	stdout *drain
	stderr *drain
}

// startMultiplexer feeds stdin and registers one completion signal in g per drained output slot.
func startMultiplexer(
	ctx context.Context,
	g *errgroup.Group,
	proc Process,
	stdio ResolvedStdio,
	plumb plumbing,
	enc Encodings,
	log *slog.Logger,
) *multiplexer {
	if stdio.Stdin.Kind == TargetPipe && plumb.source != nil {
		if stdin := proc.Stdin(); stdin != nil {
			go feed(ctx, stdin, plumb.source, log)
		}
	}

	var sinkMu sync.Mutex

	m := &multiplexer{
		stdout: newDrain("stdout", stdio.Stdout, proc.Stdout(), plumb.stdoutSink, enc.Stdout, &sinkMu, log),
		stderr: newDrain("stderr", stdio.Stderr, proc.Stderr(), plumb.stderrSink, enc.Stderr, &sinkMu, log),
	}

	for _, d := range []*drain{m.stdout, m.stderr} {
		if d != nil && d.src != nil {
			g.Go(d.run)
		}
	}

	return m
}

// feed copies src into the child's stdin and closes it once src is exhausted or ctx is
// done. The child may exit without reading everything, so copy errors are only logged.
// No Read is issued on src after ctx is done, but a Read already blocked at that point
// cannot be interrupted; whatever it returns is dropped.
func feed(ctx context.Context, stdin io.WriteCloser, src io.Reader, log *slog.Logger) {
	defer func() { _ = stdin.Close() }()

	if _, err := io.Copy(stdin, &contextReader{ctx: ctx, reader: src}); err != nil {
		log.Debug("stdin feed stopped", "error", err)
	}
}

// contextReader checks cancellation before each read operation and drops data from a
// read that completes after cancellation.
type contextReader struct {
	ctx    context.Context //nolint:containedctx
	reader io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	n, err := cr.reader.Read(p)
	if ctxErr := cr.ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	return n, err
}
