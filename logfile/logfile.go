// Package logfile provides a childproc.LogSink backed by an append-only file.
//
// The file is opened lazily the first time a run resolves the sink, so a Sink can be
// configured up front and shared by many runs. Both output slots of a run may point at the
// same Sink; writes are appended in arrival order.
package logfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ruffel/childproc"
	"github.com/ruffel/childproc/internal/sentinel"
)

// ErrPathTraversal is returned by NewInDir when the log name escapes its directory.
const ErrPathTraversal = sentinel.Error("illegal file path")

const defaultPerm os.FileMode = 0o644

var _ childproc.LogSink = (*Sink)(nil)

// Sink is a lazily opened log file.
type Sink struct {
	path string
	perm os.FileMode

	mu     sync.Mutex
	opened bool
	file   *os.File
	err    error
}

// Option configures a Sink.
type Option func(*Sink)

// WithPermissions sets the mode used when the file is created.
func WithPermissions(perm os.FileMode) Option {
	return func(s *Sink) {
		s.perm = perm
	}
}

// New returns a Sink appending to path. Missing parent directories are created on open.
func New(path string, opts ...Option) *Sink {
	s := &Sink{path: path, perm: defaultPerm}

	for _, o := range opts {
		o(s)
	}

	return s
}

// NewInDir returns a Sink for name inside root. Names that resolve outside root are rejected.
func NewInDir(root, name string, opts ...Option) (*Sink, error) {
	target := filepath.Join(root, name)

	if err := checkPathTraversal(root, target); err != nil {
		return nil, err
	}

	return New(target, opts...), nil
}

// Path returns the file path.
func (s *Sink) Path() string {
	return s.path
}

// Stream opens the file on first use and returns it. Subsequent calls return the same handle
// until Close. The returned *os.File lets local spawners hand the descriptor straight to the child.
func (s *Sink) Stream(ctx context.Context) (io.Writer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		s.opened = true
		s.file, s.err = s.open()
	}

	if s.err != nil {
		return nil, s.err
	}

	if s.file == nil {
		return nil, fmt.Errorf("log file %s: %w", s.path, os.ErrClosed)
	}

	return s.file, nil
}

// Close closes the file if it was opened. It is safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	err := s.file.Close()
	s.file = nil

	return err
}

func (s *Sink) open() (*os.File, error) {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, s.perm)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	childproc.Logger().Debug("log file opened", "path", s.path)

	return f, nil
}

// checkPathTraversal validates that target is root or a descendant of it.
func checkPathTraversal(root, target string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve root %s: %w", ErrPathTraversal, root, err)
	}

	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve target %s: %w", ErrPathTraversal, target, err)
	}

	if absRoot == absTarget {
		return nil
	}

	if !strings.HasPrefix(absTarget, absRoot+string(os.PathSeparator)) {
		return fmt.Errorf("%w: %s is not within %s", ErrPathTraversal, target, root)
	}

	return nil
}
