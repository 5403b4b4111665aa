package mock

import (
	"context"
	"io"
	"os"

	"github.com/ruffel/childproc"
	"github.com/stretchr/testify/mock"
)

// Anything re-exports mock.Anything so callers need a single import.
const Anything = mock.Anything

// Spawner implements a mock childproc.Spawner using testify/mock.
type Spawner struct {
	mock.Mock
}

var _ childproc.Spawner = (*Spawner)(nil)

// New creates a new mock spawner.
func New() *Spawner {
	return &Spawner{}
}

// Spawn mocks launching a process.
func (m *Spawner) Spawn(ctx context.Context, req *childproc.SpawnRequest) (childproc.Process, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(childproc.Process), args.Error(1)
}

// TargetOS reports Linux unless an expectation is set.
func (m *Spawner) TargetOS() childproc.TargetOS {
	for _, call := range m.ExpectedCalls {
		if call.Method == "TargetOS" {
			return m.Called().Get(0).(childproc.TargetOS)
		}
	}

	return childproc.OSLinux
}

// LookPath mocks resolving an executable.
func (m *Spawner) LookPath(ctx context.Context, file string) (string, error) {
	args := m.Called(ctx, file)

	return args.String(0), args.Error(1)
}

// Process implements a mock childproc.Process using testify/mock.
type Process struct {
	mock.Mock
}

var _ childproc.Process = (*Process)(nil)

// Pid mocks returning the process identifier.
func (m *Process) Pid() int {
	return m.Called().Int(0)
}

// Stdin mocks returning the stdin pipe.
func (m *Process) Stdin() io.WriteCloser {
	if w := m.Called().Get(0); w != nil {
		return w.(io.WriteCloser)
	}

	return nil
}

// Stdout mocks returning the stdout pipe.
func (m *Process) Stdout() io.Reader {
	if r := m.Called().Get(0); r != nil {
		return r.(io.Reader)
	}

	return nil
}

// Stderr mocks returning the stderr pipe.
func (m *Process) Stderr() io.Reader {
	if r := m.Called().Get(0); r != nil {
		return r.(io.Reader)
	}

	return nil
}

// Wait mocks waiting for the process to terminate.
func (m *Process) Wait() (childproc.ExitStatus, error) {
	args := m.Called()

	return args.Get(0).(childproc.ExitStatus), args.Error(1)
}

// Signal mocks sending a signal to the process.
func (m *Process) Signal(sig os.Signal) error {
	return m.Called(sig).Error(0)
}

// Close mocks closing the process.
func (m *Process) Close() error {
	return m.Called().Error(0)
}
