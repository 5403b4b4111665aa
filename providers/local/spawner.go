package local

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/ruffel/childproc"
)

var _ childproc.Spawner = (*Spawner)(nil)

// Spawner implements childproc.Spawner for the local operating system.
// Thread-safe wrapper around os/exec.
type Spawner struct {
	targetOS childproc.TargetOS
	mu       sync.RWMutex
	active   int
	closed   bool
}

// New creates a new local spawner.
func New(opts ...Option) *Spawner {
	cfg := Config{
		targetOS: childproc.DetectLocalOS(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return &Spawner{
		targetOS: cfg.targetOS,
	}
}

// Spawn starts the requested process on the local machine.
// Caller must Wait on or Close the returned Process.
func (s *Spawner) Spawn(ctx context.Context, req *childproc.SpawnRequest) (childproc.Process, error) {
	if req == nil {
		return nil, fmt.Errorf("spawn request cannot be nil")
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil, fmt.Errorf("cannot spawn %q: %w", req.Command, childproc.ErrSpawnerClosed)
	}

	s.active++
	s.mu.Unlock()

	process := &Process{
		spawner: s,
		req:     req,
	}

	err := process.start(ctx)
	if err != nil {
		s.decrementActive()

		return nil, err
	}

	return process, nil
}

// TargetOS returns the operating system of the host machine.
func (s *Spawner) TargetOS() childproc.TargetOS {
	return s.targetOS
}

// ActiveProcesses returns the number of spawned processes that have not exited yet.
func (s *Spawner) ActiveProcesses() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active
}

// Close shuts down the spawner.
// New Spawn calls will fail. Running processes are not affected.
func (s *Spawner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

// LookPath searches for an executable named file in the directories named by
// the PATH environment variable.
func (s *Spawner) LookPath(_ context.Context, file string) (string, error) {
	if s.isClosed() {
		return "", fmt.Errorf("cannot look up path: %w", childproc.ErrSpawnerClosed)
	}

	return exec.LookPath(file)
}

func (s *Spawner) decrementActive() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}

func (s *Spawner) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.closed
}
