package docker

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/docker/docker/client"
	"github.com/ruffel/childproc"
)

var _ childproc.Spawner = (*Spawner)(nil)

// Spawner implements childproc.Spawner by creating exec instances in one container.
type Spawner struct {
	config Config
	client *client.Client

	mu     sync.Mutex
	active int
	closed bool
}

// New creates a Docker client for the configured daemon. It does not contact the daemon.
func New(opts ...Option) (*Spawner, error) {
	var c Config

	for _, o := range opts {
		o(&c)
	}

	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	cli, err := client.NewClientWithOpts(c.ClientOpts()...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	return &Spawner{
		config: c,
		client: cli,
	}, nil
}

// Spawn creates and attaches to an exec instance running req.
func (s *Spawner) Spawn(ctx context.Context, req *childproc.SpawnRequest) (childproc.Process, error) {
	if req == nil || strings.TrimSpace(req.Command) == "" {
		return nil, childproc.ErrEmptyCommand
	}

	plan, err := s.plan(req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil, childproc.ErrSpawnerClosed
	}

	s.active++
	s.mu.Unlock()

	p := &Process{
		spawner: s,
		done:    make(chan struct{}),
		halted:  make(chan struct{}),
	}

	if err := p.start(ctx, plan); err != nil {
		p.halt()
		s.decrementActive()

		return nil, err
	}

	return p, nil
}

// TargetOS returns the container's operating system as configured.
func (s *Spawner) TargetOS() childproc.TargetOS {
	return s.config.OS
}

// LookPath resolves file on the container's PATH.
func (s *Spawner) LookPath(ctx context.Context, file string) (string, error) {
	script := "command -v " + file
	if s.config.OS == childproc.OSWindows {
		script = "where " + file
	}

	res, err := childproc.NewRunner(s).Run(ctx, script, nil,
		childproc.WithShell(),
		childproc.WithStdio(childproc.StdioTuple(childproc.Discard(), childproc.Pipe(), childproc.Discard())))
	if err != nil {
		return "", fmt.Errorf("lookpath %s: %w", file, err)
	}

	path, _, _ := strings.Cut(strings.TrimSpace(*res.Stdout), "\n")
	if path == "" {
		return "", fmt.Errorf("lookpath %s: executable not found", file)
	}

	return strings.TrimSpace(path), nil
}

// ActiveProcesses returns the number of exec instances that have not been closed.
func (s *Spawner) ActiveProcesses() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// Close shuts down the client connection.
func (s *Spawner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	if s.client != nil {
		return s.client.Close()
	}

	return nil
}

func (s *Spawner) decrementActive() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}
