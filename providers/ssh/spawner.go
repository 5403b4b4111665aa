package ssh

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/ruffel/childproc"
	"golang.org/x/crypto/ssh"
)

var _ childproc.Spawner = (*Spawner)(nil)

// Spawner implements childproc.Spawner over a single SSH connection.
// It is safe for concurrent use; every spawn gets its own session.
type Spawner struct {
	config Config
	client *ssh.Client

	mu     sync.Mutex
	active int
	closed bool
}

// New dials the configured host and returns a Spawner bound to the connection.
func New(opts ...Option) (*Spawner, error) {
	return NewContext(context.Background(), opts...)
}

// NewContext is New with a context bounding the dial.
func NewContext(ctx context.Context, opts ...Option) (*Spawner, error) {
	var c Config

	for _, o := range opts {
		o(&c)
	}

	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	clientConfig, err := c.ClientConfig(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := (&net.Dialer{Timeout: c.Timeout}).DialContext(ctx, "tcp", c.Addr())
	if err != nil {
		return nil, fmt.Errorf("dial ssh %s: %w", c.Addr(), err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, c.Addr(), clientConfig)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("ssh handshake with %s: %w", c.Addr(), err)
	}

	childproc.Logger().Debug("ssh connection established", "addr", c.Addr(), "user", c.User)

	return NewFromClient(ssh.NewClient(sshConn, chans, reqs), c), nil
}

// NewFromClient wraps an existing client. The Spawner takes ownership of it.
func NewFromClient(client *ssh.Client, c Config) *Spawner {
	return &Spawner{
		config: c.withDefaults(),
		client: client,
	}
}

// Spawn opens a new session and starts req in it.
func (s *Spawner) Spawn(ctx context.Context, req *childproc.SpawnRequest) (childproc.Process, error) {
	if req == nil || strings.TrimSpace(req.Command) == "" {
		return nil, childproc.ErrEmptyCommand
	}

	if req.Argv0 != "" {
		return nil, fmt.Errorf("argv0 over ssh: %w", childproc.ErrNotSupported)
	}

	if req.Detached {
		return nil, fmt.Errorf("detached processes over ssh: %w", childproc.ErrNotSupported)
	}

	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil, childproc.ErrSpawnerClosed
	}

	s.active++
	s.mu.Unlock()

	session, err := s.client.NewSession()
	if err != nil {
		s.decrementActive()

		return nil, fmt.Errorf("failed to create ssh session: %w", err)
	}

	p := &Process{
		spawner: s,
		session: session,
		done:    make(chan struct{}),
	}

	if err := p.start(ctx, buildCommandLine(req, s.isWindows()), req.Stdio); err != nil {
		_ = session.Close()

		s.decrementActive()

		return nil, err
	}

	return p, nil
}

// TargetOS returns the operating system as configured.
func (s *Spawner) TargetOS() childproc.TargetOS {
	return s.config.OS
}

// LookPath resolves file on the remote host's PATH.
func (s *Spawner) LookPath(ctx context.Context, file string) (string, error) {
	script := "command -v " + quote(file, false)
	if s.isWindows() {
		script = "(Get-Command " + quote(file, true) + " -CommandType Application).Source"
	}

	res, err := childproc.NewRunner(s).Run(ctx, script, nil,
		childproc.WithShell(),
		childproc.WithStdio(childproc.StdioTuple(childproc.Discard(), childproc.Pipe(), childproc.Discard())))
	if err != nil {
		return "", fmt.Errorf("lookpath %s: %w", file, err)
	}

	path := strings.TrimSpace(*res.Stdout)
	if path == "" {
		return "", fmt.Errorf("lookpath %s: executable not found", file)
	}

	return path, nil
}

// ActiveProcesses returns the number of sessions that have not been closed.
func (s *Spawner) ActiveProcesses() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.active
}

// Close closes the underlying SSH connection. Open sessions are torn down with it.
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

func (s *Spawner) isWindows() bool {
	return s.config.OS == childproc.OSWindows
}

func (s *Spawner) decrementActive() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
}
