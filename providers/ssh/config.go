package ssh

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/ruffel/childproc"
	"github.com/ruffel/childproc/internal/sentinel"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

const (
	defaultPort      = 22
	defaultTimeout   = 10 * time.Second
	agentDialTimeout = 500 * time.Millisecond
)

// Configuration errors returned by Config.Validate.
const (
	ErrNoHost         = sentinel.Error("ssh: host is required")
	ErrNoUser         = sentinel.Error("ssh: user is required")
	ErrNoHostKeyCheck = sentinel.Error("ssh: no host key verification configured")
)

// Config describes one SSH target.
type Config struct {
	Host string
	Port int // default 22
	User string

	// Credentials. Every configured method is offered to the server: keys first, then
	// the agent, then the password.
	PrivateKey     string // PEM encoded key
	PrivateKeyPath string
	UseAgent       bool // agent listening on SSH_AUTH_SOCK
	Password       string

	// Host key verification. The first configured source wins.
	HostKeyCheck       ssh.HostKeyCallback
	KnownHostsPath     string
	InsecureSkipVerify bool // testing only

	Timeout time.Duration      // dial and handshake timeout, default 10s
	OS      childproc.TargetOS // selects the remote shell dialect, default OSLinux
}

// NewConfig returns a Config for user@host on the default port. Host key verification
// still has to be configured.
func NewConfig(host, username string) Config {
	return Config{Host: host, User: username}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.Port == 0 {
		c.Port = defaultPort
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}

	if c.OS == childproc.OSUnknown {
		c.OS = childproc.OSLinux
	}

	return c
}

// Validate reports the first missing required setting.
func (c Config) Validate() error {
	switch {
	case c.Host == "":
		return ErrNoHost
	case c.User == "":
		return ErrNoUser
	case c.HostKeyCheck == nil && c.KnownHostsPath == "" && !c.InsecureSkipVerify:
		return ErrNoHostKeyCheck
	}

	return nil
}

// Addr returns the dial address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ClientConfig builds the x/crypto/ssh client configuration. ctx bounds the agent dial.
func (c Config) ClientConfig(ctx context.Context) (*ssh.ClientConfig, error) {
	hostKeys, err := c.hostKeyCallback()
	if err != nil {
		return nil, err
	}

	auth, err := c.authMethods(ctx)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		HostKeyCallback: hostKeys,
		Timeout:         c.Timeout,
	}, nil
}

func (c Config) hostKeyCallback() (ssh.HostKeyCallback, error) {
	switch {
	case c.HostKeyCheck != nil:
		return c.HostKeyCheck, nil
	case c.KnownHostsPath != "":
		cb, err := knownhosts.New(c.KnownHostsPath)
		if err != nil {
			return nil, fmt.Errorf("load known hosts: %w", err)
		}

		return cb, nil
	case c.InsecureSkipVerify:
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec
	default:
		return nil, ErrNoHostKeyCheck
	}
}

func (c Config) authMethods(ctx context.Context) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	for _, key := range []struct {
		source string
		load   func() ([]byte, error)
		set    bool
	}{
		{"inline private key", func() ([]byte, error) { return []byte(c.PrivateKey), nil }, c.PrivateKey != ""},
		{"private key file", func() ([]byte, error) { return os.ReadFile(c.PrivateKeyPath) }, c.PrivateKeyPath != ""},
	} {
		if !key.set {
			continue
		}

		pem, err := key.load()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key.source, err)
		}

		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key.source, err)
		}

		methods = append(methods, ssh.PublicKeys(signer))
	}

	if c.UseAgent {
		if m := agentAuth(ctx); m != nil {
			methods = append(methods, m)
		}
	}

	if c.Password != "" {
		methods = append(methods, ssh.Password(c.Password))
	}

	return methods, nil
}

// agentAuth returns nil when no agent is reachable.
func agentAuth(ctx context.Context) ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	conn, err := (&net.Dialer{Timeout: agentDialTimeout}).DialContext(ctx, "unix", socket)
	if err != nil {
		childproc.Logger().Debug("ssh agent unavailable", "socket", socket, "error", err)

		return nil
	}

	return ssh.PublicKeysCallback(agent.NewClient(conn).Signers)
}

// NewFromSSHConfig resolves alias from an OpenSSH client config file, ~/.ssh/config when
// path is empty.
func NewFromSSHConfig(alias, path string) (Config, error) {
	if path == "" {
		path = "~/.ssh/config"
	}

	f, err := os.Open(expandHome(path))
	if err != nil {
		return Config{}, fmt.Errorf("open ssh config: %w", err)
	}

	defer func() { _ = f.Close() }()

	return NewFromSSHConfigReader(alias, f)
}

// NewFromSSHConfigReader resolves alias using HostName, User, Port, IdentityFile,
// IdentityAgent, UserKnownHostsFile and StrictHostKeyChecking. A missing User falls back to
// the current user.
func NewFromSSHConfigReader(alias string, r io.Reader) (Config, error) {
	cfg, err := ssh_config.Decode(r)
	if err != nil {
		return Config{}, fmt.Errorf("parse ssh config: %w", err)
	}

	get := func(key string) string {
		v, _ := cfg.Get(alias, key)

		return strings.TrimSpace(v)
	}

	c := Config{
		Host:           alias,
		User:           get("User"),
		PrivateKeyPath: expandHome(get("IdentityFile")),
		UseAgent:       get("IdentityAgent") != "" && get("IdentityAgent") != "none",
		KnownHostsPath: expandHome(get("UserKnownHostsFile")),
	}

	if h := get("HostName"); h != "" {
		c.Host = h
	}

	if c.User == "" {
		if u, err := user.Current(); err == nil {
			c.User = u.Username
		}
	}

	if p := get("Port"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("invalid port %q for %s: %w", p, alias, err)
		}

		c.Port = port
	}

	if get("StrictHostKeyChecking") == "no" {
		c.InsecureSkipVerify = true
		c.KnownHostsPath = ""
	}

	return c.withDefaults(), nil
}

// DefaultKnownHosts verifies host keys against ~/.ssh/known_hosts.
func DefaultKnownHosts() (ssh.HostKeyCallback, error) {
	return knownhosts.New(expandHome("~/.ssh/known_hosts"))
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, rest)
}
