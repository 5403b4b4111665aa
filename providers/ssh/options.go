package ssh

import (
	"time"

	"github.com/ruffel/childproc"
	"golang.org/x/crypto/ssh"
)

// Option adjusts the Config a Spawner dials with. Options apply in order.
type Option func(*Config)

// WithConfig starts from c, typically one returned by NewFromSSHConfig.
func WithConfig(c Config) Option {
	return func(cfg *Config) { *cfg = c }
}

// WithHost sets the host name or address.
func WithHost(host string) Option {
	return func(c *Config) { c.Host = host }
}

// WithPort overrides the default port 22.
func WithPort(port int) Option {
	return func(c *Config) { c.Port = port }
}

// WithUser sets the login user.
func WithUser(user string) Option {
	return func(c *Config) { c.User = user }
}

// WithPassword offers password authentication.
func WithPassword(password string) Option {
	return func(c *Config) { c.Password = password }
}

// WithPrivateKey offers a PEM encoded private key.
func WithPrivateKey(pem string) Option {
	return func(c *Config) { c.PrivateKey = pem }
}

// WithKeyPath offers the private key stored at path.
func WithKeyPath(path string) Option {
	return func(c *Config) { c.PrivateKeyPath = path }
}

// WithAgent offers the keys held by the agent on SSH_AUTH_SOCK.
func WithAgent() Option {
	return func(c *Config) { c.UseAgent = true }
}

// WithHostKeyCallback verifies host keys with cb.
func WithHostKeyCallback(cb ssh.HostKeyCallback) Option {
	return func(c *Config) { c.HostKeyCheck = cb }
}

// WithKnownHosts verifies host keys against an OpenSSH known_hosts file.
func WithKnownHosts(path string) Option {
	return func(c *Config) { c.KnownHostsPath = path }
}

// WithInsecureSkipVerify accepts any host key. Testing only.
func WithInsecureSkipVerify(skip bool) Option {
	return func(c *Config) { c.InsecureSkipVerify = skip }
}

// WithTimeout bounds the dial and handshake.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithTargetOS declares the remote operating system, which selects the shell dialect.
func WithTargetOS(os childproc.TargetOS) Option {
	return func(c *Config) { c.OS = os }
}
