package docker

import (
	"net/http"

	"github.com/ruffel/childproc"
)

// Option adjusts the Config a Spawner is built from. Options apply in order.
type Option func(*Config)

// WithConfig starts from c.
func WithConfig(c Config) Option {
	return func(cfg *Config) { *cfg = c }
}

// WithContainerID targets the container with the given name or ID.
func WithContainerID(id string) Option {
	return func(c *Config) { c.ContainerID = id }
}

// WithUser runs every exec instance as user.
func WithUser(user string) Option {
	return func(c *Config) { c.User = user }
}

// WithHost connects to the daemon at host, e.g. "unix:///var/run/docker.sock".
func WithHost(host string) Option {
	return func(c *Config) { c.Host = host }
}

// WithVersion pins the Engine API version instead of negotiating it.
func WithVersion(version string) Option {
	return func(c *Config) { c.Version = version }
}

// WithHTTPClient talks to the daemon through hc, e.g. one configured for TLS.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Config) { c.HTTPClient = hc }
}

// WithTargetOS declares the container's operating system.
func WithTargetOS(os childproc.TargetOS) Option {
	return func(c *Config) { c.OS = os }
}
