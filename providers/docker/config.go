package docker

import (
	"net/http"

	"github.com/docker/docker/client"
	"github.com/ruffel/childproc"
	"github.com/ruffel/childproc/internal/sentinel"
)

// ErrNoContainer is returned when no target container is configured.
const ErrNoContainer = sentinel.Error("docker: container is required")

// Config names the container commands run in and the daemon that owns it.
type Config struct {
	ContainerID string // name or ID
	User        string // exec user, e.g. "root" or "1000:1000"; empty uses the image default

	// Daemon connection. Unset fields fall back to DOCKER_HOST and friends, and the API
	// version is negotiated unless pinned.
	Host       string
	Version    string
	HTTPClient *http.Client

	OS childproc.TargetOS // selects the shell dialect, default OSLinux
}

// NewConfig returns a Config targeting container.
func NewConfig(container string) Config {
	return Config{ContainerID: container}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.OS == childproc.OSUnknown {
		c.OS = childproc.OSLinux
	}

	return c
}

// Validate reports a missing container.
func (c Config) Validate() error {
	if c.ContainerID == "" {
		return ErrNoContainer
	}

	return nil
}

// ClientOpts returns the options New passes to client.NewClientWithOpts. Explicit
// settings are applied after the environment so they take precedence.
func (c Config) ClientOpts() []client.Opt {
	opts := []client.Opt{client.FromEnv}

	if c.Host != "" {
		opts = append(opts, client.WithHost(c.Host))
	}

	if c.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(c.HTTPClient))
	}

	if c.Version != "" {
		opts = append(opts, client.WithVersion(c.Version))
	} else {
		opts = append(opts, client.WithAPIVersionNegotiation())
	}

	return opts
}
