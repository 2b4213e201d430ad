package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"runtime"
	"time"

	"github.com/docker/docker/client"
	"github.com/sirupsen/logrus"

	"github.com/aahsnr/development/internal/model"
)

// pingTimeout bounds how long Ping waits for the daemon. Docker Desktop on
// macOS can take a few seconds to answer after waking, so this is generous.
const pingTimeout = 5 * time.Second

// Client wraps the Docker Engine SDK client. It adds automatic socket
// detection across platforms and maps connection failures onto the CLI
// exit-code scheme. Wrap rather than embed so the exposed surface stays
// under our control.
type Client struct {
	inner *client.Client
}

// NewClient creates a Docker client. The host resolution order is:
//
//  1. explicit host argument (from global config), if non-empty
//  2. DOCKER_HOST environment variable
//  3. platform default socket paths (Linux/macOS Unix sockets,
//     Windows named pipe)
//
// Failures are returned as a model.CLIError with ExitDockerNotRunning.
func NewClient(host string) (*Client, error) {
	if host == "" {
		host = os.Getenv("DOCKER_HOST")
	}
	if host == "" {
		detected, err := detectHost()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
		}
		host = detected
	}
	logrus.Debugf("docker host: %s", host)

	// WithAPIVersionNegotiation lets the SDK match whatever daemon version
	// is running instead of pinning an API version at build time.
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			fmt.Sprintf("failed to create Docker client for host %q", host),
			err,
		)
	}
	return &Client{inner: c}, nil
}

// detectHost probes the known daemon endpoints for the current platform
// and returns the first that exists. Existence is checked rather than
// connectivity: a stat is cheap, and Ping covers the "socket exists but
// daemon is down" case.
func detectHost() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return probeUnixSockets([]string{"/var/run/docker.sock"})

	case "darwin":
		// Docker Desktop symlinks /var/run/docker.sock, but newer versions
		// may only create the per-user socket under ~/.docker/run.
		paths := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			paths = append(paths, home+"/.docker/run/docker.sock")
		}
		return probeUnixSockets(paths)

	case "windows":
		// Named pipes don't stat; a short dial is the only existence check.
		pipePath := `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipePath, time.Second)
		if err != nil {
			return "", fmt.Errorf("Docker named pipe not found at %s: %w", pipePath, err)
		}
		conn.Close()
		return "npipe://" + pipePath, nil

	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

// probeUnixSockets returns the docker host URI for the first path that
// exists on disk, in preference order.
func probeUnixSockets(paths []string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return "unix://" + path, nil
		}
	}
	return "", fmt.Errorf("Docker socket not found at any of: %v — is Docker running?", paths)
}

// Ping verifies the daemon is reachable and responsive within pingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(
			model.ExitDockerNotRunning,
			"Docker daemon is not responding — is Docker running?",
			err,
		)
	}
	return nil
}

// Close releases the client's resources. Safe to call multiple times.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}

// Inner exposes the underlying SDK client for operations not wrapped here.
func (c *Client) Inner() *client.Client {
	return c.inner
}
