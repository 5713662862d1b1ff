package mpv

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"runtime"
	"time"

	"github.com/praeterii/radio/internal/domain"
)

const (
	defaultConnectTimeout = 10 * time.Second
	pollInterval          = 100 * time.Millisecond
)

// Connector attaches to a player on the IPC socket, launching one if
// nothing is listening yet.
type Connector struct {
	socket   string
	launcher *Launcher // nil disables launching
	timeout  time.Duration
	logger   *slog.Logger
}

// NewConnector creates a connector for socket
func NewConnector(socket string, launcher *Launcher, timeout time.Duration, logger *slog.Logger) *Connector {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	return &Connector{
		socket:   socket,
		launcher: launcher,
		timeout:  timeout,
		logger:   logger,
	}
}

// Connect returns a live link to the player
func (c *Connector) Connect(ctx context.Context) (domain.SessionLink, error) {
	if !supportedPlatform(runtime.GOOS) {
		return nil, fmt.Errorf("connect to player on %s: %w", runtime.GOOS, ErrUnsupportedPlatform)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(ctx)
	if err != nil {
		if c.launcher == nil {
			return nil, fmt.Errorf("connect to player at %s: %w", c.socket, err)
		}
		c.logger.Info("no running player, launching one", "socket", c.socket)
		if err := c.launcher.Launch(); err != nil {
			return nil, err
		}
		if conn, err = c.waitForSocket(ctx); err != nil {
			return nil, fmt.Errorf("player did not open %s: %w", c.socket, err)
		}
	}

	link := newConn(conn, c.logger)
	if err := link.start(ctx); err != nil {
		link.Close()
		return nil, err
	}

	c.logger.Info("connected to player", "socket", c.socket, "playing", link.IsPlaying())
	return link, nil
}

func (c *Connector) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", c.socket)
}

// waitForSocket polls until the freshly launched player accepts connections
func (c *Connector) waitForSocket(ctx context.Context) (net.Conn, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			conn, err := c.dial(ctx)
			if err == nil {
				return conn, nil
			}
			c.logger.Debug("player socket not ready", "error", err)
		}
	}
}
