// Package telnet serves the BBS over plain line-delimited TCP, the way
// telnet and netcat clients speak it.
package telnet

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/pkg/adapter"
	"github.com/marmos91/openbbs/pkg/bbs/session"
)

// Protocol is the adapter name used in logs and metrics.
const Protocol = "TELNET"

// DefaultPort is the port the BBS listens on when none is configured.
const DefaultPort = 1337

// Config configures the listener.
type Config struct {
	BindAddress        string
	Port               int
	MaxConnections     int
	ShutdownTimeout    time.Duration
	MetricsLogInterval time.Duration
}

func (c *Config) applyDefaults() {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 30 * time.Second
	}
}

func (c *Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("invalid max_connections %d", c.MaxConnections)
	}
	return nil
}

// Sessions creates the per-connection handlers. *session.Engine satisfies it.
type Sessions interface {
	NewSession(conn net.Conn) *session.Session
}

// Adapter accepts TCP clients and runs a BBS session for each one.
//
// Adapter embeds BaseAdapter for the listener, connection limit and
// graceful shutdown. It only contributes NewConnection.
type Adapter struct {
	*adapter.BaseAdapter

	sessions Sessions
}

var (
	_ adapter.Adapter           = (*Adapter)(nil)
	_ adapter.ConnectionFactory = (*Adapter)(nil)
)

// New returns a stopped Adapter. metrics may be nil.
func New(config Config, sessions Sessions, metrics adapter.MetricsRecorder) (*Adapter, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", Protocol, err)
	}

	base := adapter.NewBaseAdapter(adapter.BaseConfig{
		BindAddress:        config.BindAddress,
		Port:               config.Port,
		MaxConnections:     config.MaxConnections,
		ShutdownTimeout:    config.ShutdownTimeout,
		MetricsLogInterval: config.MetricsLogInterval,
	}, Protocol)
	base.Metrics = metrics

	return &Adapter{BaseAdapter: base, sessions: sessions}, nil
}

// Serve listens and serves sessions until ctx is cancelled.
func (a *Adapter) Serve(ctx context.Context) error {
	return a.ServeWithFactory(ctx, a)
}

// NewConnection implements adapter.ConnectionFactory.
func (a *Adapter) NewConnection(conn net.Conn) adapter.ConnectionHandler {
	s := a.sessions.NewSession(conn)
	logger.Debug("session created", logger.KeySessionID, s.ID, logger.KeyClientAddr, conn.RemoteAddr().String())
	return s
}
