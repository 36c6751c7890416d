package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/marmos91/openbbs/internal/logger"
)

// ConnectionHandler serves one accepted connection. Serve blocks until the
// client leaves or ctx is cancelled, and must close the connection.
type ConnectionHandler interface {
	Serve(ctx context.Context)
}

// ConnectionFactory creates a handler for each accepted connection.
type ConnectionFactory interface {
	NewConnection(conn net.Conn) ConnectionHandler
}

// BaseConfig holds the listener settings shared by adapters.
type BaseConfig struct {
	// BindAddress is the IP address to bind to. Empty binds all interfaces.
	BindAddress string

	// Port is the TCP port to listen on. 0 picks a free port.
	Port int

	// MaxConnections caps concurrent clients. Further clients wait in the
	// kernel accept queue until a slot frees. 0 means unlimited.
	MaxConnections int

	// ShutdownTimeout bounds the wait for active connections on shutdown.
	ShutdownTimeout time.Duration

	// MetricsLogInterval logs the active connection count periodically.
	// 0 disables it.
	MetricsLogInterval time.Duration
}

// MetricsRecorder receives connection lifecycle events. May be nil.
type MetricsRecorder interface {
	RecordConnectionAccepted()
	RecordConnectionClosed()
	RecordConnectionForceClosed()
	SetActiveConnections(count int32)
}

// errForced is wrapped by the error Serve returns when connections had to be
// closed at the shutdown deadline.
var errForced = errors.New("connections force-closed")

// connSet tracks live connections so shutdown can interrupt and wait for them.
type connSet struct {
	mu    sync.Mutex
	conns map[string]net.Conn
	wg    sync.WaitGroup
}

func (s *connSet) add(addr string, c net.Conn) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wg.Add(1)
	s.conns[addr] = c
	return int32(len(s.conns))
}

func (s *connSet) remove(addr string) int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, addr)
	s.wg.Done()
	return int32(len(s.conns))
}

func (s *connSet) len() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int32(len(s.conns))
}

func (s *connSet) each(fn func(addr string, c net.Conn)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, c := range s.conns {
		fn(addr, c)
	}
}

// drained is closed once every tracked connection has been removed.
func (s *connSet) drained() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	return done
}

// BaseAdapter runs a TCP accept loop with a connection cap and graceful
// shutdown. Protocol adapters embed it and supply a ConnectionFactory.
//
// Shutdown happens in two steps. First the listener closes, every pending
// read is given an immediate deadline and the context handed to handlers
// is cancelled, so idle sessions notice and exit on their own. Sessions
// still running after ShutdownTimeout are closed forcibly.
type BaseAdapter struct {
	Config BaseConfig

	// Metrics is optional.
	Metrics MetricsRecorder

	protocol string
	conns    connSet

	// slots is a counting semaphore, nil when unlimited.
	slots chan struct{}

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
	readyOne sync.Once

	stopping chan struct{}
	stopOnce sync.Once

	sessionCtx    context.Context
	cancelSession context.CancelFunc
}

// NewBaseAdapter returns a stopped adapter. Call ServeWithFactory to start.
func NewBaseAdapter(config BaseConfig, protocol string) *BaseAdapter {
	ctx, cancel := context.WithCancel(context.Background())
	b := &BaseAdapter{
		Config:        config,
		protocol:      protocol,
		conns:         connSet{conns: make(map[string]net.Conn)},
		ready:         make(chan struct{}),
		stopping:      make(chan struct{}),
		sessionCtx:    ctx,
		cancelSession: cancel,
	}
	if config.MaxConnections > 0 {
		b.slots = make(chan struct{}, config.MaxConnections)
	}
	return b
}

// ServeWithFactory binds the listener and serves every accepted connection
// in its own goroutine until ctx is cancelled or Stop is called. A bind
// failure is returned immediately.
func (b *BaseAdapter) ServeWithFactory(ctx context.Context, factory ConnectionFactory) error {
	addr := net.JoinHostPort(b.Config.BindAddress, strconv.Itoa(b.Config.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		b.readyOne.Do(func() { close(b.ready) })
		return fmt.Errorf("%s: listen on %s: %w", b.protocol, addr, err)
	}

	b.mu.Lock()
	b.listener = ln
	b.mu.Unlock()
	b.readyOne.Do(func() { close(b.ready) })

	logger.Info(b.protocol+" server listening",
		logger.KeyAddress, ln.Addr().String(),
		"max_connections", b.Config.MaxConnections)

	go func() {
		select {
		case <-ctx.Done():
			b.beginShutdown()
		case <-b.stopping:
		}
	}()

	if b.Config.MetricsLogInterval > 0 {
		go b.logActive(ctx)
	}

	for b.acquire() {
		c, err := ln.Accept()
		if err != nil {
			b.releaseSlot()
			if b.isStopping() {
				break
			}
			logger.Debug(b.protocol+" accept failed", logger.Err(err))
			continue
		}
		b.handle(factory, c)
	}

	return b.awaitDrain()
}

// acquire takes a connection slot and reports false once shutdown begins.
func (b *BaseAdapter) acquire() bool {
	if b.slots == nil {
		return !b.isStopping()
	}
	select {
	case b.slots <- struct{}{}:
		return true
	case <-b.stopping:
		return false
	}
}

func (b *BaseAdapter) releaseSlot() {
	if b.slots != nil {
		<-b.slots
	}
}

func (b *BaseAdapter) handle(factory ConnectionFactory, c net.Conn) {
	if tcp, ok := c.(*net.TCPConn); ok {
		_ = tcp.SetNoDelay(true)
	}

	addr := c.RemoteAddr().String()
	active := b.conns.add(addr, c)
	if b.Metrics != nil {
		b.Metrics.RecordConnectionAccepted()
		b.Metrics.SetActiveConnections(active)
	}
	logger.Debug(b.protocol+" connection accepted", logger.KeyClientAddr, addr, logger.KeyActive, active)

	h := factory.NewConnection(c)
	go func() {
		defer func() {
			left := b.conns.remove(addr)
			b.releaseSlot()
			if b.Metrics != nil {
				b.Metrics.RecordConnectionClosed()
				b.Metrics.SetActiveConnections(left)
			}
			logger.Debug(b.protocol+" connection closed", logger.KeyClientAddr, addr, logger.KeyActive, left)
		}()
		h.Serve(b.sessionCtx)
	}()
}

func (b *BaseAdapter) isStopping() bool {
	select {
	case <-b.stopping:
		return true
	default:
		return false
	}
}

// beginShutdown closes the listener, cancels the session context and
// interrupts blocked reads. Later calls do nothing.
func (b *BaseAdapter) beginShutdown() {
	b.stopOnce.Do(func() {
		logger.Info(b.protocol+" shutting down", logger.KeyActive, b.conns.len())
		close(b.stopping)

		b.mu.Lock()
		if b.listener != nil {
			_ = b.listener.Close()
		}
		b.mu.Unlock()

		b.cancelSession()

		now := time.Now()
		b.conns.each(func(addr string, c net.Conn) {
			if err := c.SetReadDeadline(now); err != nil {
				logger.Debug("interrupt read", logger.KeyClientAddr, addr, logger.Err(err))
			}
		})
	})
}

// awaitDrain waits up to ShutdownTimeout for sessions to end, then closes
// the stragglers.
func (b *BaseAdapter) awaitDrain() error {
	timer := time.NewTimer(b.Config.ShutdownTimeout)
	defer timer.Stop()

	select {
	case <-b.conns.drained():
		logger.Info(b.protocol + " stopped")
		return nil
	case <-timer.C:
	}

	forced := 0
	b.conns.each(func(addr string, c net.Conn) {
		if c.Close() == nil {
			forced++
			if b.Metrics != nil {
				b.Metrics.RecordConnectionForceClosed()
			}
		}
	})
	logger.Warn(b.protocol+" shutdown timeout exceeded", logger.KeyCount, forced, "timeout", b.Config.ShutdownTimeout)
	return fmt.Errorf("%s: %d %w", b.protocol, forced, errForced)
}

// Stop begins shutdown and waits for active sessions until ctx is done.
// It may be called concurrently with Serve and more than once.
func (b *BaseAdapter) Stop(ctx context.Context) error {
	b.beginShutdown()
	select {
	case <-b.conns.drained():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *BaseAdapter) logActive(ctx context.Context) {
	t := time.NewTicker(b.Config.MetricsLogInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopping:
			return
		case <-t.C:
			logger.Info(b.protocol+" connections", logger.KeyActive, b.conns.len())
		}
	}
}

// GetActiveConnections returns the number of live connections.
func (b *BaseAdapter) GetActiveConnections() int32 {
	return b.conns.len()
}

// GetListenerAddr blocks until Serve has bound (or failed to bind) and
// returns the listener address, or "" after a failure.
func (b *BaseAdapter) GetListenerAddr() string {
	<-b.ready
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Port returns the configured TCP port.
func (b *BaseAdapter) Port() int {
	return b.Config.Port
}

// Protocol returns the protocol name.
func (b *BaseAdapter) Protocol() string {
	return b.protocol
}
