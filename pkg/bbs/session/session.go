// Package session serves one client connection from greeting to close.
//
// An Engine holds what every session shares (store, settings, the login
// menu and the shell). Each accepted connection gets its own Session; no
// session state is visible to another session.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/openbbs/internal/logger"
	"github.com/marmos91/openbbs/internal/telemetry"
	"github.com/marmos91/openbbs/pkg/bbs/login"
	"github.com/marmos91/openbbs/pkg/bbs/settings"
	"github.com/marmos91/openbbs/pkg/bbs/shell"
	"github.com/marmos91/openbbs/pkg/bbs/terminal"
)

// Session outcomes reported to Metrics.
const (
	OutcomeQuit       = "quit"
	OutcomeBanned     = "banned"
	OutcomeDisconnect = "disconnect"
	OutcomeTimeout    = "timeout"
	OutcomeShutdown   = "shutdown"
	OutcomeError      = "error"
	OutcomePanic      = "panic"
)

// DefaultIdleTimeout closes sessions that send nothing for this long.
const DefaultIdleTimeout = 10 * time.Minute

// Store is everything a session needs from persistence.
type Store interface {
	login.Store
	shell.Store
	CheckBanned(ctx context.Context, name, ip string) (string, bool, error)
}

// Metrics aggregates the per-stage recorders. Implementations must be safe
// for concurrent use.
type Metrics interface {
	login.Metrics
	shell.Metrics
	RecordSession(outcome string, duration time.Duration)
}

// Config tunes sessions.
type Config struct {
	// IdleTimeout bounds the wait for each input line. Zero disables it.
	IdleTimeout time.Duration
}

// Engine creates sessions sharing one store and one settings holder.
type Engine struct {
	store    Store
	settings *settings.Holder
	login    *login.Machine
	shell    *shell.Shell
	metrics  Metrics
	idle     time.Duration
}

// NewEngine builds the login menu and shell once. metrics may be nil.
func NewEngine(store Store, holder *settings.Holder, cfg Config, metrics Metrics) *Engine {
	return &Engine{
		store:    store,
		settings: holder,
		login:    login.New(store, metrics),
		shell:    shell.New(store, holder, metrics),
		metrics:  metrics,
		idle:     cfg.IdleTimeout,
	}
}

// NewSession wraps an accepted connection. The session owns conn and closes
// it when Serve returns.
func (e *Engine) NewSession(conn net.Conn) *Session {
	return &Session{
		ID:     uuid.NewString(),
		engine: e,
		conn:   conn,
		term:   terminal.New(conn, e.idle),
	}
}

// Session is one client connection.
type Session struct {
	ID string

	engine *Engine
	conn   net.Conn
	term   *terminal.Terminal
	lc     *logger.LogContext
}

// Serve runs the session to completion. It never panics and always closes
// the connection.
func (s *Session) Serve(ctx context.Context) {
	ip := remoteIP(s.conn.RemoteAddr())
	s.lc = logger.NewLogContext(s.ID, ip)

	ctx, span := telemetry.StartSessionSpan(ctx, s.ID, ip)
	defer span.End()
	if traceID := telemetry.TraceID(ctx); traceID != "" {
		s.lc = s.lc.WithTrace(traceID)
	}
	ctx = logger.WithContext(ctx, s.lc)
	s.term.StopOn(ctx)

	outcome := OutcomeError
	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanic
			logger.ErrorCtx(ctx, "session panic", "panic", r, "stack", string(debug.Stack()))
		}
		if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.DebugCtx(ctx, "close connection", logger.Err(err))
		}

		elapsed := time.Since(s.lc.StartTime)
		if s.engine.metrics != nil {
			s.engine.metrics.RecordSession(outcome, elapsed)
		}
		span.SetAttributes(telemetry.Outcome(outcome))
		logger.InfoCtx(logger.WithContext(ctx, s.lc), "session closed",
			logger.KeyOutcome, outcome, logger.DurationMs(elapsed))
	}()

	logger.InfoCtx(ctx, "session opened")

	var err error
	outcome, err = s.run(ctx)
	if err != nil {
		outcome = classify(ctx, err)
		if outcome == OutcomeError {
			telemetry.RecordError(ctx, err)
			logger.WarnCtx(logger.WithContext(ctx, s.lc), "session failed", logger.Err(err))
		}
	}
}

// run walks greeting, login, ban check and shell. s.lc gains the identity
// once it is known.
func (s *Session) run(ctx context.Context) (string, error) {
	set := s.engine.settings.Load()

	if err := s.term.Send(set.MOTD); err != nil {
		return "", err
	}
	posts, err := s.engine.store.CountPosts(ctx, time.Time{})
	if err != nil {
		return "", fmt.Errorf("count posts: %w", err)
	}
	if err := s.term.Sendf("There are %d posts right now.", posts); err != nil {
		return "", err
	}

	id, err := s.engine.login.Run(ctx, s.term)
	if err != nil {
		return "", err
	}
	if id == nil {
		return OutcomeQuit, nil
	}

	s.lc = s.lc.WithIdentity(id.Name, string(id.Role))
	ctx = logger.WithContext(ctx, s.lc)
	telemetry.SetAttributes(ctx, telemetry.Username(id.Name), telemetry.Role(string(id.Role)))

	reason, banned, err := s.engine.store.CheckBanned(ctx, id.Name, s.lc.ClientIP)
	if err != nil {
		return "", fmt.Errorf("check ban: %w", err)
	}
	if banned {
		logger.InfoCtx(ctx, "banned client rejected", logger.KeyReason, reason)
		if err := s.term.Sendf("%s Reason: %s", s.engine.settings.Load().Banned, reason); err != nil {
			return "", err
		}
		return OutcomeBanned, nil
	}

	logger.InfoCtx(ctx, "logged in")
	if err := s.engine.shell.Run(ctx, s.term, id); err != nil {
		return "", err
	}
	return OutcomeQuit, nil
}

// classify maps the error that ended a session to an outcome.
func classify(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return OutcomeShutdown
	case terminal.IsTimeout(err):
		return OutcomeTimeout
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
		return OutcomeDisconnect
	default:
		return OutcomeError
	}
}

func remoteIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
