// Package logger is a process-wide structured logger on top of log/slog.
//
// Call sites use the package functions (Info, WarnCtx, ...) with key/value
// pairs built from the Key* constants. The level can be changed at runtime
// by SetLevel, which the config watcher does on reload.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Config selects the level, format and destination.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	level slog.LevelVar

	mu      sync.RWMutex
	out     io.Writer = os.Stdout
	color             = isTerminal(os.Stdout)
	asJSON  bool
	current *slog.Logger
)

func init() {
	rebuild()
}

// ParseLevel maps a level name (case-insensitive, WARNING accepted) to a
// slog level.
func ParseLevel(name string) (slog.Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return slog.LevelDebug, true
	case "INFO":
		return slog.LevelInfo, true
	case "WARN", "WARNING":
		return slog.LevelWarn, true
	case "ERROR":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// rebuild swaps in a handler for the current writer and format. The level
// is shared through the LevelVar, so SetLevel needs no rebuild.
func rebuild() {
	mu.Lock()
	defer mu.Unlock()

	opts := &slog.HandlerOptions{Level: &level}
	if asJSON {
		current = slog.New(slog.NewJSONHandler(out, opts))
	} else {
		current = slog.New(newTextHandler(out, opts, color))
	}
}

// Init applies cfg. Empty fields keep their current value.
func Init(cfg Config) error {
	if cfg.Output != "" {
		w, c, err := openOutput(cfg.Output)
		if err != nil {
			return err
		}
		mu.Lock()
		out, color = w, c
		mu.Unlock()
	}
	SetLevel(cfg.Level)
	setFormat(cfg.Format)
	rebuild()
	return nil
}

func openOutput(dest string) (io.Writer, bool, error) {
	switch strings.ToLower(dest) {
	case "stdout":
		return os.Stdout, isTerminal(os.Stdout), nil
	case "stderr":
		return os.Stderr, isTerminal(os.Stderr), nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open log file %q: %w", dest, err)
	}
	return f, false, nil
}

// InitWithWriter sends output to w. Used by tests.
func InitWithWriter(w io.Writer, lvl, format string, enableColor bool) {
	mu.Lock()
	out, color = w, enableColor
	mu.Unlock()
	SetLevel(lvl)
	setFormat(format)
	rebuild()
}

// SetLevel sets the minimum level. Unknown names are ignored.
func SetLevel(name string) {
	if l, ok := ParseLevel(name); ok {
		level.Set(l)
	}
}

// SetFormat switches between text and json. Unknown formats are ignored.
func SetFormat(format string) {
	setFormat(format)
	rebuild()
}

func setFormat(format string) {
	switch strings.ToLower(format) {
	case "json":
		mu.Lock()
		asJSON = true
		mu.Unlock()
	case "text":
		mu.Lock()
		asJSON = false
		mu.Unlock()
	}
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func emit(ctx context.Context, l slog.Level, msg string, args []any) {
	if l < level.Level() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	get().Log(ctx, l, msg, withContextFields(ctx, args)...)
}

// Debug logs msg with key/value pairs at debug level.
func Debug(msg string, args ...any) { emit(context.Background(), slog.LevelDebug, msg, args) }

func Info(msg string, args ...any) { emit(context.Background(), slog.LevelInfo, msg, args) }

func Warn(msg string, args ...any) { emit(context.Background(), slog.LevelWarn, msg, args) }

func Error(msg string, args ...any) { emit(context.Background(), slog.LevelError, msg, args) }

// DebugCtx is Debug prefixed with the session fields carried by ctx.
func DebugCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelDebug, msg, args)
}

func InfoCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelInfo, msg, args)
}

func WarnCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelWarn, msg, args)
}

func ErrorCtx(ctx context.Context, msg string, args ...any) {
	emit(ctx, slog.LevelError, msg, args)
}

// withContextFields prepends the non-empty LogContext fields of ctx.
func withContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}

	fields := [...][2]string{
		{KeyTraceID, lc.TraceID},
		{KeySessionID, lc.SessionID},
		{KeyClientIP, lc.ClientIP},
		{KeyUsername, lc.Username},
		{KeyRole, lc.Role},
	}
	merged := make([]any, 0, 2*len(fields)+len(args))
	for _, f := range fields {
		if f[1] != "" {
			merged = append(merged, f[0], f[1])
		}
	}
	return append(merged, args...)
}

// With returns a child logger carrying args on every record.
func With(args ...any) *slog.Logger {
	return get().With(args...)
}

// Duration returns the milliseconds elapsed since start.
func Duration(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
