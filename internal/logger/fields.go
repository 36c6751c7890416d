package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging. Use these consistently so
// session logs can be aggregated and queried.
const (
	// Tracing
	KeyTraceID = "trace_id"

	// Connection & session
	KeySessionID  = "session_id"
	KeyClientIP   = "client_ip"
	KeyClientAddr = "client_addr"
	KeyUsername   = "username"
	KeyRole       = "role"
	KeyActive     = "active_connections"

	// Shell
	KeyCommand  = "command"
	KeyBoard    = "board"
	KeyThread   = "thread"
	KeyPostID   = "post_id"
	KeyTarget   = "target"
	KeyReceiver = "receiver"
	KeyReason   = "reason"
	KeyCount    = "count"
	KeyOutcome  = "outcome"

	// Server
	KeyAddress  = "address"
	KeyPort     = "port"
	KeyDatabase = "database"
	KeyPath     = "path"

	// Outcome
	KeyDuration = "duration_ms"
	KeyError    = "error"
)

func SessionID(id string) slog.Attr {
	return slog.String(KeySessionID, id)
}

func ClientIP(ip string) slog.Attr {
	return slog.String(KeyClientIP, ip)
}

func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

func Command(name string) slog.Attr {
	return slog.String(KeyCommand, name)
}

func Board(name string) slog.Attr {
	return slog.String(KeyBoard, name)
}

func PostID(id uint) slog.Attr {
	return slog.Uint64(KeyPostID, uint64(id))
}

// DurationMs records an elapsed time in milliseconds.
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDuration, float64(d.Microseconds())/1000.0)
}

// Err records an error, or nothing when err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
