package metrics

import "time"

// BBSMetrics observes the BBS server: TCP connections, sessions, logins and
// shell commands.
//
// It satisfies both session.Metrics and adapter.MetricsRecorder, so one
// value is wired into the engine and the listener. Pass nil to disable.
type BBSMetrics interface {
	// RecordLogin counts a login menu outcome ("success", "failure",
	// "registered", "register_failed", "anonymous").
	RecordLogin(outcome string)

	// RecordCommand observes one shell command by canonical name.
	RecordCommand(command string, duration time.Duration)

	// RecordSession observes a finished session by outcome ("quit",
	// "banned", "disconnect", "timeout", "shutdown", "error", "panic").
	RecordSession(outcome string, duration time.Duration)

	RecordConnectionAccepted()
	RecordConnectionClosed()
	RecordConnectionForceClosed()
	SetActiveConnections(count int32)
}
