package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanSession = "bbs.session"
	SpanLogin   = "bbs.login"
	SpanCommand = "bbs.command"
)

// Attribute keys, following OpenTelemetry semantic conventions where they exist.
const (
	AttrClientIP  = "client.address"
	AttrSessionID = "session.id"
	AttrUsername  = "enduser.id"
	AttrRole      = "enduser.role"
	AttrCommand   = "bbs.command"
	AttrBoard     = "bbs.board"
	AttrThread    = "bbs.thread"
	AttrOutcome   = "bbs.outcome"
)

func ClientIP(ip string) attribute.KeyValue {
	return attribute.String(AttrClientIP, ip)
}

func SessionID(id string) attribute.KeyValue {
	return attribute.String(AttrSessionID, id)
}

func Username(name string) attribute.KeyValue {
	return attribute.String(AttrUsername, name)
}

func Role(role string) attribute.KeyValue {
	return attribute.String(AttrRole, role)
}

func Command(name string) attribute.KeyValue {
	return attribute.String(AttrCommand, name)
}

func Board(name string) attribute.KeyValue {
	return attribute.String(AttrBoard, name)
}

func Thread(id uint) attribute.KeyValue {
	return attribute.Int64(AttrThread, int64(id))
}

func Outcome(o string) attribute.KeyValue {
	return attribute.String(AttrOutcome, o)
}

// StartSessionSpan starts the root span of one client connection.
func StartSessionSpan(ctx context.Context, sessionID, clientIP string) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanSession,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(SessionID(sessionID), ClientIP(clientIP)),
	)
}

// StartCommandSpan starts a span for one shell command.
func StartCommandSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCommand,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(append([]attribute.KeyValue{Command(command)}, attrs...)...),
	)
}
