package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// textHandler writes one line per record:
//
//	[2006-01-02 15:04:05] [INFO] message key=value group.key="quoted value"
//
// Attributes added through WithAttrs are rendered once and kept as a
// preformatted suffix.
type textHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	color  bool
	prefix string // group path ending in ".", or ""
	fixed  []byte // preformatted WithAttrs output
}

func newTextHandler(w io.Writer, opts *slog.HandlerOptions, color bool) *textHandler {
	var lv slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		lv = opts.Level
	}
	return &textHandler{level: lv, w: w, mu: new(sync.Mutex), color: color}
}

func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	buf.WriteString("] [")
	buf.WriteString(h.levelLabel(r.Level))
	buf.WriteString("] ")
	buf.WriteString(r.Message)
	buf.Write(h.fixed)
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *textHandler) levelLabel(l slog.Level) string {
	label, code := "ERROR", ansiRed
	switch {
	case l < slog.LevelInfo:
		label, code = "DEBUG", ansiGray
	case l < slog.LevelWarn:
		label, code = "INFO", ansiGreen
	case l < slog.LevelError:
		label, code = "WARN", ansiYellow
	}
	if !h.color {
		return label
	}
	return code + label + ansiReset
}

func (h *textHandler) writeAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()

	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range v.Group() {
			h.writeAttr(buf, inner, ga)
		}
		return
	}

	buf.WriteByte(' ')
	if h.color {
		buf.WriteString(ansiCyan + prefix + a.Key + ansiReset)
	} else {
		buf.WriteString(prefix + a.Key)
	}
	buf.WriteByte('=')
	buf.WriteString(renderValue(v))
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 3, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		return fmt.Sprint(v.Any())
	default:
		return v.String()
	}
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	buf.Write(h.fixed)
	for _, a := range attrs {
		h.writeAttr(&buf, h.prefix, a)
	}
	c := *h
	c.fixed = buf.Bytes()
	return &c
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.prefix = h.prefix + name + "."
	return &c
}
