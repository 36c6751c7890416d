package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer with the given level
// and format, restoring the previous configuration on cleanup.
func captureOutput(t *testing.T, lvl, format string) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)

	mu.Lock()
	prevOut, prevColor, prevJSON := out, color, asJSON
	mu.Unlock()
	prevLevel := level.Level()

	InitWithWriter(buf, lvl, format, false)

	t.Cleanup(func() {
		mu.Lock()
		out, color, asJSON = prevOut, prevColor, prevJSON
		mu.Unlock()
		level.Set(prevLevel)
		rebuild()
	})
	return buf
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
	}{
		{"DEBUG", []string{"d-msg", "i-msg", "w-msg", "e-msg"}},
		{"INFO", []string{"i-msg", "w-msg", "e-msg"}},
		{"WARN", []string{"w-msg", "e-msg"}},
		{"ERROR", []string{"e-msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := captureOutput(t, tt.level, "text")

			Debug("d-msg")
			Info("i-msg")
			Warn("w-msg")
			Error("e-msg")

			out := buf.String()
			for _, msg := range []string{"d-msg", "i-msg", "w-msg", "e-msg"} {
				if contains(tt.want, msg) {
					assert.Contains(t, out, msg)
				} else {
					assert.NotContains(t, out, msg)
				}
			}
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel(" warning ")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, l)

	l, ok = ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelDebug, l)

	_, ok = ParseLevel("verbose")
	assert.False(t, ok)
}

func TestInvalidSettingsIgnored(t *testing.T) {
	buf := captureOutput(t, "WARN", "text")

	SetLevel("verbose")
	SetFormat("xml")
	Info("hidden")
	Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "{")
}

func TestTextFormat(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	Info("session opened", KeyClientIP, "10.0.0.1", KeyCount, 3, KeyReason, "two words")

	out := buf.String()
	assert.Contains(t, out, "[INFO] session opened")
	assert.Contains(t, out, "client_ip=10.0.0.1")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, `reason="two words"`)
}

func TestJSONFormat(t *testing.T) {
	buf := captureOutput(t, "INFO", "json")

	Info("posted", PostID(7), Board("tech"), Err(nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "posted", entry["msg"])
	assert.Equal(t, float64(7), entry["post_id"])
	assert.Equal(t, "tech", entry["board"])
	_, hasErr := entry["error"]
	assert.False(t, hasErr)
}

func TestContextLogging(t *testing.T) {
	t.Run("LogContextInjectsFields", func(t *testing.T) {
		buf := captureOutput(t, "INFO", "json")

		lc := NewLogContext("sess-1", "192.168.1.100").WithIdentity("alice", "member")
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "command", KeyCommand, "board")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "sess-1", entry["session_id"])
		assert.Equal(t, "192.168.1.100", entry["client_ip"])
		assert.Equal(t, "alice", entry["username"])
		assert.Equal(t, "member", entry["role"])
		assert.Equal(t, "board", entry["command"])
	})

	t.Run("ContextWithoutLogContextHandled", func(t *testing.T) {
		buf := captureOutput(t, "INFO", "text")

		require.NotPanics(t, func() {
			InfoCtx(context.Background(), "test message")
			WarnCtx(nil, "nil ctx") //nolint:staticcheck
		})
		assert.Contains(t, buf.String(), "test message")
		assert.Contains(t, buf.String(), "nil ctx")
	})
}

func TestLogContext(t *testing.T) {
	lc := NewLogContext("s", "1.2.3.4")
	assert.False(t, lc.StartTime.IsZero())
	assert.GreaterOrEqual(t, lc.DurationMs(), 0.0)

	withID := lc.WithIdentity("bob", "operator")
	assert.Equal(t, "", lc.Username, "original must not change")
	assert.Equal(t, "bob", withID.Username)

	traced := withID.WithTrace("abc")
	assert.Equal(t, "abc", traced.TraceID)
	assert.Equal(t, "bob", traced.Username)

	var nilLC *LogContext
	assert.Nil(t, nilLC.Clone())
	assert.Nil(t, nilLC.WithIdentity("x", "y"))
	assert.Zero(t, nilLC.DurationMs())
}

func TestErrAttr(t *testing.T) {
	assert.Equal(t, "boom", Err(errors.New("boom")).Value.String())
	assert.True(t, Err(nil).Equal(Err(nil)))
}

func TestGroupedAttrs(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	With("server", "telnet").WithGroup("conn").Info("accepted", "id", 1)

	assert.Contains(t, buf.String(), "server=telnet")
	assert.Contains(t, buf.String(), "conn.id=1")
}

func TestConcurrentLogging(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info("concurrent")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 500, strings.Count(buf.String(), "concurrent"))
}

func TestInitFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbs.log")
	captureOutput(t, "INFO", "text")

	require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
	Info("to file")

	err := Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}

func TestSetLevelAtRuntime(t *testing.T) {
	buf := captureOutput(t, "WARN", "text")

	Info("before")
	SetLevel("debug")
	Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "[DEBUG] after")
}

func TestTextHandlerQuotesEmptyAndNested(t *testing.T) {
	buf := captureOutput(t, "INFO", "text")

	Info("nested", KeyUsername, "", slog.Group("db", slog.Int("open", 2)), Err(nil))

	out := buf.String()
	assert.Contains(t, out, `username=""`)
	assert.Contains(t, out, "db.open=2")
	assert.NotContains(t, out, "error=")
}
