package session

import (
	"context"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/openbbs/pkg/bbs/credential"
	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/settings"
	"github.com/marmos91/openbbs/pkg/bbs/store"
)

type fakeMetrics struct {
	mu       sync.Mutex
	logins   []string
	commands []string
	sessions []string
}

func (m *fakeMetrics) RecordLogin(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, outcome)
}

func (m *fakeMetrics) RecordCommand(command string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commands = append(m.commands, command)
}

func (m *fakeMetrics) RecordSession(outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, outcome)
}

func (m *fakeMetrics) lastSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) == 0 {
		return ""
	}
	return m.sessions[len(m.sessions)-1]
}

// addrConn gives one end of a net.Pipe a TCP remote address.
type addrConn struct {
	net.Conn
	remote net.Addr
}

func (c addrConn) RemoteAddr() net.Addr { return c.remote }

type fixture struct {
	store   *store.GORMStore
	engine  *Engine
	metrics *fakeMetrics
}

func newFixture(t *testing.T, idle time.Duration) *fixture {
	t.Helper()
	st, err := store.New(&store.Config{
		Type:   store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{Path: store.InMemory},
	}, store.Options{Hasher: credential.NewHasher(1000, 8)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	holder := settings.NewHolder(&settings.Settings{
		Name:    "testbbs",
		MOTD:    "Welcome to testbbs!",
		Rules:   "Be nice.",
		Banned:  "You are banned.",
		Quit:    "Goodbye!",
		Version: "0.0.1",
		Boards:  []settings.Board{{Name: "tech", Description: "Technology"}},
	})

	m := &fakeMetrics{}
	return &fixture{
		store:   st,
		engine:  NewEngine(st, holder, Config{IdleTimeout: idle}, m),
		metrics: m,
	}
}

// serve runs one session from ip, feeds it lines and returns everything
// the client received once the server hung up.
func (f *fixture) serve(t *testing.T, ctx context.Context, ip string, lines ...string) string {
	t.Helper()
	server, client := net.Pipe()
	conn := addrConn{Conn: server, remote: &net.TCPAddr{IP: net.ParseIP(ip), Port: 40000}}

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.NewSession(conn).Serve(ctx)
	}()

	go func() {
		for _, line := range lines {
			if _, err := io.WriteString(client, line+"\r\n"); err != nil {
				return
			}
		}
	}()

	out, err := io.ReadAll(client)
	require.NoError(t, err)
	_ = client.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish")
	}
	return string(out)
}

func TestAnonymousQuit(t *testing.T) {
	f := newFixture(t, 0)

	out := f.serve(t, context.Background(), "10.0.0.1", "a", "q")

	assert.Contains(t, out, "Welcome to testbbs!\r\n")
	assert.Contains(t, out, "There are 0 posts right now.\r\n")
	assert.Contains(t, out, "Don't make trouble...")
	assert.Contains(t, out, "[Anonymous@testbbs main]$ ")
	assert.True(t, strings.HasSuffix(out, "Goodbye!\r\n"))
	assert.Equal(t, OutcomeQuit, f.metrics.lastSession())
	assert.Equal(t, []string{"anonymous"}, f.metrics.logins)
}

func TestQuitAtLogin(t *testing.T) {
	f := newFixture(t, 0)

	out := f.serve(t, context.Background(), "10.0.0.1", "q")

	assert.Contains(t, out, "PLEASE SELECT AN OPTION")
	assert.NotContains(t, out, "Goodbye!")
	assert.Equal(t, OutcomeQuit, f.metrics.lastSession())
}

func TestRegisterPostAndRead(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	out := f.serve(t, ctx, "10.0.0.1",
		"r", "Alice", "secret", "secret",
		"b tech", "p", "Hello", "World", "q")
	assert.Contains(t, out, "Account successfully created: alice.")
	assert.Contains(t, out, "Successfully posted.")

	roots, err := f.store.ListThreadRoots(ctx, "tech")
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "alice", roots[0].Author)

	out = f.serve(t, ctx, "10.0.0.2", "a", "b tech", "t 1", "q")
	assert.Contains(t, out, "There are 1 posts right now.")
	assert.Contains(t, out, "Hello")
	assert.Contains(t, out, "World")
	assert.Contains(t, out, "Current thread changed to 1.")
}

func TestLoginReport(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.store.CreateUser(ctx, "bob", "pw")
	require.NoError(t, err)
	_, err = f.store.CreateUser(ctx, "carol", "pw")
	require.NoError(t, err)
	_, err = f.store.SendMessage(ctx, "carol", "bob", "hi")
	require.NoError(t, err)

	out := f.serve(t, ctx, "10.0.0.1", "l", "BOB", "pw", "q")
	assert.Contains(t, out, "Successfully logged in as bob.")
	assert.Contains(t, out, "You have 1 new messages.")
	assert.Contains(t, out, "[bob@testbbs main]$ ")
}

func TestBannedByName(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	_, err := f.store.CreateUser(ctx, "mallory", "pw")
	require.NoError(t, err)
	name := "mallory"
	require.NoError(t, f.store.Ban(ctx, "spam", &name, nil))

	out := f.serve(t, ctx, "10.0.0.1", "l", "mallory", "pw", "help")
	assert.True(t, strings.HasSuffix(out, "You are banned. Reason: spam\r\n"))
	assert.NotContains(t, out, "]$ ")
	assert.Equal(t, OutcomeBanned, f.metrics.lastSession())
}

func TestBannedByIP(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	ip := "10.9.9.9"
	require.NoError(t, f.store.Ban(ctx, "flood", nil, &ip))

	out := f.serve(t, ctx, ip, "a")
	assert.Contains(t, out, "You are banned. Reason: flood")
	assert.Equal(t, OutcomeBanned, f.metrics.lastSession())

	out = f.serve(t, ctx, "10.0.0.1", "a", "q")
	assert.NotContains(t, out, "You are banned.")
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t, 0)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		f.engine.NewSession(conn).Serve(context.Background())
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	_, err = io.WriteString(client, "a\r\nhelp\r\n")
	require.NoError(t, err)
	require.NoError(t, client.(*net.TCPConn).CloseWrite())

	out, err := io.ReadAll(client)
	require.NoError(t, err)
	assert.Contains(t, string(out), "AVAILABLE COMMANDS")
	assert.NotContains(t, string(out), "Goodbye!")

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session did not notice the disconnect")
	}
	assert.Equal(t, OutcomeDisconnect, f.metrics.lastSession())
}

func TestIdleTimeout(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)

	server, client := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.NewSession(server).Serve(context.Background())
	}()
	go func() { _, _ = io.Copy(io.Discard, client) }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("idle session was not closed")
	}
	assert.Equal(t, OutcomeTimeout, f.metrics.lastSession())
}

func TestShutdown(t *testing.T) {
	f := newFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	server, client := net.Pipe()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.engine.NewSession(server).Serve(ctx)
	}()
	go func() { _, _ = io.Copy(io.Discard, client) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	// Shutdown interrupts reads the way the listener does.
	_ = server.SetReadDeadline(time.Now())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("session ignored shutdown")
	}
	assert.Equal(t, OutcomeShutdown, f.metrics.lastSession())
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	assert.Equal(t, OutcomeShutdown, classify(cancelled, io.EOF))
	assert.Equal(t, OutcomeDisconnect, classify(ctx, io.EOF))
	assert.Equal(t, OutcomeDisconnect, classify(ctx, net.ErrClosed))
	assert.Equal(t, OutcomeError, classify(ctx, models.ErrPostNotFound))
}

func TestRemoteIP(t *testing.T) {
	assert.Equal(t, "192.0.2.1", remoteIP(&net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 23}))
	assert.Equal(t, "pipe", remoteIP(pipeAddr{}))
	assert.Equal(t, "", remoteIP(nil))
}

type pipeAddr struct{}

func (pipeAddr) Network() string { return "pipe" }
func (pipeAddr) String() string  { return "pipe" }
