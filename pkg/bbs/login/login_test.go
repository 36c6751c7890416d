package login

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/openbbs/pkg/bbs/models"
	"github.com/marmos91/openbbs/pkg/bbs/terminal"
)

type fakeStore struct {
	users     map[string]string
	roles     map[string]models.Role
	lastLogin time.Time
	creates   int
	failWith  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     map[string]string{"alice": "pw1"},
		roles:     map[string]models.Role{"alice": models.RoleMember},
		lastLogin: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) CreateUser(_ context.Context, name, password string) (models.Role, error) {
	f.creates++
	if f.failWith != nil {
		return "", f.failWith
	}
	if _, ok := f.users[name]; ok {
		return "", models.ErrDuplicateUser
	}
	f.users[name] = password
	f.roles[name] = models.RoleMember
	return models.RoleMember, nil
}

func (f *fakeStore) Login(_ context.Context, name, password string) (models.Role, time.Time, error) {
	if f.failWith != nil {
		return "", time.Time{}, f.failWith
	}
	if pw, ok := f.users[name]; !ok || pw != password {
		return "", time.Time{}, models.ErrInvalidCredentials
	}
	return f.roles[name], f.lastLogin, nil
}

func (f *fakeStore) CountPosts(context.Context, time.Time) (int64, error) { return 4, nil }

func (f *fakeStore) CountUnreadMessages(context.Context, string) (int64, error) { return 2, nil }

type fakeMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *fakeMetrics) RecordLogin(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

type conn struct {
	in  io.Reader
	out bytes.Buffer
}

func (c *conn) Read(p []byte) (int, error)  { return c.in.Read(p) }
func (c *conn) Write(p []byte) (int, error) { return c.out.Write(p) }

func run(t *testing.T, store Store, lines ...string) (*Identity, string, *fakeMetrics, error) {
	t.Helper()
	c := &conn{in: strings.NewReader(strings.Join(lines, "\r\n") + "\r\n")}
	metrics := &fakeMetrics{}
	id, err := New(store, metrics).Run(context.Background(), terminal.New(c, 0))
	return id, c.out.String(), metrics, err
}

func TestLogin(t *testing.T) {
	id, out, metrics, err := run(t, newFakeStore(), "login", "Alice", "pw1")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "alice", id.Name)
	assert.Equal(t, models.RoleMember, id.Role)

	assert.True(t, strings.HasPrefix(out, "=======================\r\nPLEASE SELECT AN OPTION"))
	assert.Contains(t, out, "--> USERNAME: PASSWORD: ")
	assert.Contains(t, out, "Successfully logged in as alice.\r\n")
	assert.Contains(t, out, "Last Login: ")
	assert.Contains(t, out, "Posts since then: 4.\r\n")
	assert.Contains(t, out, "You have 2 new messages.\r\n")
	assert.Equal(t, []string{OutcomeSuccess}, metrics.outcomes)
}

func TestFailedLoginLoops(t *testing.T) {
	id, out, metrics, err := run(t, newFakeStore(), "l", "alice", "wrong", "quit")
	require.NoError(t, err)
	assert.Nil(t, id)
	assert.Contains(t, out, "Invalid login credentials.\r\n")
	assert.Equal(t, 2, strings.Count(out, "--> "))
	assert.Equal(t, []string{OutcomeFailure}, metrics.outcomes)
}

func TestRegister(t *testing.T) {
	store := newFakeStore()
	id, out, _, err := run(t, store, "register", "bob", "pw1", "pw1")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "bob", id.Name)
	assert.Equal(t, models.RoleMember, id.Role)
	assert.Contains(t, out, "Account successfully created: bob.")
}

func TestRegisterFailures(t *testing.T) {
	t.Run("mismatch does not touch the store", func(t *testing.T) {
		store := newFakeStore()
		id, out, _, err := run(t, store, "r", "bob", "a", "b", "q")
		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Contains(t, out, "Passwords do not match.")
		assert.Zero(t, store.creates)
	})

	t.Run("duplicate", func(t *testing.T) {
		id, out, metrics, err := run(t, newFakeStore(), "r", "alice", "a", "a", "q")
		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Contains(t, out, "Account already exists, or could not be made.")
		assert.Equal(t, []string{OutcomeRegisterFailed}, metrics.outcomes)
	})

	t.Run("empty name", func(t *testing.T) {
		store := newFakeStore()
		id, out, _, err := run(t, store, "r", "", "a", "a", "q")
		require.NoError(t, err)
		assert.Nil(t, id)
		assert.Contains(t, out, "Account already exists, or could not be made.")
		assert.Zero(t, store.creates)
	})
}

func TestAnonymous(t *testing.T) {
	id, out, _, err := run(t, newFakeStore(), "ANONYMOUS")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, models.AnonymousName, id.Name)
	assert.True(t, id.IsGuest())
	assert.Contains(t, out, "Don't make trouble...")
}

func TestInvalidCommandHasNoRetryCap(t *testing.T) {
	lines := make([]string, 0, 51)
	for i := 0; i < 50; i++ {
		lines = append(lines, "bogus")
	}
	lines = append(lines, "q")

	id, out, _, err := run(t, newFakeStore(), lines...)
	require.NoError(t, err)
	assert.Nil(t, id)
	assert.Equal(t, 50, strings.Count(out, "Invalid command \"bogus\"."))
}

func TestDisconnectEndsMenu(t *testing.T) {
	c := &conn{in: strings.NewReader("login\r\nalice\r\n")}
	id, err := New(newFakeStore(), nil).Run(context.Background(), terminal.New(c, 0))
	assert.Nil(t, id)
	assert.ErrorIs(t, err, io.EOF)
}

func TestStoreFaultIsFatal(t *testing.T) {
	store := newFakeStore()
	store.failWith = errors.New("disk on fire")
	id, _, _, err := run(t, store, "login", "alice", "pw1")
	assert.Nil(t, id)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &conn{in: strings.NewReader("q\r\n")}
	_, err := New(newFakeStore(), nil).Run(ctx, terminal.New(c, 0))
	assert.ErrorIs(t, err, context.Canceled)
}
