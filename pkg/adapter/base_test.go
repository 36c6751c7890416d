package adapter

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubborn ignores cancellation and holds the connection until released.
type stubborn struct {
	release chan struct{}
	served  atomic.Int32
}

func (s *stubborn) NewConnection(conn net.Conn) ConnectionHandler { return s.handler(conn) }

type stubbornHandler struct {
	conn net.Conn
	s    *stubborn
}

func (s *stubborn) handler(conn net.Conn) ConnectionHandler {
	return &stubbornHandler{conn: conn, s: s}
}

func (h *stubbornHandler) Serve(ctx context.Context) {
	h.s.served.Add(1)
	<-h.s.release
	_ = h.conn.Close()
}

// echoOnce reads until the connection fails, honouring read deadlines.
type echoOnce struct{}

func (echoOnce) NewConnection(conn net.Conn) ConnectionHandler { return readerHandler{conn} }

type readerHandler struct{ conn net.Conn }

func (h readerHandler) Serve(ctx context.Context) {
	defer h.conn.Close()
	buf := make([]byte, 64)
	for {
		if _, err := h.conn.Read(buf); err != nil {
			return
		}
	}
}

func serve(t *testing.T, b *BaseAdapter, f ConnectionFactory) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- b.ServeWithFactory(ctx, f) }()
	require.NotEmpty(t, b.GetListenerAddr())
	t.Cleanup(cancel)
	return cancel, errc
}

func TestBaseAdapter_GracefulShutdown(t *testing.T) {
	b := NewBaseAdapter(BaseConfig{BindAddress: "127.0.0.1", ShutdownTimeout: 5 * time.Second}, "TEST")
	cancel, errc := serve(t, b, echoOnce{})

	conn, err := net.Dial("tcp", b.GetListenerAddr())
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return b.GetActiveConnections() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeWithFactory did not return")
	}
	assert.EqualValues(t, 0, b.GetActiveConnections())
}

func TestBaseAdapter_ForceClose(t *testing.T) {
	f := &stubborn{release: make(chan struct{})}
	defer close(f.release)

	b := NewBaseAdapter(BaseConfig{BindAddress: "127.0.0.1", ShutdownTimeout: 100 * time.Millisecond}, "TEST")
	cancel, errc := serve(t, b, f)

	conn, err := net.Dial("tcp", b.GetListenerAddr())
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return f.served.Load() == 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		require.Error(t, err)
		assert.True(t, errors.Is(err, errForced))
	case <-time.After(5 * time.Second):
		t.Fatal("ServeWithFactory did not return")
	}
}

func TestBaseAdapter_BindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	b := NewBaseAdapter(BaseConfig{
		BindAddress: "127.0.0.1",
		Port:        ln.Addr().(*net.TCPAddr).Port,
	}, "TEST")
	assert.Error(t, b.ServeWithFactory(context.Background(), echoOnce{}))
	assert.Empty(t, b.GetListenerAddr())
}

func TestBaseAdapter_StopBeforeServe(t *testing.T) {
	b := NewBaseAdapter(BaseConfig{}, "TEST")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, b.Stop(ctx))
	assert.Equal(t, "TEST", b.Protocol())
}
