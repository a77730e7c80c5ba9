package tcpserver

import (
	"bufio"
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func startServer(t *testing.T, r Responder, opts ...Option) (*Server, context.CancelFunc, chan error) {
	t.Helper()
	srv := New("test", "127.0.0.1:0", r, testLogger(), opts...)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return srv, cancel, done
}

func dial(t *testing.T, srv *Server) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn, bufio.NewReader(conn)
}

func exchange(t *testing.T, conn net.Conn, r *bufio.Reader, frame string) string {
	t.Helper()
	_, err := conn.Write([]byte(frame))
	require.NoError(t, err)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return line
}

var upper = ResponderFunc(func(ctx context.Context, frame string) string {
	switch frame {
	case "boom":
		panic("boom")
	case "id":
		return ConnID(ctx)
	}
	return strings.ToUpper(frame)
})

func TestServerRepliesPerLine(t *testing.T) {
	srv, _, _ := startServer(t, upper)
	conn, r := dial(t, srv)

	assert.Equal(t, "HELLO\n", exchange(t, conn, r, "hello\n"))
	assert.Equal(t, "WORLD\n", exchange(t, conn, r, "world\r\n"))
	assert.Equal(t, "\n", exchange(t, conn, r, "\n"))
}

func TestServerSurvivesPanic(t *testing.T) {
	srv, _, _ := startServer(t, upper, WithErrorReply("ERR[PANIC]"))
	conn, r := dial(t, srv)

	assert.Equal(t, "ERR[PANIC]\n", exchange(t, conn, r, "boom\n"))
	assert.Equal(t, "STILL HERE\n", exchange(t, conn, r, "still here\n"))
}

func TestServerConnectionsAreIndependent(t *testing.T) {
	srv, _, _ := startServer(t, upper)
	c1, r1 := dial(t, srv)
	c2, r2 := dial(t, srv)

	id1 := exchange(t, c1, r1, "id\n")
	id2 := exchange(t, c2, r2, "id\n")
	assert.NotEqual(t, id1, id2)
	assert.Len(t, strings.TrimSpace(id1), 36)

	c1.Close()
	assert.Equal(t, "OK\n", exchange(t, c2, r2, "ok\n"))
}

func TestServerClosesIdleConnections(t *testing.T) {
	srv, _, _ := startServer(t, upper, WithIdleTimeout(50*time.Millisecond))
	_, r := dial(t, srv)

	_, err := r.ReadString('\n')
	assert.ErrorIs(t, err, io.EOF)
}

func TestServerStopsOnCancel(t *testing.T) {
	srv, cancel, done := startServer(t, upper)
	conn, r := dial(t, srv)
	assert.Equal(t, "A\n", exchange(t, conn, r, "a\n"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
		done <- err
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}

	_, err := r.ReadString('\n')
	assert.Error(t, err)
}
