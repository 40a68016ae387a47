package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/control"
	"github.com/momentics/vee/reactor"
	"github.com/momentics/vee/transport/rfc6455"
	"github.com/momentics/vee/transport/tcp"
)

func startEcho(t *testing.T, mode string) (*echoServer, api.Port, *reactor.Reactor) {
	t.Helper()
	r := reactor.New(reactor.Config{Workers: 2})
	t.Cleanup(func() { r.Close() })

	cfg := control.DefaultConfig()
	cfg.Server.Mode = mode
	cfg.Server.Port = 0
	srv, err := newServer(cfg, r, control.NewMetrics(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, srv.Open())

	es, err := newEchoServer(srv, 64, time.Second, zerolog.Nop())
	require.NoError(t, err)
	es.start()
	t.Cleanup(es.stop)
	return es, srv.Port(), r
}

func roundTrip(t *testing.T, s api.NetStream, msg string) {
	t.Helper()
	require.NoError(t, writeAll(s, []byte(msg), time.Second))
	buf := make([]byte, len(msg))
	got := 0
	for got < len(msg) {
		n, err := s.ReadSome(buf[got:], time.Second)
		require.NoError(t, err)
		got += n
	}
	assert.Equal(t, msg, string(buf))
}

func TestEchoTCP(t *testing.T) {
	es, port, r := startEcho(t, "tcp")

	s := tcp.NewSession(tcp.WithReactor(r))
	require.NoError(t, s.Connect("127.0.0.1", port, time.Second))
	roundTrip(t, s, "first")
	roundTrip(t, s, "a message longer than the sixty-four byte read buffer of the echo server")
	assert.Equal(t, 1, es.count())

	require.NoError(t, s.Disconnect())
	assert.Eventually(t, func() bool { return es.count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestEchoWebSocket(t *testing.T) {
	es, port, r := startEcho(t, "ws")

	s := rfc6455.NewSession(rfc6455.WithReactor(r))
	require.NoError(t, s.Connect("127.0.0.1", port, time.Second))
	defer s.Disconnect()
	roundTrip(t, s, "over websocket")
	assert.Equal(t, 1, es.count())
}

func TestStopDisconnectsSessions(t *testing.T) {
	es, port, r := startEcho(t, "tcp")

	s := tcp.NewSession(tcp.WithReactor(r))
	require.NoError(t, s.Connect("127.0.0.1", port, time.Second))
	defer s.Disconnect()
	roundTrip(t, s, "x")

	es.stop()
	assert.Zero(t, es.count())
	_, err := s.ReadSome(make([]byte, 1), time.Second)
	assert.Error(t, err)
}

// stubServer completes every AsyncAccept at once with a fresh session.
type stubServer struct {
	closed chan struct{}
}

func (s *stubServer) Open() error { return nil }
func (s *stubServer) Close() error { close(s.closed); return nil }
func (s *stubServer) Accept() (api.NetStream, error) { return tcp.NewSession(), nil }
func (s *stubServer) Port() api.Port { return 0 }

func (s *stubServer) AsyncAccept(cb *api.AcceptDelegate) {
	select {
	case <-s.closed:
		cb.Invoke(&api.AsyncAcceptInfo{Err: api.ErrServerClosed})
	default:
		sess, _ := s.Accept()
		cb.Invoke(&api.AsyncAcceptInfo{IsSuccess: true, Session: sess})
	}
}

func TestAcceptDuringStopDrains(t *testing.T) {
	es, err := newEchoServer(&stubServer{closed: make(chan struct{})}, 16, time.Second, zerolog.Nop())
	require.NoError(t, err)

	// a session accepted after stop began is released and ends the chain
	es.stopped.Store(true)
	es.start()
	select {
	case <-es.done:
	case <-time.After(time.Second):
		t.Fatal("accept chain not drained")
	}
	assert.Zero(t, es.count())

	start := time.Now()
	es.stop()
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunSend(t *testing.T) {
	_, port, _ := startEcho(t, "tcp")

	var out bytes.Buffer
	err := run(context.Background(), []string{
		"--port", strconv.Itoa(int(port)), "--workers", "1", "--log-format", "json", "--log-level", "error",
		"send", "hello", "there",
	}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hello there\n", out.String())
}

func TestRunErrors(t *testing.T) {
	var out bytes.Buffer
	assert.Error(t, run(context.Background(), nil, &out))
	assert.Error(t, run(context.Background(), []string{"bogus"}, &out))
	assert.Error(t, run(context.Background(), []string{"send"}, &out))
	assert.Error(t, run(context.Background(), []string{"--mode", "sctp", "serve"}, &out))
	assert.Error(t, run(context.Background(), []string{"--log-level", "loud", "serve"}, &out))
	assert.ErrorIs(t, run(context.Background(), []string{"--mode", "udp", "serve"}, &out), api.ErrNotSupported)
}

func TestFlagsOverlayConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vee.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
mode = "ws"
port = 1234
io_timeout = "2s"

[log]
level = "debug"
`), 0o600))

	f, err := parseFlags([]string{"-c", path, "-p", "5555", "serve"})
	require.NoError(t, err)
	cfg, err := f.load()
	require.NoError(t, err)
	assert.Equal(t, "ws", cfg.Server.Mode)
	assert.Equal(t, uint16(5555), cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Server.IOTimeout.Duration)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"serve"}, f.fs.Args())
}
