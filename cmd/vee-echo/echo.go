// File: cmd/vee-echo/echo.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Echo service built from chained completion delegates:
// accept -> read -> write -> read ...

package main

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/internal/session"
)

type echoServer struct {
	srv      api.Server
	log      zerolog.Logger
	bufSize  int
	timeout  atomic.Int64 // time.Duration
	onAccept *api.AcceptDelegate

	sessions *session.Registry[*echoConn]
	stopped  atomic.Bool
	done     chan struct{}
	doneOnce sync.Once
}

func newEchoServer(srv api.Server, bufSize int, timeout time.Duration, log zerolog.Logger) (*echoServer, error) {
	es := &echoServer{
		srv:      srv,
		log:      log,
		bufSize:  bufSize,
		onAccept: api.NewAcceptDelegate(),
		sessions: session.NewRegistry[*echoConn](0),
		done:     make(chan struct{}),
	}
	es.timeout.Store(int64(timeout))
	if err := es.onAccept.AddKeyed(0, es.accepted); err != nil {
		return nil, fmt.Errorf("echo: register accept handler: %w", err)
	}
	return es, nil
}

// start arms the first accept. Each completion re-arms the next one until
// the server is closed.
func (es *echoServer) start() {
	es.srv.AsyncAccept(es.onAccept)
}

func (es *echoServer) setTimeout(d time.Duration) {
	es.timeout.Store(int64(d))
}

func (es *echoServer) ioTimeout() time.Duration {
	return time.Duration(es.timeout.Load())
}

// drained marks the accept chain as finished.
func (es *echoServer) drained() {
	es.doneOnce.Do(func() { close(es.done) })
}

func (es *echoServer) accepted(info *api.AsyncAcceptInfo) {
	if !info.IsSuccess {
		if errors.Is(info.Err, api.ErrServerClosed) || errors.Is(info.Err, api.ErrReactorClosed) {
			es.drained()
			return
		}
		es.log.Warn().Err(info.Err).Msg("accept failed")
		es.start()
		return
	}

	c, err := newEchoConn(es, info.Session)
	if err != nil {
		es.log.Error().Err(err).Msg("session setup failed")
		info.Session.Disconnect()
		es.start()
		return
	}
	es.sessions.Add(c)
	if es.stopped.Load() {
		// accepted while stopping; the listener is closed so nothing follows
		es.release(c, nil)
		es.drained()
		return
	}

	es.log.Info().Str("session", c.ID()).Stringer("remote", c.s.RemoteEndpoint()).
		Int("sessions", es.sessions.Len()).Msg("client connected")
	c.read()
	es.start()
}

func (es *echoServer) release(c *echoConn, reason error) {
	if _, live := es.sessions.Remove(c.ID()); !live {
		return
	}
	c.s.Disconnect()
	ev := es.log.Info()
	if reason != nil && !c.eof {
		ev = es.log.Warn().Err(reason)
	}
	ev.Str("session", c.ID()).Msg("client disconnected")
}

// stop closes the listener and every live session, then waits for the
// pending accept to drain.
func (es *echoServer) stop() {
	es.stopped.Store(true)
	es.srv.Close()
	for _, c := range es.sessions.Snapshot() {
		es.release(c, nil)
	}
	select {
	case <-es.done:
	case <-time.After(5 * time.Second):
		es.log.Warn().Msg("accept did not drain")
	}
}

func (es *echoServer) count() int {
	return es.sessions.Len()
}

// echoConn owns the buffers of one session. Only one operation is in
// flight at a time, so the info records are reused.
type echoConn struct {
	es      *echoServer
	s       api.NetStream
	in      api.AsyncInputInfo
	out     api.AsyncOutputInfo
	onRead  *api.ReadDelegate
	onWrite *api.WriteDelegate
	eof     bool
}

func newEchoConn(es *echoServer, s api.NetStream) (*echoConn, error) {
	c := &echoConn{
		es:      es,
		s:       s,
		in:      api.AsyncInputInfo{Buffer: make([]byte, es.bufSize)},
		onRead:  api.NewReadDelegate(),
		onWrite: api.NewWriteDelegate(),
	}
	if err := c.onRead.AddKeyed(0, c.readDone); err != nil {
		return nil, fmt.Errorf("echo: register read handler: %w", err)
	}
	if err := c.onWrite.AddKeyed(0, c.writeDone); err != nil {
		return nil, fmt.Errorf("echo: register write handler: %w", err)
	}
	return c, nil
}

func (c *echoConn) ID() string { return c.s.ID() }

func (c *echoConn) read() {
	c.s.AsyncReadSome(&c.in, c.onRead, c.es.ioTimeout())
}

func (c *echoConn) readDone(info *api.AsyncInputInfo) {
	if !info.Result.IsSuccess {
		c.eof = info.Result.EOF
		c.es.release(c, info.Result.Err)
		return
	}
	n := info.Result.BytesTransferred
	if n == 0 {
		c.read()
		return
	}
	c.out = api.AsyncOutputInfo{Buffer: info.Buffer[:n], RequestedSize: n}
	c.s.AsyncWriteSome(&c.out, c.onWrite, c.es.ioTimeout())
}

func (c *echoConn) writeDone(info *api.AsyncOutputInfo) {
	if !info.Result.IsSuccess {
		c.es.release(c, info.Result.Err)
		return
	}
	if rest := info.RequestedSize - info.Result.BytesTransferred; rest > 0 {
		c.out = api.AsyncOutputInfo{Buffer: info.Payload()[info.Result.BytesTransferred:], RequestedSize: rest}
		c.s.AsyncWriteSome(&c.out, c.onWrite, c.es.ioTimeout())
		return
	}
	c.read()
}
