// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"net"
	"strconv"
	"time"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/internal/streamio"
)

// Session is a TCP connection.
type Session struct {
	*streamio.Base
}

var _ api.NetStream = (*Session)(nil)

// NewSession creates a disconnected session.
func NewSession(opts ...Option) *Session {
	return &Session{Base: streamio.NewBase(streamio.NewEnv("tcp", opts...))}
}

func accepted(env streamio.Env, conn net.Conn) *Session {
	s := &Session{Base: streamio.NewBase(env)}
	tune(s.Base, conn)
	_ = s.Attach(conn)
	return s
}

func tune(b *streamio.Base, conn net.Conn) {
	if err := streamio.TuneTCP(conn); err != nil {
		b.Env.Log.Warn().Err(err).Msg("socket tuning failed")
	}
}

// Connect dials addr:port. A zero timeout waits for the OS connect timeout.
func (s *Session) Connect(addr string, port api.Port, timeout time.Duration) error {
	if s.Connected() {
		return api.ErrAlreadyConnected
	}
	s.SetStatus(api.SessionConnecting)
	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("tcp", net.JoinHostPort(addr, strconv.Itoa(int(port))))
	if err != nil {
		s.SetStatus(api.SessionClosed)
		s.Env.Log.Debug().Err(err).Str("addr", addr).Uint16("port", port).Msg("connect failed")
		return streamio.MapError("connect", err)
	}
	tune(s.Base, conn)
	if err := s.Attach(conn); err != nil {
		conn.Close()
		return err
	}
	s.Env.Metrics.SessionConnected()
	s.Env.Log.Debug().Stringer("remote", s.RemoteEndpoint()).Msg("connected")
	return nil
}

// AsyncConnect dials off the reactor and reports through cb. The info
// carries the session only on success.
func (s *Session) AsyncConnect(addr string, port api.Port, cb *api.ConnectDelegate, timeout time.Duration) {
	streamio.AsyncConnect(s.Env.Reactor, s, addr, port, cb, timeout)
}
