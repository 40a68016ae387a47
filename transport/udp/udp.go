// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package udp implements api.NetStream over a connected UDP socket.
// Each WriteSome sends one datagram and each ReadSome receives one; a
// datagram larger than the read buffer is truncated by the OS.
package udp

import (
	"net"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/control"
	"github.com/momentics/vee/internal/streamio"
	"github.com/momentics/vee/reactor"
)

// Option configures a Stream.
type Option = streamio.Option

func WithReactor(r *reactor.Reactor) Option { return streamio.WithReactor(r) }
func WithMetrics(m *control.Metrics) Option { return streamio.WithMetrics(m) }
func WithLogger(log zerolog.Logger) Option  { return streamio.WithLogger(log) }

// Stream is a connected datagram session.
type Stream struct {
	*streamio.Base
}

var _ api.NetStream = (*Stream)(nil)

// NewStream creates an unconnected stream.
func NewStream(opts ...Option) *Stream {
	return &Stream{Base: streamio.NewBase(streamio.NewEnv("udp", opts...))}
}

// Connect fixes the peer address. No packet is exchanged, so an absent
// peer surfaces on the first read or write.
func (s *Stream) Connect(addr string, port api.Port, timeout time.Duration) error {
	if s.Connected() {
		return api.ErrAlreadyConnected
	}
	s.SetStatus(api.SessionConnecting)
	d := net.Dialer{Timeout: timeout}
	conn, err := d.Dial("udp", net.JoinHostPort(addr, strconv.Itoa(int(port))))
	if err != nil {
		s.SetStatus(api.SessionClosed)
		return streamio.MapError("connect", err)
	}
	if err := s.Attach(conn); err != nil {
		conn.Close()
		return err
	}
	s.Env.Metrics.SessionConnected()
	s.Env.Log.Debug().Stringer("remote", s.RemoteEndpoint()).Msg("connected")
	return nil
}

// AsyncConnect connects off the reactor and reports through cb.
func (s *Stream) AsyncConnect(addr string, port api.Port, cb *api.ConnectDelegate, timeout time.Duration) {
	streamio.AsyncConnect(s.Env.Reactor, s, addr, port, cb, timeout)
}
