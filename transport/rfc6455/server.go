// File: transport/rfc6455/server.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rfc6455

import (
	"bufio"
	"io"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/internal/streamio"
	"github.com/momentics/vee/transport/tcp"
)

// Server accepts TCP connections and upgrades them.
type Server struct {
	*tcp.Server
	env streamio.Env
}

var _ api.Server = (*Server)(nil)

// NewServer creates a server for port.
func NewServer(port api.Port, opts ...Option) *Server {
	o := collect(opts)
	return &Server{
		Server: tcp.NewServer(port, o.stream...),
		env:    streamio.NewEnv("ws-server", o.stream...),
	}
}

// Accept waits for a connection and completes its upgrade. A failed
// upgrade closes that connection and returns an error wrapping
// api.ErrHandshakeFailed; the server keeps listening.
func (s *Server) Accept() (api.NetStream, error) {
	conn, err := s.Server.Accept()
	if err != nil {
		return nil, err
	}
	sess := wrap(conn.(*tcp.Session), false, "")
	if err := sess.upgrade(HandshakeTimeout, func(br *bufio.Reader, w io.Writer) error {
		return serverHandshake(br, w)
	}); err != nil {
		s.env.Log.Warn().Err(err).Stringer("remote", sess.RemoteEndpoint()).Msg("upgrade rejected")
		sess.inner.Disconnect()
		return nil, err
	}
	return sess, nil
}

// AsyncAccept reports the next upgraded session through cb.
func (s *Server) AsyncAccept(cb *api.AcceptDelegate) {
	streamio.AsyncAccept(s.env.Reactor, s.Accept, cb)
}
