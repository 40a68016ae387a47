// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package tcp

import (
	"context"
	"errors"
	"net"
	"strconv"
	"sync"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/internal/streamio"
	"github.com/momentics/vee/ip"
)

// Server accepts TCP sessions.
type Server struct {
	env  streamio.Env
	mu   sync.Mutex
	port api.Port
	ln   net.Listener
}

var _ api.Server = (*Server)(nil)

// NewServer creates a server for port. Port 0 binds an ephemeral port,
// readable through Port after Open.
func NewServer(port api.Port, opts ...Option) *Server {
	return &Server{env: streamio.NewEnv("tcp-server", opts...), port: port}
}

// Open binds and starts listening.
func (s *Server) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return api.ErrAlreadyConnected
	}
	lc := net.ListenConfig{Control: streamio.ListenControl}
	addr := net.JoinHostPort(s.env.Host, strconv.Itoa(int(s.port)))
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.port = ip.FromAddr(ln.Addr()).Port
	s.env.Log.Info().Str("addr", ln.Addr().String()).Msg("listening")
	return nil
}

// Close stops listening. Pending accepts fail with api.ErrServerClosed.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	s.mu.Unlock()
	if ln == nil {
		return nil
	}
	s.env.Log.Info().Msg("closed")
	return ln.Close()
}

// Port returns the bound port.
func (s *Server) Port() api.Port {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *Server) listener() net.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ln
}

// Accept blocks until a connection arrives.
func (s *Server) Accept() (api.NetStream, error) {
	sess, err := s.accept()
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Server) accept() (*Session, error) {
	ln := s.listener()
	if ln == nil {
		return nil, api.ErrServerClosed
	}
	conn, err := ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, api.ErrServerClosed
		}
		return nil, err
	}
	sess := accepted(s.env, conn)
	s.env.Metrics.SessionAccepted()
	sess.Env.Log.Debug().Stringer("remote", sess.RemoteEndpoint()).Msg("accepted")
	return sess, nil
}

// AsyncAccept reports the next connection through cb.
func (s *Server) AsyncAccept(cb *api.AcceptDelegate) {
	streamio.AsyncAccept(s.env.Reactor, s.Accept, cb)
}
