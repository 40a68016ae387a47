// File: transport/rfc6455/session.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package rfc6455

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/internal/streamio"
	"github.com/momentics/vee/transport/tcp"
)

// HandshakeTimeout bounds the upgrade exchange on accepted connections.
const HandshakeTimeout = 5 * time.Second

// Session carries a byte stream over WebSocket binary frames. ReadSome
// returns frame payload bytes, keeping the remainder of a frame larger than
// the caller's buffer for the next call. Each WriteSome sends one frame.
type Session struct {
	*streamio.Base
	inner  *tcp.Session
	client bool
	path   string

	rmu     sync.Mutex
	br      *bufio.Reader
	pending []byte
	rerr    error // sticky read failure
	peerEOF bool

	wmu       sync.Mutex
	wbuf      []byte
	closeSent bool
}

var _ api.NetStream = (*Session)(nil)

// NewSession creates a disconnected client session.
func NewSession(opts ...Option) *Session {
	o := collect(opts)
	return wrap(tcp.NewSession(o.stream...), true, o.path)
}

func wrap(inner *tcp.Session, client bool, path string) *Session {
	s := &Session{Base: inner.Base, inner: inner, client: client, path: path}
	s.Bind(s)
	return s
}

// Connect dials addr:port and performs the upgrade. timeout covers both.
func (s *Session) Connect(addr string, port api.Port, timeout time.Duration) error {
	if s.Connected() {
		return api.ErrAlreadyConnected
	}
	start := time.Now()
	if err := s.inner.Connect(addr, port, timeout); err != nil {
		return err
	}
	if timeout > 0 {
		timeout -= time.Since(start)
		if timeout <= 0 {
			s.inner.Disconnect()
			return fmt.Errorf("connect: %w", api.ErrOperationTimeout)
		}
	}
	host := net.JoinHostPort(addr, strconv.Itoa(int(port)))
	if err := s.upgrade(timeout, func(br *bufio.Reader, w io.Writer) error {
		return clientHandshake(br, w, host, s.path)
	}); err != nil {
		s.inner.Disconnect()
		return err
	}
	s.Env.Log.Debug().Str("host", host).Msg("upgraded")
	return nil
}

// upgrade runs a handshake on the attached connection and keeps its
// reader, which may already hold the first frames.
func (s *Session) upgrade(timeout time.Duration, handshake func(*bufio.Reader, io.Writer) error) error {
	conn, err := s.Raw()
	if err != nil {
		return err
	}
	s.SetStatus(api.SessionConnecting)
	d := streamio.Deadline(timeout)
	conn.SetReadDeadline(d)
	conn.SetWriteDeadline(d)
	br := bufio.NewReader(conn)
	if err := handshake(br, conn); err != nil {
		return streamio.MapError("handshake", err)
	}
	conn.SetReadDeadline(time.Time{})
	conn.SetWriteDeadline(time.Time{})

	s.rmu.Lock()
	s.br, s.pending, s.rerr, s.peerEOF = br, nil, nil, false
	s.rmu.Unlock()
	s.wmu.Lock()
	s.closeSent = false
	s.wmu.Unlock()
	s.SetStatus(api.SessionActive)
	return nil
}

// AsyncConnect connects off the reactor and reports through cb.
func (s *Session) AsyncConnect(addr string, port api.Port, cb *api.ConnectDelegate, timeout time.Duration) {
	streamio.AsyncConnect(s.Env.Reactor, s, addr, port, cb, timeout)
}

// ReadSome returns payload bytes of the next data frame. Ping frames are
// answered with pong. A close frame is answered and reported as io.EOF.
func (s *Session) ReadSome(buf []byte, timeout time.Duration) (int, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	if len(s.pending) > 0 {
		n := copy(buf, s.pending)
		s.pending = s.pending[n:]
		return n, nil
	}
	if len(buf) == 0 {
		return 0, nil
	}
	switch {
	case s.rerr != nil:
		return 0, s.rerr
	case s.peerEOF:
		return 0, io.EOF
	}
	conn, err := s.Raw()
	if err != nil {
		return 0, err
	}
	if err := conn.SetReadDeadline(streamio.Deadline(timeout)); err != nil {
		return 0, streamio.MapError("read", err)
	}

	for {
		f, started, err := readFrame(s.br)
		if err != nil {
			err = streamio.MapError("read", err)
			if started {
				s.rerr = err
			}
			return 0, err
		}
		switch f.opcode {
		case opPing:
			if err := s.writeFrame(opPong, f.payload, timeout); err != nil {
				return 0, err
			}
		case opPong:
		case opClose:
			s.peerEOF = true
			code := uint16(closeNormal)
			if len(f.payload) >= 2 {
				code = uint16(f.payload[0])<<8 | uint16(f.payload[1])
			}
			s.Env.Log.Debug().Uint16("code", code).Msg("close frame received")
			s.writeFrame(opClose, closePayload(code), timeout)
			return 0, io.EOF
		case opContinuation, opText, opBinary:
			if len(f.payload) == 0 {
				continue
			}
			n := copy(buf, f.payload)
			s.pending = f.payload[n:]
			return n, nil
		default:
			s.rerr = fmt.Errorf("read: %w: opcode %#x", ErrProtocol, f.opcode)
			return 0, s.rerr
		}
	}
}

// WriteSome sends buf as one binary frame.
func (s *Session) WriteSome(buf []byte, timeout time.Duration) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	if err := s.writeFrame(opBinary, buf, timeout); err != nil {
		return 0, err
	}
	return len(buf), nil
}

func (s *Session) writeFrame(opcode byte, payload []byte, timeout time.Duration) error {
	conn, err := s.Raw()
	if err != nil {
		return err
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if s.closeSent {
		return fmt.Errorf("write: %w", api.ErrTransportClosed)
	}
	s.wbuf, err = appendFrame(s.wbuf[:0], opcode, payload, s.client)
	if err != nil {
		return err
	}
	if err := conn.SetWriteDeadline(streamio.Deadline(timeout)); err != nil {
		return streamio.MapError("write", err)
	}
	if _, err := conn.Write(s.wbuf); err != nil {
		return streamio.MapError("write", err)
	}
	if opcode == opClose {
		s.closeSent = true
	}
	return nil
}

// Disconnect sends a close frame when none was exchanged yet and closes
// the connection.
func (s *Session) Disconnect() error {
	if !s.Connected() {
		return api.ErrNotConnected
	}
	s.writeFrame(opClose, closePayload(closeNormal), time.Second)
	return s.inner.Disconnect()
}
