// File: internal/streamio/base.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Base is the connection state shared by every concrete session.

package streamio

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/ip"
)

// Base owns a net.Conn and implements the parts of api.NetStream that do not
// depend on how the connection was made. Embedders that frame their data
// call Bind so the asynchronous operations go through their own ReadSome and
// WriteSome.
type Base struct {
	Env Env

	id     string
	mu     sync.RWMutex
	conn   Conn
	status atomic.Int32
	self   api.SyncStream
}

// Conn is the subset of net.Conn a Base needs.
type Conn interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

// NewBase creates a disconnected base with a fresh session id.
func NewBase(env Env) *Base {
	b := &Base{Env: env, id: uuid.NewString()}
	b.self = b
	b.Env.Log = b.Env.Log.With().Str("session", b.id).Logger()
	return b
}

// Bind routes asynchronous operations through self.
func (b *Base) Bind(self api.SyncStream) {
	b.self = self
}

// Attach installs an established connection.
func (b *Base) Attach(conn Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn != nil {
		return api.ErrAlreadyConnected
	}
	b.conn = conn
	b.status.Store(int32(api.SessionActive))
	return nil
}

// Connected reports whether a connection is attached.
func (b *Base) Connected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conn != nil
}

// Raw returns the attached connection or api.ErrNotConnected.
func (b *Base) Raw() (Conn, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.conn == nil {
		return nil, api.ErrNotConnected
	}
	return b.conn, nil
}

// SetStatus records a lifecycle transition.
func (b *Base) SetStatus(s api.SessionStatus) {
	b.status.Store(int32(s))
}

// Status returns the current lifecycle state.
func (b *Base) Status() api.SessionStatus {
	return api.SessionStatus(b.status.Load())
}

// ReadSome reads from the raw connection.
func (b *Base) ReadSome(buf []byte, timeout time.Duration) (int, error) {
	conn, err := b.Raw()
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, nil
	}
	if err := conn.SetReadDeadline(Deadline(timeout)); err != nil {
		return 0, MapError("read", err)
	}
	n, err := conn.Read(buf)
	if n > 0 {
		return n, nil
	}
	return 0, MapError("read", err)
}

// WriteSome writes to the raw connection.
func (b *Base) WriteSome(buf []byte, timeout time.Duration) (int, error) {
	conn, err := b.Raw()
	if err != nil {
		return 0, err
	}
	if err := conn.SetWriteDeadline(Deadline(timeout)); err != nil {
		return 0, MapError("write", err)
	}
	n, err := conn.Write(buf)
	return n, MapError("write", err)
}

// AsyncReadSome reads through the bound stream on the reactor.
func (b *Base) AsyncReadSome(info *api.AsyncInputInfo, cb *api.ReadDelegate, timeout time.Duration) {
	AsyncReadSome(b.Env.Reactor, b.Env.Metrics, b.self, info, cb, timeout)
}

// AsyncWriteSome writes through the bound stream on the reactor.
func (b *Base) AsyncWriteSome(info *api.AsyncOutputInfo, cb *api.WriteDelegate, timeout time.Duration) {
	AsyncWriteSome(b.Env.Reactor, b.Env.Metrics, b.self, info, cb, timeout)
}

// Disconnect closes the connection. Reads and writes blocked on it return
// api.ErrTransportClosed.
func (b *Base) Disconnect() error {
	b.mu.Lock()
	conn := b.conn
	b.conn = nil
	b.mu.Unlock()
	if conn == nil {
		return api.ErrNotConnected
	}
	b.SetStatus(api.SessionClosing)
	err := conn.Close()
	b.SetStatus(api.SessionClosed)
	b.Env.Log.Debug().Err(err).Msg("disconnected")
	return err
}

// Native returns the OS descriptor of the connection.
func (b *Base) Native() uintptr {
	conn, err := b.Raw()
	if err != nil {
		return 0
	}
	return FD(conn)
}

// ID returns the session id.
func (b *Base) ID() string {
	return b.id
}

// RemoteEndpoint returns the peer address.
func (b *Base) RemoteEndpoint() ip.Endpoint {
	conn, err := b.Raw()
	if err != nil {
		var e ip.Endpoint
		e.Clear()
		return e
	}
	return ip.FromAddr(conn.RemoteAddr())
}
