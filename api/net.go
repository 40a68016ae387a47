// File: api/net.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Network stream and server contracts.

package api

import (
	"time"

	"github.com/momentics/vee/delegate"
	"github.com/momentics/vee/ip"
	"github.com/momentics/vee/lock"
)

// Port is a transport-layer port number.
type Port = ip.Port

// AsyncConnectInfo is delivered when an asynchronous connect finishes.
type AsyncConnectInfo struct {
	IsSuccess bool
	Session   NetStream
	Err       error
}

// AsyncAcceptInfo is delivered when an asynchronous accept finishes.
type AsyncAcceptInfo struct {
	IsSuccess bool
	Session   NetStream
	Err       error
}

// ConnectDelegate receives connect completions.
type ConnectDelegate = delegate.Delegate[*AsyncConnectInfo, int32]

// AcceptDelegate receives accept completions.
type AcceptDelegate = delegate.Delegate[*AsyncAcceptInfo, int32]

// NewConnectDelegate builds a connect completion delegate.
func NewConnectDelegate() *ConnectDelegate {
	return delegate.New[*AsyncConnectInfo, int32](lock.Blocking)
}

// NewAcceptDelegate builds an accept completion delegate.
func NewAcceptDelegate() *AcceptDelegate {
	return delegate.New[*AsyncAcceptInfo, int32](lock.Blocking)
}

// NetStream is a connection-oriented (or connected datagram) session.
type NetStream interface {
	IOStream

	// Connect dials addr:port. A zero timeout waits forever.
	Connect(addr string, port Port, timeout time.Duration) error
	// Disconnect closes the session. Outstanding operations complete with failure.
	Disconnect() error
	// AsyncConnect dials on a reactor goroutine and reports through cb.
	AsyncConnect(addr string, port Port, cb *ConnectDelegate, timeout time.Duration)
	// Native returns the OS socket descriptor, or 0 when not connected.
	Native() uintptr
	// ID identifies the session in logs.
	ID() string
	// RemoteEndpoint returns the peer address, or a cleared endpoint.
	RemoteEndpoint() ip.Endpoint
}

// Server accepts sessions on a port.
type Server interface {
	Open() error
	Close() error
	// Accept blocks until a session is established.
	Accept() (NetStream, error)
	// AsyncAccept reports the next established session through cb.
	AsyncAccept(cb *AcceptDelegate)
	// Port returns the bound port, which is only known after Open when 0 was requested.
	Port() Port
}
