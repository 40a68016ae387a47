// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types for the stream and transport layers.

package api

import "fmt"

// Common errors used across the library.
var (
	ErrTransportClosed  = fmt.Errorf("transport is closed")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrOperationTimeout = fmt.Errorf("operation timeout")
	ErrNotSupported     = fmt.Errorf("operation not supported")
	ErrNotConnected     = fmt.Errorf("stream is not connected")
	ErrAlreadyConnected = fmt.Errorf("stream is already connected")
	ErrReactorClosed    = fmt.Errorf("reactor is closed")
	ErrServerClosed     = fmt.Errorf("server is closed")
	ErrHandshakeFailed  = fmt.Errorf("handshake failed")
)
