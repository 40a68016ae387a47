//go:build !linux
// +build !linux

// File: internal/streamio/sockopt_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streamio

import (
	"net"
	"syscall"
)

// TuneTCP disables Nagle's algorithm on conn.
func TuneTCP(conn net.Conn) error {
	if tc, ok := conn.(*net.TCPConn); ok {
		return tc.SetNoDelay(true)
	}
	return nil
}

// ListenControl leaves listener sockets at the platform defaults.
func ListenControl(network, address string, c syscall.RawConn) error {
	return nil
}
