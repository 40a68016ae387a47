//go:build linux
// +build linux

// File: internal/streamio/sockopt_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux socket tuning through golang.org/x/sys/unix.

package streamio

import (
	"fmt"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// TuneTCP disables Nagle's algorithm and enables quick ACKs on conn.
func TuneTCP(conn net.Conn) error {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return nil
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	err = raw.Control(func(fd uintptr) {
		if serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); serr != nil {
			return
		}
		serr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	})
	if err != nil {
		return err
	}
	if serr != nil {
		return fmt.Errorf("setsockopt: %w", serr)
	}
	return nil
}

// ListenControl sets SO_REUSEADDR so a restarted server can rebind at once.
func ListenControl(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
