// File: internal/streamio/streamio.go
// Package streamio holds the plumbing shared by the concrete transports:
// asynchronous read/write operations built on a sync stream, deadline
// handling and socket descriptor lookup.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package streamio

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/control"
	"github.com/momentics/vee/reactor"
)

// Offload starts work on its own goroutine and delivers the completion it
// returns on r, so blocking calls never hold a reactor worker. abort runs
// instead when r is closed before work starts or before the completion is
// delivered.
func Offload(r *reactor.Reactor, work func() (complete func()), abort func(error)) {
	r.Go(func() {
		go func() {
			r.Go(work(), abort)
		}()
	}, abort)
}

// AsyncReadSome posts a read of info.Buffer on s. cb, when non-nil, is invoked
// exactly once with info.
func AsyncReadSome(r *reactor.Reactor, m *control.Metrics, s api.SyncStream,
	info *api.AsyncInputInfo, cb *api.ReadDelegate, timeout time.Duration) {
	Offload(r, func() func() {
		n, err := s.ReadSome(info.Buffer, timeout)
		m.BytesRead(n)
		return func() {
			info.Result = result(n, err)
			if cb != nil {
				cb.Invoke(info)
			}
		}
	}, func(err error) {
		info.Result = api.IOResult{Err: err}
		if cb != nil {
			cb.Invoke(info)
		}
	})
}

// AsyncWriteSome posts a write of info.Payload() on s.
func AsyncWriteSome(r *reactor.Reactor, m *control.Metrics, s api.SyncStream,
	info *api.AsyncOutputInfo, cb *api.WriteDelegate, timeout time.Duration) {
	Offload(r, func() func() {
		n, err := s.WriteSome(info.Payload(), timeout)
		m.BytesWritten(n)
		return func() {
			info.Result = result(n, err)
			if cb != nil {
				cb.Invoke(info)
			}
		}
	}, func(err error) {
		info.Result = api.IOResult{Err: err}
		if cb != nil {
			cb.Invoke(info)
		}
	})
}

func result(n int, err error) api.IOResult {
	return api.IOResult{
		IsSuccess:        err == nil,
		EOF:              errors.Is(err, io.EOF),
		BytesTransferred: n,
		Err:              err,
	}
}

// Deadline converts a relative timeout into an absolute deadline; zero means none.
func Deadline(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}
	return time.Now().Add(timeout)
}

// MapError translates deadline expiry into api.ErrOperationTimeout and a
// closed connection into api.ErrTransportClosed, keeping the cause wrapped.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%s: %w: %w", op, api.ErrOperationTimeout, err)
	case errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%s: %w: %w", op, api.ErrTransportClosed, err)
	}
	return err
}

// FD returns the OS descriptor behind conn, or 0 if it has none.
func FD(conn any) uintptr {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0
	}
	var fd uintptr
	if err := raw.Control(func(s uintptr) { fd = s }); err != nil {
		return 0
	}
	return fd
}

// AsyncConnect runs s.Connect off the reactor and reports through cb.
func AsyncConnect(r *reactor.Reactor, s api.NetStream, addr string, port api.Port,
	cb *api.ConnectDelegate, timeout time.Duration) {
	Offload(r, func() func() {
		err := s.Connect(addr, port, timeout)
		return func() {
			info := &api.AsyncConnectInfo{IsSuccess: err == nil, Err: err}
			if err == nil {
				info.Session = s
			}
			if cb != nil {
				cb.Invoke(info)
			}
		}
	}, func(err error) {
		if cb != nil {
			cb.Invoke(&api.AsyncConnectInfo{Err: err})
		}
	})
}

// AsyncAccept runs accept off the reactor and reports through cb. A session
// nobody can receive is disconnected.
func AsyncAccept(r *reactor.Reactor, accept func() (api.NetStream, error), cb *api.AcceptDelegate) {
	var sess api.NetStream
	Offload(r, func() func() {
		var err error
		sess, err = accept()
		return func() {
			if cb == nil {
				if sess != nil {
					sess.Disconnect()
				}
				return
			}
			cb.Invoke(&api.AsyncAcceptInfo{IsSuccess: err == nil, Session: sess, Err: err})
		}
	}, func(err error) {
		if sess != nil {
			sess.Disconnect()
		}
		if cb != nil {
			cb.Invoke(&api.AsyncAcceptInfo{Err: err})
		}
	})
}
