// File: api/stream.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stream hierarchy and the completion records of asynchronous I/O.

package api

import (
	"time"

	"github.com/momentics/vee/delegate"
	"github.com/momentics/vee/lock"
)

// IOResult is the outcome of one read or write.
type IOResult struct {
	IsSuccess        bool
	EOF              bool
	BytesTransferred int
	Err              error
}

// AsyncInputInfo describes an outstanding read. The reader fills Buffer up to
// len(Buffer) and records the outcome in Result.
type AsyncInputInfo struct {
	Result IOResult
	Buffer []byte
}

// AsyncOutputInfo describes an outstanding write of Buffer[:RequestedSize].
// A zero RequestedSize writes the whole buffer.
type AsyncOutputInfo struct {
	Result        IOResult
	Buffer        []byte
	RequestedSize int
}

// Payload returns the bytes the write should send.
func (o *AsyncOutputInfo) Payload() []byte {
	if o.RequestedSize <= 0 || o.RequestedSize > len(o.Buffer) {
		return o.Buffer
	}
	return o.Buffer[:o.RequestedSize]
}

// ReadDelegate receives read completions.
type ReadDelegate = delegate.Delegate[*AsyncInputInfo, int32]

// WriteDelegate receives write completions.
type WriteDelegate = delegate.Delegate[*AsyncOutputInfo, int32]

// NewReadDelegate builds a read completion delegate. Read and write
// completions are short, so they use the spin policy.
func NewReadDelegate() *ReadDelegate {
	return delegate.New[*AsyncInputInfo, int32](lock.Spin)
}

// NewWriteDelegate builds a write completion delegate.
func NewWriteDelegate() *WriteDelegate {
	return delegate.New[*AsyncOutputInfo, int32](lock.Spin)
}

// SyncStream performs blocking reads and writes. A zero timeout waits forever.
type SyncStream interface {
	// WriteSome writes at most len(buf) bytes and returns the count written.
	WriteSome(buf []byte, timeout time.Duration) (int, error)
	// ReadSome reads at most len(buf) bytes. End of stream is io.EOF.
	ReadSome(buf []byte, timeout time.Duration) (int, error)
}

// AsyncStream starts reads and writes whose completion is delivered to a
// delegate exactly once, from a reactor goroutine.
type AsyncStream interface {
	AsyncReadSome(info *AsyncInputInfo, cb *ReadDelegate, timeout time.Duration)
	AsyncWriteSome(info *AsyncOutputInfo, cb *WriteDelegate, timeout time.Duration)
}

// IOStream is a stream supporting both styles.
type IOStream interface {
	SyncStream
	AsyncStream
}
