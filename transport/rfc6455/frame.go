// File: transport/rfc6455/frame.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Streaming frame codec with payload size enforcement.

package rfc6455

import (
	"bufio"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/momentics/vee/core/endian"
)

const (
	opContinuation = 0x0
	opText         = 0x1
	opBinary       = 0x2
	opClose        = 0x8
	opPing         = 0x9
	opPong         = 0xA

	finBit  = 0x80
	maskBit = 0x80

	maxControlPayload = 125

	closeNormal = 1000
)

// MaxFramePayload bounds a single incoming frame.
const MaxFramePayload = 1 << 20

var (
	// ErrFrameTooLarge indicates an incoming frame announced more than MaxFramePayload bytes.
	ErrFrameTooLarge = errors.New("rfc6455: frame payload exceeds limit")

	// ErrProtocol indicates a frame that violates RFC 6455 framing rules.
	ErrProtocol = errors.New("rfc6455: protocol error")
)

type frame struct {
	fin     bool
	opcode  byte
	payload []byte
}

func (f frame) control() bool { return f.opcode&0x8 != 0 }

// readFrame decodes one frame from br and unmasks its payload. started
// reports whether any byte of the frame was consumed, which leaves br
// mid-frame when err is non-nil.
func readFrame(br *bufio.Reader) (f frame, started bool, err error) {
	var hdr [2]byte
	if hdr[0], err = br.ReadByte(); err != nil {
		return f, false, err
	}
	started = true
	if hdr[1], err = br.ReadByte(); err != nil {
		return f, started, unexpected(err)
	}
	f.fin = hdr[0]&finBit != 0
	f.opcode = hdr[0] & 0x0F
	if hdr[0]&0x70 != 0 {
		return f, started, fmt.Errorf("%w: reserved bits set", ErrProtocol)
	}
	masked := hdr[1]&maskBit != 0
	length := uint64(hdr[1] & 0x7F)

	switch length {
	case 126, 127:
		ext := make([]byte, 2)
		if length == 127 {
			ext = make([]byte, 8)
		}
		if _, err = io.ReadFull(br, ext); err != nil {
			return f, started, unexpected(err)
		}
		u, _ := endian.FromBytes(ext, binary.BigEndian)
		length = u.Get()
	}
	if f.control() && (length > maxControlPayload || !f.fin) {
		return f, started, fmt.Errorf("%w: bad control frame", ErrProtocol)
	}
	if length > MaxFramePayload {
		return f, started, ErrFrameTooLarge
	}

	var key [4]byte
	if masked {
		if _, err = io.ReadFull(br, key[:]); err != nil {
			return f, started, unexpected(err)
		}
	}
	f.payload = make([]byte, length)
	if _, err = io.ReadFull(br, f.payload); err != nil {
		return f, started, unexpected(err)
	}
	if masked {
		maskBytes(key, f.payload)
	}
	return f, started, nil
}

func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// appendFrame encodes a final frame carrying payload. Client frames are
// masked with a fresh key; payload itself is left untouched.
func appendFrame(dst []byte, opcode byte, payload []byte, mask bool) ([]byte, error) {
	dst = append(dst, finBit|opcode&0x0F)
	var mb byte
	if mask {
		mb = maskBit
	}
	n := len(payload)
	switch {
	case n <= 125:
		dst = append(dst, mb|byte(n))
	case n <= 0xFFFF:
		u, _ := endian.New(2, binary.BigEndian)
		u.Put(uint64(n))
		dst = append(append(dst, mb|126), u.Bytes()...)
	default:
		u, _ := endian.New(8, binary.BigEndian)
		u.Put(uint64(n))
		dst = append(append(dst, mb|127), u.Bytes()...)
	}
	if !mask {
		return append(dst, payload...), nil
	}
	var key [4]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, err
	}
	dst = append(dst, key[:]...)
	start := len(dst)
	dst = append(dst, payload...)
	maskBytes(key, dst[start:])
	return dst, nil
}

func maskBytes(key [4]byte, b []byte) {
	for i := range b {
		b[i] ^= key[i&3]
	}
}

func closePayload(code uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, code)
	return b
}
