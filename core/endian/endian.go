// File: core/endian/endian.go
// Package endian implements fixed-width N-byte unsigned integers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Wire formats often carry 3-, 5- or 6-byte integers that have no native Go
// type. Uint stores such a value in exactly N bytes with an explicit byte order.

package endian

import (
	"encoding/binary"
	"fmt"
)

// Uint is an N-byte unsigned integer, 1 <= N <= 8.
type Uint struct {
	order binary.ByteOrder
	data  []byte
}

// New allocates a zero Uint of size bytes in the given order.
func New(size int, order binary.ByteOrder) (Uint, error) {
	if size < 1 || size > 8 {
		return Uint{}, fmt.Errorf("endian: size %d out of range [1,8]", size)
	}
	return Uint{order: order, data: make([]byte, size)}, nil
}

// FromBytes wraps a copy of b.
func FromBytes(b []byte, order binary.ByteOrder) (Uint, error) {
	u, err := New(len(b), order)
	if err != nil {
		return Uint{}, err
	}
	copy(u.data, b)
	return u, nil
}

// Size returns N.
func (u Uint) Size() int { return len(u.data) }

// Bytes returns the wire representation.
func (u Uint) Bytes() []byte { return u.data }

// Put stores v, dropping the bytes that do not fit.
func (u Uint) Put(v uint64) {
	var full [8]byte
	switch u.order {
	case binary.BigEndian:
		binary.BigEndian.PutUint64(full[:], v)
		copy(u.data, full[8-len(u.data):])
	default:
		binary.LittleEndian.PutUint64(full[:], v)
		copy(u.data, full[:len(u.data)])
	}
}

// Get widens the stored value to uint64.
func (u Uint) Get() uint64 {
	var full [8]byte
	switch u.order {
	case binary.BigEndian:
		copy(full[8-len(u.data):], u.data)
		return binary.BigEndian.Uint64(full[:])
	default:
		copy(full[:], u.data)
		return binary.LittleEndian.Uint64(full[:])
	}
}

// Max is the largest value representable in u.
func (u Uint) Max() uint64 {
	if len(u.data) == 8 {
		return ^uint64(0)
	}
	return 1<<(8*uint(len(u.data))) - 1
}
