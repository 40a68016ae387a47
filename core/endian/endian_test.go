package endian_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/core/endian"
)

func TestUint_LittleEndian(t *testing.T) {
	u, err := endian.New(3, binary.LittleEndian)
	require.NoError(t, err)
	u.Put(0x123456)
	assert.Equal(t, []byte{0x56, 0x34, 0x12}, u.Bytes())
	assert.Equal(t, uint64(0x123456), u.Get())
}

func TestUint_BigEndian(t *testing.T) {
	u, err := endian.New(6, binary.BigEndian)
	require.NoError(t, err)
	u.Put(0x0102030405)
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}, u.Bytes())
	assert.Equal(t, uint64(0x0102030405), u.Get())
}

func TestUint_Truncates(t *testing.T) {
	u, err := endian.New(2, binary.LittleEndian)
	require.NoError(t, err)
	u.Put(0x1FFFF)
	assert.Equal(t, uint64(0xFFFF), u.Get())
	assert.Equal(t, uint64(0xFFFF), u.Max())
}

func TestUint_FromBytesAndRange(t *testing.T) {
	u, err := endian.FromBytes([]byte{1, 0, 0, 0, 0, 0, 0, 0}, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.Get())
	assert.Equal(t, ^uint64(0), u.Max())

	_, err = endian.New(0, binary.LittleEndian)
	assert.Error(t, err)
	_, err = endian.New(9, binary.BigEndian)
	assert.Error(t, err)
}
