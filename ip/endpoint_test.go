package ip_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/ip"
)

func TestEndpoint_SetClear(t *testing.T) {
	e := ip.New("127.0.0.1", 8080)
	assert.Equal(t, "127.0.0.1:8080", e.String())

	copied := e
	e.Set("10.0.0.1", 9)
	assert.Equal(t, "127.0.0.1", copied.IP, "endpoints are values")

	e.Clear()
	assert.Equal(t, "null", e.IP)
	assert.Equal(t, ip.Port(0), e.Port)
	assert.True(t, e.IsNull())
}

func TestParse(t *testing.T) {
	e, err := ip.Parse("[::1]:443")
	require.NoError(t, err)
	assert.Equal(t, ip.New("::1", 443), e)
	assert.Equal(t, "[::1]:443", e.String())

	_, err = ip.Parse("localhost")
	assert.Error(t, err)
	_, err = ip.Parse("localhost:99999")
	assert.Error(t, err)
}

func TestFromAddr(t *testing.T) {
	e := ip.FromAddr(&net.TCPAddr{IP: net.IPv4(192, 168, 1, 2), Port: 7})
	assert.Equal(t, ip.New("192.168.1.2", 7), e)
	assert.True(t, ip.FromAddr(nil).IsNull())
}
