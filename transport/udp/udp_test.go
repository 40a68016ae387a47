package udp_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/vee/api"
	"github.com/momentics/vee/ip"
	"github.com/momentics/vee/reactor"
	"github.com/momentics/vee/transport/udp"
)

func listen(t *testing.T) (net.PacketConn, ip.Endpoint) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { pc.Close() })
	return pc, ip.FromAddr(pc.LocalAddr())
}

func TestDatagramRoundTrip(t *testing.T) {
	pc, ep := listen(t)

	s := udp.NewStream()
	require.NoError(t, s.Connect(ep.IP, ep.Port, time.Second))
	defer s.Disconnect()
	assert.NotZero(t, s.Native())
	assert.Equal(t, ep, s.RemoteEndpoint())

	n, err := s.WriteSome([]byte("one"), time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	buf := make([]byte, 16)
	require.NoError(t, pc.SetReadDeadline(time.Now().Add(time.Second)))
	n, from, err := pc.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, "one", string(buf[:n]))

	_, err = pc.WriteTo([]byte("two"), from)
	require.NoError(t, err)
	n, err = s.ReadSome(buf, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "two", string(buf[:n]))
}

func TestReadTimeout(t *testing.T) {
	_, ep := listen(t)
	s := udp.NewStream()
	require.NoError(t, s.Connect(ep.IP, ep.Port, time.Second))
	defer s.Disconnect()

	_, err := s.ReadSome(make([]byte, 8), 30*time.Millisecond)
	assert.ErrorIs(t, err, api.ErrOperationTimeout)
}

func TestAsyncConnectAndRead(t *testing.T) {
	r := reactor.New(reactor.Config{Workers: 1})
	defer r.Close()
	pc, ep := listen(t)

	connected := make(chan *api.AsyncConnectInfo, 1)
	onConnect := api.NewConnectDelegate()
	require.NoError(t, onConnect.AddKeyed(0, func(info *api.AsyncConnectInfo) { connected <- info }))

	s := udp.NewStream(udp.WithReactor(r))
	defer s.Disconnect()
	s.AsyncConnect(ep.IP, ep.Port, onConnect, time.Second)
	ci := <-connected
	require.True(t, ci.IsSuccess, "%v", ci.Err)

	got := make(chan *api.AsyncInputInfo, 1)
	onRead := api.NewReadDelegate()
	require.NoError(t, onRead.AddKeyed(0, func(info *api.AsyncInputInfo) { got <- info }))
	s.AsyncReadSome(&api.AsyncInputInfo{Buffer: make([]byte, 32)}, onRead, 2*time.Second)

	// the socket is bound once connected; tell the listener where to reply
	local, err := net.ResolveUDPAddr("udp", connLocal(t, s))
	require.NoError(t, err)
	_, err = pc.WriteTo([]byte("datagram"), local)
	require.NoError(t, err)

	info := <-got
	require.True(t, info.Result.IsSuccess, "%v", info.Result.Err)
	assert.Equal(t, "datagram", string(info.Buffer[:info.Result.BytesTransferred]))
}

func connLocal(t *testing.T, s *udp.Stream) string {
	t.Helper()
	conn, err := s.Raw()
	require.NoError(t, err)
	lc, ok := conn.(interface{ LocalAddr() net.Addr })
	require.True(t, ok)
	return lc.LocalAddr().String()
}

func TestConnectTwice(t *testing.T) {
	_, ep := listen(t)
	s := udp.NewStream()
	require.NoError(t, s.Connect(ep.IP, ep.Port, 0))
	defer s.Disconnect()
	assert.ErrorIs(t, s.Connect(ep.IP, ep.Port, 0), api.ErrAlreadyConnected)
}
