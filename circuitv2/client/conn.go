package client

import (
	"net"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	mn "github.com/multiformats/go-multiaddr/net"
)

// transportName is reported by a Conn's Transport method, marking
// it as having crossed a relay rather than a direct transport.
const transportName = "circuit-relay"

// Conn is the virtual point-to-point connection a HOP dial or a STOP accept
// produces. It satisfies net.Conn over the underlying relayed stream, and
// reports empty security/multiplexer state: the caller's upgrader is
// expected to run a secure handshake and multiplex over it before use,
// exactly as it would for a freshly dialed direct connection.
type Conn struct {
	network.Stream

	local, remote peer.ID
	localAddr     ma.Multiaddr
	remoteAddr    ma.Multiaddr
}

var _ net.Conn = (*Conn)(nil)

func newConn(s network.Stream, local, remote peer.ID, localAddr, remoteAddr ma.Multiaddr) *Conn {
	return &Conn{Stream: s, local: local, remote: remote, localAddr: localAddr, remoteAddr: remoteAddr}
}

// LocalPeer returns this host's own identity.
func (c *Conn) LocalPeer() peer.ID { return c.local }

// RemotePeer returns the destination peer's identity, not the relay's.
func (c *Conn) RemotePeer() peer.ID { return c.remote }

// LocalMultiaddr returns the local address the Conn was built with. The
// transport's Dial and STOP handler build every Conn with a nil local
// address.
func (c *Conn) LocalMultiaddr() ma.Multiaddr { return c.localAddr }

// RemoteMultiaddr reports the circuit address the remote peer is reachable
// at: `<relay-addrs>/p2p/<relay-id>/circuit/p2p/<dest-id>`, without the
// trailing `/p2p/<dest-id>` when the destination is the relay itself.
func (c *Conn) RemoteMultiaddr() ma.Multiaddr { return c.remoteAddr }

// Transport names this connection's kind for upper-layer reporting. The
// security and multiplexer protocols are intentionally left unreported
// here: they are not yet negotiated.
func (c *Conn) Transport() string { return transportName }

func (c *Conn) LocalAddr() net.Addr {
	return netAddrOrFallback(c.localAddr)
}

func (c *Conn) RemoteAddr() net.Addr {
	return netAddrOrFallback(c.remoteAddr)
}

func netAddrOrFallback(a ma.Multiaddr) net.Addr {
	addr, err := mn.ToNetAddr(a)
	if err != nil {
		return &net.TCPAddr{IP: net.IPv4zero, Port: 0}
	}
	return addr
}
