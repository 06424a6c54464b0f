// Package relayhost defines the narrow slice of host.Host capabilities that
// the circuit transport, RelayFinder, and the AutoRelay supervisor need.
// Passing this interface instead of host.Host itself breaks the cyclic
// reference a relay subsystem would otherwise have back into its own host.
package relayhost

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/connmgr"
	"github.com/libp2p/go-libp2p/core/event"
	lphost "github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/peerstore"
	"github.com/libp2p/go-libp2p/core/protocol"
	ma "github.com/multiformats/go-multiaddr"
)

// Host is the capability set consumed by circuitv2/client, relayfinder, and
// autorelay. A real libp2p host.Host satisfies it once adapted by Wrap.
type Host interface {
	ID() peer.ID
	Addrs() []ma.Multiaddr

	NewStream(ctx context.Context, p peer.ID, pids ...protocol.ID) (network.Stream, error)
	SetStreamHandler(pid protocol.ID, handler network.StreamHandler)
	RemoveStreamHandler(pid protocol.ID)
	Connect(ctx context.Context, pi peer.AddrInfo) error

	Network() network.Network
	ConnManager() connmgr.ConnManager
	EventBus() event.Bus

	AddrBook() AddrBook
	ProtocolBook() ProtocolBook
}

// AddrBook is the slice of peerstore.Peerstore needed to record and read
// back circuit addresses for peers reached through a relay.
type AddrBook interface {
	AddAddrs(p peer.ID, addrs []ma.Multiaddr, ttl time.Duration)
	Addrs(p peer.ID) []ma.Multiaddr
}

// ProtocolBook is the slice of peerstore.Peerstore needed to vet whether a
// peer supports the HOP protocol.
type ProtocolBook interface {
	SupportsProtocols(p peer.ID, protos ...protocol.ID) ([]protocol.ID, error)
}

// FromPeerstore adapts a peerstore.Peerstore to the narrower AddrBook and
// ProtocolBook capabilities above.
func FromPeerstore(ps peerstore.Peerstore) (AddrBook, ProtocolBook) {
	return ps, ps
}

// PermanentAddrTTL matches peerstore.PermanentAddrTTL; redeclared here so
// callers of AddAddrs don't need a direct peerstore import for the common
// case of recording a reachable circuit address.
const PermanentAddrTTL = peerstore.PermanentAddrTTL

// ConnectedAddrTTL matches peerstore.ConnectedAddrTTL, used when recording
// a STOP-accepted peer's circuit address for the lifetime of the current
// connection.
const ConnectedAddrTTL = peerstore.ConnectedAddrTTL

// wrapped adapts a real libp2p host.Host to Host by exposing its
// Peerstore() as the two narrower book capabilities.
type wrapped struct {
	lphost.Host
}

func (w wrapped) AddrBook() AddrBook         { return w.Peerstore() }
func (w wrapped) ProtocolBook() ProtocolBook { return w.Peerstore() }

// Wrap adapts a real libp2p host.Host to the narrow Host capability set.
func Wrap(h lphost.Host) Host { return wrapped{h} }
