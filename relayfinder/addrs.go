package relayfinder

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

const addrCacheTTL = 30 * time.Second

// RelayAddrs returns the host's own private/loopback listen addresses plus
// one circuit address per address each held reservation carries, cached
// for 30s until a
// signalled invalidation (relay added/removed, refresh, disconnect) clears
// it immediately.
func (f *RelayFinder) RelayAddrs() []ma.Multiaddr {
	f.relayMx.Lock()
	defer f.relayMx.Unlock()

	if f.cachedAddrs != nil && time.Since(f.addrsAt) < addrCacheTTL {
		return append([]ma.Multiaddr{}, f.cachedAddrs...)
	}

	out := make([]ma.Multiaddr, 0, len(f.relays)+4)
	out = append(out, f.privateListenAddrs()...)

	selfID := f.host.ID()
	for _, r := range f.relays {
		for _, addr := range r.Addrs {
			circuit, err := buildCircuitAddr(addr, r.AddrInfo.ID, selfID)
			if err != nil {
				continue
			}
			out = append(out, circuit)
		}
	}

	f.cachedAddrs = out
	f.addrsAt = time.Now()
	return append([]ma.Multiaddr{}, out...)
}

func (f *RelayFinder) privateListenAddrs() []ma.Multiaddr {
	var out []ma.Multiaddr
	for _, a := range f.host.Addrs() {
		if !isCircuitMultiaddr(a) && (manet.IsPrivateAddr(a) || manet.IsIPLoopback(a)) {
			out = append(out, a)
		}
	}
	return out
}

func isCircuitMultiaddr(a ma.Multiaddr) bool {
	for _, p := range a.Protocols() {
		if p.Code == ma.P_CIRCUIT {
			return true
		}
	}
	return false
}

// buildCircuitAddr constructs <relay-addr>/p2p/<relay-id>/circuit/p2p/<self>,
// eliding /p2p/<relay-id> when relayAddr already carries it.
func buildCircuitAddr(relayAddr ma.Multiaddr, relayID, selfID peer.ID) (ma.Multiaddr, error) {
	if _, err := relayAddr.ValueForProtocol(ma.P_P2P); err != nil {
		p2pComp, err := ma.NewComponent("p2p", relayID.String())
		if err != nil {
			return nil, err
		}
		relayAddr = relayAddr.Encapsulate(p2pComp)
	}
	circuitComp, err := ma.NewComponent("p2p-circuit", "")
	if err != nil {
		return nil, err
	}
	out := relayAddr.Encapsulate(circuitComp)

	selfComp, err := ma.NewComponent("p2p", selfID.String())
	if err != nil {
		return nil, err
	}
	return out.Encapsulate(selfComp), nil
}

// invalidateAddrCacheLocked clears the cached address set. Caller must hold
// relayMx.
func (f *RelayFinder) invalidateAddrCacheLocked() {
	f.cachedAddrs = nil
}
