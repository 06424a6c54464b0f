package relayfinder

import (
	"context"

	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
)

// DefaultDiscoveryTag namespaces the DHT advertisement used by
// NewDHTPeerSource so unrelated applications sharing the same DHT don't
// surface each other's peers as relay candidates.
const DefaultDiscoveryTag = "go-relaymesh/relay-candidates"

// NewDHTPeerSource builds a PeerSource backed by libp2p's Kademlia DHT
// routing discovery. It bootstraps a client-mode DHT against the default
// bootstrap peers and advertises/discovers under tag. Callers that want a
// different discovery mechanism supply their own PeerSource via
// WithPeerSource instead.
func NewDHTPeerSource(ctx context.Context, h host.Host, tag string) (PeerSource, error) {
	if tag == "" {
		tag = DefaultDiscoveryTag
	}

	bootstrapPeers := make([]peer.AddrInfo, 0, len(dht.DefaultBootstrapPeers))
	for _, addr := range dht.DefaultBootstrapPeers {
		if ai, err := peer.AddrInfoFromP2pAddr(addr); err == nil {
			bootstrapPeers = append(bootstrapPeers, *ai)
		}
	}

	kademliaDHT, err := dht.New(ctx, h, dht.Mode(dht.ModeClient), dht.BootstrapPeers(bootstrapPeers...))
	if err != nil {
		return nil, err
	}
	if err := kademliaDHT.Bootstrap(ctx); err != nil {
		return nil, err
	}

	rd := drouting.NewRoutingDiscovery(kademliaDHT)
	dutil.Advertise(ctx, rd, tag)

	return func(ctx context.Context, numPeers int) <-chan peer.AddrInfo {
		out := make(chan peer.AddrInfo, numPeers)
		go func() {
			defer close(out)
			found, err := rd.FindPeers(ctx, tag)
			if err != nil {
				return
			}
			count := 0
			for ai := range found {
				if ai.ID == h.ID() {
					continue
				}
				select {
				case out <- ai:
					count++
				case <-ctx.Done():
					return
				}
				if count >= numPeers {
					return
				}
			}
		}()
		return out
	}, nil
}
