package autorelay

import ma "github.com/multiformats/go-multiaddr"

// EvtAutoRelayAddrsUpdated is emitted on the host's event bus whenever the
// supervisor recomputes the peer's advertisable address set, either because
// reachability changed or because RelayFinder's reservation set changed.
type EvtAutoRelayAddrsUpdated struct {
	RelayAddrs []ma.Multiaddr
}
