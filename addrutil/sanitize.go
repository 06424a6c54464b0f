// Package addrutil cleans a relay's advertised address set before it is
// turned into circuit addresses, collapsing "address explosion" caused by
// NAT rebinding. It is pure: no I/O, no clock, no global state beyond the
// immutable multiaddr protocol table.
package addrutil

import (
	ma "github.com/multiformats/go-multiaddr"
	manet "github.com/multiformats/go-multiaddr/net"
)

// wellKnownPorts are the libp2p default listen ports.
var wellKnownPorts = map[string]bool{
	"4001": true,
	"4002": true,
}

// Sanitize filters and de-explodes addrs, all belonging to one relay peer,
// into the set that should be encapsulated as circuit addresses.
//
// Sanitize is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(addrs []ma.Multiaddr) []ma.Multiaddr {
	nonCircuit := make([]ma.Multiaddr, 0, len(addrs))
	for _, a := range addrs {
		if isCircuitAddr(a) {
			continue
		}
		nonCircuit = append(nonCircuit, a)
	}

	var public, private []ma.Multiaddr
	for _, a := range nonCircuit {
		if isPublicAddr(a) {
			public = append(public, a)
		} else {
			private = append(private, a)
		}
	}

	if !isExploded(public) {
		return append(append([]ma.Multiaddr{}, public...), private...)
	}

	privatePorts := portSet(private)
	keyed := groupByKey(public)

	kept := make([]ma.Multiaddr, 0, len(public))
	for _, key := range keyed.order {
		group := keyed.groups[key]
		if len(group) == 1 {
			kept = append(kept, group[0])
			continue
		}
		kept = append(kept, resolveExplodedGroup(group, privatePorts)...)
	}

	return append(kept, private...)
}

// resolveExplodedGroup applies the port-correlation and well-known-port
// tie-breakers to one addr-exploded key group: it keeps every address whose
// port matches a private port or is a well-known libp2p port, and keeps the
// whole group when neither rule selects anything.
func resolveExplodedGroup(group []ma.Multiaddr, privatePorts map[string]bool) []ma.Multiaddr {
	var kept []ma.Multiaddr
	for _, a := range group {
		if p, ok := portOf(a); ok && (privatePorts[p] || wellKnownPorts[p]) {
			kept = append(kept, a)
		}
	}
	if len(kept) > 0 {
		return kept
	}

	return group
}

// isExploded reports whether the public set contains two or more addresses
// sharing a key (see groupByKey).
func isExploded(public []ma.Multiaddr) bool {
	keyed := groupByKey(public)
	for _, key := range keyed.order {
		if len(keyed.groups[key]) > 1 {
			return true
		}
	}
	return false
}

type keyedAddrs struct {
	order  []string
	groups map[string][]ma.Multiaddr
}

// groupByKey buckets addrs by their addr-"key": the concatenation of
// component protocol names in order. Every component, tcp/udp included,
// contributes only its protocol name and not its value, so addresses that
// differ only in IP or port share a key.
func groupByKey(addrs []ma.Multiaddr) keyedAddrs {
	k := keyedAddrs{groups: make(map[string][]ma.Multiaddr)}
	for _, a := range addrs {
		key := addrKey(a)
		if _, ok := k.groups[key]; !ok {
			k.order = append(k.order, key)
		}
		k.groups[key] = append(k.groups[key], a)
	}
	return k
}

func addrKey(a ma.Multiaddr) string {
	var key string
	ma.ForEach(a, func(c ma.Component) bool {
		key += c.Protocol().Name
		return true
	})
	return key
}

func portOf(a ma.Multiaddr) (string, bool) {
	for _, proto := range []int{ma.P_TCP, ma.P_UDP} {
		if v, err := a.ValueForProtocol(proto); err == nil {
			return v, true
		}
	}
	return "", false
}

func portSet(addrs []ma.Multiaddr) map[string]bool {
	set := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if p, ok := portOf(a); ok {
			set[p] = true
		}
	}
	return set
}

func isCircuitAddr(a ma.Multiaddr) bool {
	found := false
	ma.ForEach(a, func(c ma.Component) bool {
		if c.Protocol().Code == ma.P_CIRCUIT {
			found = true
			return false
		}
		return true
	})
	return found
}

// isPublicAddr reports whether a is a public IP or a DNS-based address
// (dns4/dns6/dnsaddr).
func isPublicAddr(a ma.Multiaddr) bool {
	var isDNS bool
	ma.ForEach(a, func(c ma.Component) bool {
		switch c.Protocol().Code {
		case ma.P_DNS4, ma.P_DNS6, ma.P_DNSADDR:
			isDNS = true
			return false
		}
		return true
	})
	if isDNS {
		return true
	}
	return !manet.IsPrivateAddr(a)
}
