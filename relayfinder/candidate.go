package relayfinder

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// Candidate is a peer vetted as capable of acting as a relay but for which
// no active reservation is held yet.
type Candidate struct {
	AddrInfo peer.AddrInfo
	AddedAt  time.Time
}

func (c Candidate) expired(maxAge time.Duration, now time.Time) bool {
	return now.Sub(c.AddedAt) > maxAge
}

// relay is an active reservation held on a peer acting as our relay.
type relay struct {
	AddrInfo    peer.AddrInfo
	Expiration  time.Time
	Addrs       []ma.Multiaddr
	Voucher     []byte
	reservedAt  time.Time
}
