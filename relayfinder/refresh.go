package relayfinder

import (
	"context"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/omgolab/go-relaymesh/circuitv2/client"
	"github.com/omgolab/go-relaymesh/circuitv2/proto"
)

// refreshDueRelays attempts a new RESERVE concurrently for each reservation
// whose expiry falls within rsvp_expiration_slack; the sweep ends when all
// attempts return.
func (f *RelayFinder) refreshDueRelays(ctx context.Context) {
	now := time.Now()

	f.relayMx.Lock()
	due := make([]peer.AddrInfo, 0)
	for _, r := range f.relays {
		if r.Expiration.Sub(now) <= f.cfg.rsvpExpirationSlack {
			due = append(due, r.AddrInfo)
		}
	}
	f.relayMx.Unlock()

	if len(due) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, ai := range due {
		wg.Add(1)
		go func(ai peer.AddrInfo) {
			defer wg.Done()
			f.refreshOne(ctx, ai)
		}(ai)
	}
	wg.Wait()
}

func (f *RelayFinder) refreshOne(ctx context.Context, ai peer.AddrInfo) {
	streamCtx, cancel := context.WithTimeout(ctx, DefaultReserveTimeout)
	defer cancel()

	s, err := f.host.NewStream(streamCtx, ai.ID, proto.ProtoIDv2Hop)
	if err != nil {
		f.dropRelay(ai.ID)
		return
	}
	defer s.Close()

	rsvp, err := client.Reserve(s, f.log)
	if err != nil {
		s.Reset()
		f.logDebug("reservation refresh failed", glog.LogFields{"peer": ai.ID.String(), "error": err.Error()})
		f.dropRelay(ai.ID)
		return
	}

	f.relayMx.Lock()
	if r, ok := f.relays[ai.ID]; ok {
		r.Expiration = rsvp.Expiration
		r.Addrs = rsvp.Addrs
		r.Voucher = rsvp.Voucher
		f.invalidateAddrCacheLocked()
	}
	f.relayMx.Unlock()

	f.traceReservationRefreshed()
	f.relaysUpdated.send()
}

// dropRelay removes a relay whose reservation could not be refreshed (or
// which disconnected), unprotects it, and invalidates the cached address set.
func (f *RelayFinder) dropRelay(id peer.ID) {
	f.relayMx.Lock()
	_, existed := f.relays[id]
	delete(f.relays, id)
	if existed {
		f.invalidateAddrCacheLocked()
	}
	f.relayMx.Unlock()

	if existed {
		f.host.ConnManager().Unprotect(id, autoRelayTag)
		f.traceReservationExpired()
		f.relaysUpdated.send()
	}
}
