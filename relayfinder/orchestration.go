package relayfinder

import (
	"context"
	"math/rand"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/omgolab/go-relaymesh/circuitv2/client"
	"github.com/omgolab/go-relaymesh/circuitv2/proto"
)

// orchestrationLoop wakes on new-candidate, boot-delay expiry, or
// maybe-connect-to-relay (disconnect) signals and runs the reservation
// selection algorithm.
func (f *RelayFinder) orchestrationLoop(ctx context.Context) {
	bootTimer := time.NewTimer(f.cfg.bootDelay)
	defer bootTimer.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		case <-bootTimer.C:
			f.attemptReservations(ctx)
		case <-f.newCandidate:
			f.attemptReservations(ctx)
		case <-f.maybeConnect:
			f.attemptReservations(ctx)
		}
	}
}

// attemptReservations shuffles the candidate set and tries RESERVE against
// each one in turn until the desired relay count is reached or candidates
// run out. Network I/O in tryReserve runs with neither lock held: this
// function only ever holds candidateMx or relayMx long enough to snapshot
// or merge state, never across a dial or RESERVE exchange.
func (f *RelayFinder) attemptReservations(ctx context.Context) {
	f.candidateMx.Lock()
	f.relayMx.Lock()
	full := len(f.relays) >= f.cfg.desiredRelays
	notBooted := len(f.relays) == 0 && len(f.candidates) < f.cfg.minCandidates &&
		time.Since(f.bootTime) < f.cfg.bootDelay
	f.relayMx.Unlock()
	if full || notBooted || len(f.candidates) == 0 {
		f.candidateMx.Unlock()
		return
	}
	shuffled := f.shuffledFreshCandidates()
	f.candidateMx.Unlock()

	for _, cand := range shuffled {
		f.relayMx.Lock()
		if len(f.relays) >= f.cfg.desiredRelays {
			f.relayMx.Unlock()
			return
		}
		_, isRelay := f.relays[cand.AddrInfo.ID]
		f.relayMx.Unlock()

		if isRelay {
			f.candidateMx.Lock()
			delete(f.candidates, cand.AddrInfo.ID)
			f.candidateMx.Unlock()
			continue
		}

		f.candidateMx.Lock()
		f.backoff[cand.AddrInfo.ID] = time.Now().Add(f.cfg.backoff)
		f.candidateMx.Unlock()
		f.traceBackoffEntryAdded()

		ok := f.tryReserve(ctx, cand.AddrInfo)

		f.candidateMx.Lock()
		delete(f.candidates, cand.AddrInfo.ID)
		f.candidateMx.Unlock()

		if ok {
			f.traceReservationOpened()
			f.relaysUpdated.send()
			continue
		}

		f.needCandidates.send()
	}
}

func (f *RelayFinder) shuffledFreshCandidates() []Candidate {
	now := time.Now()
	fresh := make([]Candidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		if !c.expired(f.cfg.maxCandidateAge, now) {
			fresh = append(fresh, c)
		}
	}
	src := f.cfg.randSrc
	if src == nil {
		src = rand.NewSource(now.UnixNano())
	}
	rng := rand.New(src)
	rng.Shuffle(len(fresh), func(i, j int) { fresh[i], fresh[j] = fresh[j], fresh[i] })
	return fresh
}

// tryReserve dials the candidate (if needed) and performs the RESERVE
// exchange. It takes no lock over the network I/O; relayMx is acquired only
// to merge the resulting reservation into the relay set.
func (f *RelayFinder) tryReserve(ctx context.Context, ai peer.AddrInfo) bool {
	if f.host.Network().Connectedness(ai.ID) != network.Connected {
		dialCtx, cancel := context.WithTimeout(ctx, DefaultDialTimeout)
		err := f.host.Connect(dialCtx, ai)
		cancel()
		if err != nil {
			f.logDebug("relay dial failed", glog.LogFields{"peer": ai.ID.String(), "error": err.Error()})
			return false
		}
	}

	streamCtx, cancel := context.WithTimeout(ctx, DefaultReserveTimeout)
	defer cancel()

	s, err := f.host.NewStream(streamCtx, ai.ID, proto.ProtoIDv2Hop)
	if err != nil {
		f.logDebug("relay HOP stream failed", glog.LogFields{"peer": ai.ID.String(), "error": err.Error()})
		return false
	}
	defer s.Close()

	rsvp, err := client.Reserve(s, f.log)
	if err != nil {
		s.Reset()
		f.logDebug("reservation failed", glog.LogFields{"peer": ai.ID.String(), "error": err.Error()})
		return false
	}

	f.host.ConnManager().Protect(ai.ID, autoRelayTag)

	f.relayMx.Lock()
	f.relays[ai.ID] = &relay{
		AddrInfo:   ai,
		Expiration: rsvp.Expiration,
		Addrs:      rsvp.Addrs,
		Voucher:    rsvp.Voucher,
		reservedAt: time.Now(),
	}
	f.invalidateAddrCacheLocked()
	f.relayMx.Unlock()
	return true
}
