package relayfinder

import (
	"context"
	"errors"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/omgolab/go-relaymesh/circuitv2/proto"
)

// ErrProtocolNotSupported is returned by vet when the remote peer does not
// speak the HOP protocol.
var ErrProtocolNotSupported = errors.New("relayfinder: peer does not support HOP protocol")

// ErrRelayOfRelay is returned by vet when the peer was reached itself through
// a circuit address.
var ErrRelayOfRelay = errors.New("relayfinder: refusing to use a relay reached through another relay")

// discoveryLoop is rate-limited by rateToken, pulling from the configured
// peer source whenever the candidate set is under-filled. The token is
// sent once by Start, refilled by housekeepingLoop on NextRefill, and sent
// again by pullCandidates when a pull is cut short by a need-candidates
// signal.
func (f *RelayFinder) discoveryLoop(ctx context.Context) {
	for {
		select {
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		case <-f.rateToken:
			f.pullCandidates(ctx)
		}
	}
}

func (f *RelayFinder) pullCandidates(ctx context.Context) {
	f.candidateMx.Lock()
	need := len(f.candidates) < f.cfg.minCandidates
	f.candidateMx.Unlock()
	if !need || f.cfg.peerSource == nil {
		return
	}

	pullCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	source := f.cfg.peerSource(pullCtx, f.cfg.maxCandidates)
	for {
		select {
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		case <-f.needCandidates:
			// Orchestration consumed candidates faster than expected; end
			// this pull now so a fresh token can start another one sooner
			// rather than waiting out whatever remains of this pull.
			cancel()
			f.rateToken.send()
			return
		case ai, ok := <-source:
			if !ok {
				return
			}
			f.considerCandidate(ctx, ai)
		}
	}
}

func (f *RelayFinder) considerCandidate(ctx context.Context, ai peer.AddrInfo) {
	f.candidateMx.Lock()
	if _, backingOff := f.backoff[ai.ID]; backingOff {
		f.candidateMx.Unlock()
		return
	}
	if len(f.candidates) >= f.cfg.maxCandidates {
		f.candidateMx.Unlock()
		return
	}
	f.candidateMx.Unlock()

	vetCtx, cancel := context.WithTimeout(ctx, DefaultVetTimeout)
	defer cancel()

	if err := f.vet(vetCtx, ai); err != nil {
		f.traceCandidateVetFailed()
		f.logDebug("candidate vet failed", glog.LogFields{"peer": ai.ID.String(), "error": err.Error()})
		return
	}

	f.candidateMx.Lock()
	if len(f.candidates) < f.cfg.maxCandidates {
		f.candidates[ai.ID] = Candidate{AddrInfo: ai, AddedAt: time.Now()}
		f.candidateMx.Unlock()
		f.traceCandidateAdded()
		f.newCandidate.send()
		return
	}
	f.candidateMx.Unlock()
}

// vet connects to a candidate, rejects it if the connection turns out to be
// through another relay, and confirms HOP support. Protocol support is
// polled briefly because the identify exchange that populates the protocol
// book runs asynchronously right after a connection is established.
func (f *RelayFinder) vet(ctx context.Context, ai peer.AddrInfo) error {
	if err := f.host.Connect(ctx, ai); err != nil {
		return err
	}

	for _, c := range f.host.Network().ConnsToPeer(ai.ID) {
		if isCircuitConn(c) {
			return ErrRelayOfRelay
		}
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		protos, err := f.host.ProtocolBook().SupportsProtocols(ai.ID, proto.ProtoIDv2Hop)
		if err == nil && len(protos) > 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ErrProtocolNotSupported
		case <-ticker.C:
		}
	}
}

func isCircuitConn(c network.Conn) bool {
	for _, p := range c.RemoteMultiaddr().Protocols() {
		if p.Code == ma.P_CIRCUIT {
			return true
		}
	}
	return false
}
