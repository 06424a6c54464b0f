// Package relayfinder discovers, vets, and maintains reservations on relay
// peers so a host behind NAT can advertise reachable circuit addresses.
package relayfinder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/omgolab/go-relaymesh/relayhost"
)

const autoRelayTag = "autorelay"

// RelayFinder is a long-running supervisor with three cooperating concerns:
// find candidates, maintain reservations, and run scheduled housekeeping.
type RelayFinder struct {
	host     relayhost.Host
	cfg      *config
	log      glog.Logger
	metrics  MetricsTracer
	counters counters

	bootTime time.Time

	candidateMx sync.Mutex
	candidates  map[peer.ID]Candidate
	backoff     map[peer.ID]time.Time

	relayMx     sync.Mutex
	relays      map[peer.ID]*relay
	cachedAddrs []ma.Multiaddr
	addrsAt     time.Time

	rateToken      signal
	newCandidate   signal
	maybeConnect   signal
	needCandidates signal
	relaysUpdated  signal

	work ScheduledWorkTimes

	stop   chan struct{}
	stopMx sync.Mutex
	wg     sync.WaitGroup
}

// New builds a RelayFinder. Config-contradiction errors (mutually exclusive
// static_relays/peer_source, or neither set) are raised here, never later.
func New(h relayhost.Host, log glog.Logger, opts ...Option) (*RelayFinder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	f := &RelayFinder{
		host:           h,
		cfg:            cfg,
		log:            log,
		metrics:        cfg.metrics,
		candidates:     make(map[peer.ID]Candidate),
		backoff:        make(map[peer.ID]time.Time),
		relays:         make(map[peer.ID]*relay),
		rateToken:      newSignal(),
		newCandidate:   newSignal(),
		maybeConnect:   newSignal(),
		needCandidates: newSignal(),
		relaysUpdated:  newSignal(),
		stop:           make(chan struct{}),
	}

	if len(cfg.staticRelays) > 0 {
		f.cfg.peerSource = staticPeerSource(cfg.staticRelays)
	}

	return f, nil
}

func staticPeerSource(relays []peer.AddrInfo) PeerSource {
	return func(ctx context.Context, numPeers int) <-chan peer.AddrInfo {
		out := make(chan peer.AddrInfo, len(relays))
		defer close(out)
		for i, r := range relays {
			if i >= numPeers {
				break
			}
			select {
			case out <- r:
			case <-ctx.Done():
				return out
			}
		}
		return out
	}
}

// Start launches the discovery loop, housekeeping scheduler, and disconnect
// watcher. Safe to call once; callers coordinate idempotency (autorelay does
// so at the supervisor level).
func (f *RelayFinder) Start(ctx context.Context) {
	f.bootTime = time.Now()
	f.rateToken.send()

	f.wg.Add(3)
	go f.supervise("candidate-discovery", func() { f.discoveryLoop(ctx) })
	go f.supervise("housekeeping", func() { f.housekeepingLoop(ctx) })
	go f.supervise("disconnect-watch", func() { f.disconnectLoop(ctx) })

	f.wg.Add(1)
	go f.supervise("orchestration", func() { f.orchestrationLoop(ctx) })
}

// supervise runs fn, restarting it if it panics, until the stop channel
// closes. A normal return of fn ends supervision.
func (f *RelayFinder) supervise(name string, fn func()) {
	defer f.wg.Done()
	for {
		select {
		case <-f.stop:
			return
		default:
		}
		panicked := func() (panicked bool) {
			defer func() {
				if r := recover(); r != nil {
					panicked = true
					f.logError(fmt.Sprintf("relayfinder: %s loop panicked, restarting", name), fmt.Errorf("%v", r))
				}
			}()
			fn()
			return false
		}()
		if !panicked {
			return
		}
		select {
		case <-f.stop:
			return
		default:
		}
	}
}

// Close signals every loop to stop and waits for them to exit.
func (f *RelayFinder) Close() error {
	f.stopMx.Lock()
	defer f.stopMx.Unlock()
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
	f.wg.Wait()
	return nil
}

// Metrics returns a point-in-time counter snapshot.
func (f *RelayFinder) Metrics() Snapshot {
	return f.counters.snapshot()
}

// RelayCount reports the number of currently held reservations.
func (f *RelayFinder) RelayCount() int {
	f.relayMx.Lock()
	defer f.relayMx.Unlock()
	return len(f.relays)
}

// RelaysUpdated exposes the "relays updated" signal so the AutoRelay
// supervisor can recompute and emit its advertisable address set whenever
// the reservation set changes underneath it.
func (f *RelayFinder) RelaysUpdated() <-chan struct{} {
	return f.relaysUpdated
}

func (f *RelayFinder) traceCandidateAdded() {
	f.counters.candidatesAdded.Add(1)
	f.metrics.CandidateAdded()
}

func (f *RelayFinder) traceCandidateVetFailed() {
	f.counters.candidatesVetFailed.Add(1)
	f.metrics.CandidateVetFailed()
}

func (f *RelayFinder) traceReservationOpened() {
	f.counters.reservationsOpened.Add(1)
	f.metrics.ReservationOpened()
}

func (f *RelayFinder) traceReservationRefreshed() {
	f.counters.reservationsRefreshed.Add(1)
	f.metrics.ReservationRefreshed()
}

func (f *RelayFinder) traceReservationExpired() {
	f.counters.reservationsExpired.Add(1)
	f.metrics.ReservationExpired()
}

func (f *RelayFinder) traceBackoffEntryAdded() {
	f.counters.backoffEntriesAdded.Add(1)
	f.metrics.BackoffEntryAdded()
}

func (f *RelayFinder) logDebug(msg string, fields glog.LogFields) {
	if f.log != nil {
		f.log.Debug(msg, fields)
	}
}

func (f *RelayFinder) logWarn(msg string, fields glog.LogFields) {
	if f.log != nil {
		f.log.Warn(msg, fields)
	}
}

func (f *RelayFinder) logInfo(msg string, fields glog.LogFields) {
	if f.log != nil {
		f.log.Info(msg, fields)
	}
}

func (f *RelayFinder) logError(msg string, err error) {
	if f.log != nil {
		f.log.Error(msg, err)
	}
}
