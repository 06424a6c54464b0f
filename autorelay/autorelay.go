// Package autorelay starts and stops a relayfinder.RelayFinder in response
// to reachability changes, and publishes the host's advertisable address set
// whenever reachability or the reservation set changes underneath it.
package autorelay

import (
	"context"
	"sync"

	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/network"
	ma "github.com/multiformats/go-multiaddr"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/omgolab/go-relaymesh/relayfinder"
	"github.com/omgolab/go-relaymesh/relayhost"
)

// AutoRelay implements a reachability state machine: reachability ∈
// {unknown, private, public}, starting at unknown.
type AutoRelay struct {
	host      relayhost.Host
	log       glog.Logger
	newFinder func() (*relayfinder.RelayFinder, error)

	mu              sync.Mutex
	hasReachability bool
	reachability    network.Reachability
	finder          *relayfinder.RelayFinder
	finderCancel    context.CancelFunc

	emitter event.Emitter
	sub     event.Subscription

	stop   chan struct{}
	stopMx sync.Mutex
	wg     sync.WaitGroup
}

// New builds a supervisor. opts configure the RelayFinder instances it
// creates each time reachability moves out of public; config-contradiction
// errors in opts are returned here.
func New(h relayhost.Host, log glog.Logger, opts ...relayfinder.Option) (*AutoRelay, error) {
	if _, err := relayfinder.New(h, log, opts...); err != nil {
		return nil, err
	}
	return &AutoRelay{
		host: h,
		log:  log,
		newFinder: func() (*relayfinder.RelayFinder, error) {
			return relayfinder.New(h, log, opts...)
		},
		stop: make(chan struct{}),
	}, nil
}

// Start subscribes to reachability changes and begins the supervisor loop.
// The initial state is unknown, which per the state table starts
// RelayFinder immediately, before any event arrives.
func (a *AutoRelay) Start(ctx context.Context) error {
	emitter, err := a.host.EventBus().Emitter(new(EvtAutoRelayAddrsUpdated))
	if err != nil {
		return err
	}
	sub, err := a.host.EventBus().Subscribe(new(event.EvtLocalReachabilityChanged))
	if err != nil {
		emitter.Close()
		return err
	}
	a.emitter = emitter
	a.sub = sub

	relaysUpdated := make(chan struct{}, 1)
	a.handleReachability(ctx, network.ReachabilityUnknown, relaysUpdated)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.loop(ctx, relaysUpdated)
	}()
	return nil
}

func (a *AutoRelay) loop(ctx context.Context, relaysUpdated chan struct{}) {
	for {
		select {
		case <-a.stop:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-a.sub.Out():
			if !ok {
				return
			}
			evt := ev.(event.EvtLocalReachabilityChanged)
			a.handleReachability(ctx, evt.Reachability, relaysUpdated)
		case <-relaysUpdated:
			a.emitAddrs()
		}
	}
}

// handleReachability runs the reachability transition table. Duplicate
// deliveries of the same reachability value are ignored, so a flapping
// source can't retrigger finder churn or address emission.
func (a *AutoRelay) handleReachability(ctx context.Context, r network.Reachability, relaysUpdated chan struct{}) {
	a.mu.Lock()
	if a.hasReachability && a.reachability == r {
		a.mu.Unlock()
		return
	}
	a.hasReachability = true
	a.reachability = r

	if r == network.ReachabilityPublic {
		a.stopFinderLocked()
	} else if a.finder == nil {
		if err := a.startFinderLocked(ctx, relaysUpdated); err != nil {
			a.logError("autorelay: failed to start relay finder", err)
		}
	}
	a.mu.Unlock()

	a.emitAddrs()
}

// startFinderLocked constructs a fresh RelayFinder and a goroutine that
// forwards its "relays updated" signal into the supervisor loop. Caller
// holds mu.
func (a *AutoRelay) startFinderLocked(ctx context.Context, relaysUpdated chan struct{}) error {
	f, err := a.newFinder()
	if err != nil {
		return err
	}

	finderCtx, cancel := context.WithCancel(ctx)
	a.finder = f
	a.finderCancel = cancel
	f.Start(finderCtx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		for {
			select {
			case <-finderCtx.Done():
				return
			case <-f.RelaysUpdated():
				select {
				case relaysUpdated <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

// stopFinderLocked is a no-op when already inactive, satisfying the state
// table's idempotence requirement. Caller holds mu.
func (a *AutoRelay) stopFinderLocked() {
	if a.finder == nil {
		return
	}
	a.finderCancel()
	a.finder.Close()
	a.finder = nil
	a.finderCancel = nil
}

// emitAddrs recomputes the advertisable address set and is only ever called
// from the single supervisor loop goroutine (plus once synchronously from
// Start), so emissions are naturally serialized without extra locking.
func (a *AutoRelay) emitAddrs() {
	a.mu.Lock()
	r := a.reachability
	f := a.finder
	a.mu.Unlock()

	var addrs []ma.Multiaddr
	if r == network.ReachabilityPublic || f == nil {
		addrs = append([]ma.Multiaddr{}, a.host.Addrs()...)
	} else {
		addrs = f.RelayAddrs()
	}

	if a.emitter != nil {
		_ = a.emitter.Emit(EvtAutoRelayAddrsUpdated{RelayAddrs: addrs})
	}
}

// Status reports whether RelayFinder is currently active, for diagnostics.
func (a *AutoRelay) Status() (reachability network.Reachability, finderActive bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reachability, a.finder != nil
}

// Close stops RelayFinder (if active) and unsubscribes from the event bus.
func (a *AutoRelay) Close() error {
	a.mu.Lock()
	a.stopFinderLocked()
	a.mu.Unlock()

	a.stopMx.Lock()
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}
	a.stopMx.Unlock()

	a.wg.Wait()

	if a.sub != nil {
		a.sub.Close()
	}
	if a.emitter != nil {
		a.emitter.Close()
	}
	return nil
}

func (a *AutoRelay) logError(msg string, err error) {
	if a.log != nil {
		a.log.Error(msg, err)
	}
}
