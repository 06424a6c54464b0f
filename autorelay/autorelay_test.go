package autorelay

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/event"
	lphost "github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omgolab/go-relaymesh/relayfinder"
	"github.com/omgolab/go-relaymesh/relayhost"
)

func emptyPeerSource(ctx context.Context, n int) <-chan peer.AddrInfo {
	out := make(chan peer.AddrInfo)
	close(out)
	return out
}

func newTestSupervisor(t *testing.T) (h lphost.Host, a *AutoRelay, addrsSub event.Subscription) {
	t.Helper()
	hp, err := libp2p.New()
	require.NoError(t, err)
	t.Cleanup(func() { hp.Close() })

	wrapped := relayhost.Wrap(hp)
	a, err = New(wrapped, nil,
		relayfinder.WithPeerSource(emptyPeerSource),
		relayfinder.WithBootDelay(0),
		relayfinder.WithMinInterval(20*time.Millisecond),
	)
	require.NoError(t, err)

	sub, err := hp.EventBus().Subscribe(new(EvtAutoRelayAddrsUpdated))
	require.NoError(t, err)
	t.Cleanup(func() { sub.Close() })

	return hp, a, sub
}

func waitForAddrsEvent(t *testing.T, sub event.Subscription, timeout time.Duration) EvtAutoRelayAddrsUpdated {
	t.Helper()
	select {
	case ev := <-sub.Out():
		return ev.(EvtAutoRelayAddrsUpdated)
	case <-time.After(timeout):
		t.Fatal("timed out waiting for AutoRelayAddrsUpdated")
		return EvtAutoRelayAddrsUpdated{}
	}
}

func TestStartEmitsAddrsForInitialUnknownReachability(t *testing.T) {
	_, a, sub := newTestSupervisor(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))
	defer a.Close()

	waitForAddrsEvent(t, sub, 2*time.Second)

	reach, active := a.Status()
	assert.Equal(t, network.ReachabilityUnknown, reach)
	assert.True(t, active)
}

func TestReachabilityPublicStopsFinderAndEmitsHostAddrs(t *testing.T) {
	h, a, sub := newTestSupervisor(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))
	defer a.Close()

	waitForAddrsEvent(t, sub, 2*time.Second)

	emitter, err := h.EventBus().Emitter(new(event.EvtLocalReachabilityChanged))
	require.NoError(t, err)
	defer emitter.Close()
	require.NoError(t, emitter.Emit(event.EvtLocalReachabilityChanged{Reachability: network.ReachabilityPublic}))

	ev := waitForAddrsEvent(t, sub, 2*time.Second)
	assert.ElementsMatch(t, h.Addrs(), ev.RelayAddrs)

	reach, active := a.Status()
	assert.Equal(t, network.ReachabilityPublic, reach)
	assert.False(t, active)
}

func TestDuplicateReachabilityIsIgnored(t *testing.T) {
	h, a, sub := newTestSupervisor(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))
	defer a.Close()

	waitForAddrsEvent(t, sub, 2*time.Second)

	emitter, err := h.EventBus().Emitter(new(event.EvtLocalReachabilityChanged))
	require.NoError(t, err)
	defer emitter.Close()
	require.NoError(t, emitter.Emit(event.EvtLocalReachabilityChanged{Reachability: network.ReachabilityUnknown}))

	select {
	case ev := <-sub.Out():
		t.Fatalf("unexpected addrs event for duplicate reachability: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}
