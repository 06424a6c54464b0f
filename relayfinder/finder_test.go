package relayfinder

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/omgolab/go-relaymesh/circuitv2/pb"
	cproto "github.com/omgolab/go-relaymesh/circuitv2/proto"
	"github.com/omgolab/go-relaymesh/circuitv2/util"
	"github.com/omgolab/go-relaymesh/relayhost"
)

// newReservingRelay starts a real libp2p host that answers the RESERVE on
// each HOP stream with expireIn and advertised, mimicking a cooperative relay for
// the reservation-happy-path scenario.
func newReservingRelay(t *testing.T, expireIn time.Duration, advertised string) (relayID peer.ID, addrInfo peer.AddrInfo, closeFn func()) {
	t.Helper()

	relay, err := libp2p.New()
	require.NoError(t, err)

	advertisedAddr, err := ma.NewMultiaddr(advertised)
	require.NoError(t, err)

	relay.SetStreamHandler(cproto.ProtoIDv2Hop, func(s network.Stream) {
		defer s.Close()
		rd := util.NewDelimitedReader(s, cproto.MaxMessageSize)
		var req pb.HopMessage
		if err := rd.ReadMsg(&req); err != nil || req.GetType() != pb.HopMessage_RESERVE {
			s.Reset()
			return
		}

		statusType := pb.HopMessage_STATUS
		ok := pb.Status_OK
		expire := uint64(time.Now().Add(expireIn).Unix())
		resp := &pb.HopMessage{
			Type:   &statusType,
			Status: &ok,
			Reservation: &pb.Reservation{
				Expire: &expire,
				Addrs:  [][]byte{advertisedAddr.Bytes()},
			},
		}
		wr := util.NewDelimitedWriter(s)
		if err := wr.WriteMsg(resp); err != nil {
			s.Reset()
		}
	})

	return relay.ID(), peer.AddrInfo{ID: relay.ID(), Addrs: relay.Addrs()}, func() { relay.Close() }
}

func TestReservationHappyPathOpensRelayAndEmitsUpdate(t *testing.T) {
	relayID, relayInfo, closeRelay := newReservingRelay(t, time.Hour, "/ip4/10.0.0.1/tcp/4001")
	defer closeRelay()

	self, err := libp2p.New()
	require.NoError(t, err)
	defer self.Close()

	source := staticPeerSource([]peer.AddrInfo{relayInfo})

	finder, err := New(relayhost.Wrap(self), nil,
		WithPeerSource(source),
		WithMinCandidates(1),
		WithMaxCandidates(1),
		WithDesiredRelays(1),
		WithBootDelay(0),
		WithMinInterval(20*time.Millisecond),
	)
	require.NoError(t, err)
	defer finder.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	finder.Start(ctx)

	select {
	case <-finder.RelaysUpdated():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for relays updated signal")
	}

	assert.Equal(t, 1, finder.RelayCount())
	assert.True(t, self.ConnManager().IsProtected(relayID, autoRelayTag))

	addrs := finder.RelayAddrs()
	found := false
	for _, a := range addrs {
		if a.String() == "/ip4/10.0.0.1/tcp/4001/p2p/"+relayID.String()+"/p2p-circuit/p2p/"+self.ID().String() {
			found = true
		}
	}
	assert.True(t, found, "expected assembled circuit address among %v", addrs)
}

func TestDropRelayUnprotectsAndInvalidatesCache(t *testing.T) {
	self, err := libp2p.New()
	require.NoError(t, err)
	defer self.Close()

	finder, err := New(relayhost.Wrap(self), nil, WithPeerSource(dummyPeerSource))
	require.NoError(t, err)

	relayID := newTestPeerID(t)
	self.ConnManager().Protect(relayID, autoRelayTag)

	finder.relayMx.Lock()
	finder.relays[relayID] = &relay{AddrInfo: peer.AddrInfo{ID: relayID}}
	finder.cachedAddrs = []ma.Multiaddr{}
	finder.relayMx.Unlock()

	finder.dropRelay(relayID)

	assert.False(t, self.ConnManager().IsProtected(relayID, autoRelayTag))
	assert.Equal(t, 0, finder.RelayCount())

	finder.relayMx.Lock()
	cache := finder.cachedAddrs
	finder.relayMx.Unlock()
	assert.Nil(t, cache)
}
