package client

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/crypto"
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

func mustAddr(t *testing.T, s string) ma.Multiaddr {
	t.Helper()
	a, err := ma.NewMultiaddr(s)
	require.NoError(t, err)
	return a
}

func mustComponent(t *testing.T, name, value string) ma.Multiaddr {
	t.Helper()
	c, err := ma.NewComponent(name, value)
	require.NoError(t, err)
	return c
}

func mustP2P(t *testing.T, id peer.ID) ma.Multiaddr {
	return mustComponent(t, "p2p", id.String())
}

func mustPeerID(t *testing.T) peer.ID {
	t.Helper()
	_, pub, err := crypto.GenerateEd25519Key(nil)
	require.NoError(t, err)
	id, err := peer.IDFromPublicKey(pub)
	require.NoError(t, err)
	return id
}

// TestDialPreservesPrependedBytes covers the scenario where a relay writes
// application bytes into the stream immediately after STATUS OK: the
// virtual connection's first read must return exactly those bytes before
// anything the destination peer itself produces.
func TestDialPreservesPrependedBytes(t *testing.T) {
	relay, err := libp2p.New()
	require.NoError(t, err)
	defer relay.Close()

	dialer, err := libp2p.New()
	require.NoError(t, err)
	defer dialer.Close()

	destID := dialer.ID() // arbitrary valid peer id for the CONNECT target field

	prefix := []byte{0xAA, 0xBB, 0xCC}

	relay.SetStreamHandler(cproto.ProtoIDv2Hop, func(s network.Stream) {
		rd := util.NewDelimitedReader(s, cproto.MaxMessageSize)
		var req pb.HopMessage
		require.NoError(t, rd.ReadMsg(&req))
		assert.Equal(t, pb.HopMessage_CONNECT, req.GetType())

		wr := util.NewDelimitedWriter(s)
		statusType := pb.HopMessage_STATUS
		ok := pb.Status_OK
		resp := &pb.HopMessage{Type: &statusType, Status: &ok}
		require.NoError(t, wr.WriteMsg(resp))

		_, err := s.Write(prefix)
		require.NoError(t, err)
		// Keep the stream open so the dialer's Read sees the bytes.
		time.Sleep(300 * time.Millisecond)
	})

	dialer.Peerstore().AddAddrs(relay.ID(), relay.Addrs(), time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, dialer.Connect(ctx, dialer.Peerstore().PeerInfo(relay.ID())))

	transport := NewTransport(relayhost.Wrap(dialer), nil)

	relayAddrs := dialer.Peerstore().Addrs(relay.ID())
	require.NotEmpty(t, relayAddrs)

	p2pComp, err := ma.NewComponent("p2p", relay.ID().String())
	require.NoError(t, err)
	circuitComp, err := ma.NewComponent("p2p-circuit", "")
	require.NoError(t, err)
	destComp, err := ma.NewComponent("p2p", destID.String())
	require.NoError(t, err)
	dialAddr := ma.Join(relayAddrs[0], p2pComp, circuitComp, destComp)

	conn, err := transport.Dial(ctx, dialAddr)
	require.NoError(t, err)
	assert.Equal(t, destID, conn.RemotePeer())
	assert.Equal(t, transportName, conn.Transport())

	buf := make([]byte, len(prefix))
	n, err := conn.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(prefix), n)
	assert.Equal(t, prefix, buf)
}

func TestParseCircuitAddrSelfDial(t *testing.T) {
	relayID := mustPeerID(t)
	addr := ma.Join(mustAddr(t, "/ip4/1.2.3.4/tcp/4001"), mustP2P(t, relayID), mustComponent(t, "p2p-circuit", ""))

	relayAddr, parsedRelay, dest, err := parseCircuitAddr(addr)
	require.NoError(t, err)
	assert.Equal(t, relayID, parsedRelay)
	assert.Equal(t, relayID, dest)
	assert.Equal(t, "/ip4/1.2.3.4/tcp/4001", relayAddr.String())
}

func TestParseCircuitAddrWithDestination(t *testing.T) {
	relayID := mustPeerID(t)
	destID := mustPeerID(t)
	addr := ma.Join(
		mustAddr(t, "/ip4/1.2.3.4/tcp/4001"),
		mustP2P(t, relayID),
		mustComponent(t, "p2p-circuit", ""),
		mustP2P(t, destID),
	)

	_, parsedRelay, dest, err := parseCircuitAddr(addr)
	require.NoError(t, err)
	assert.Equal(t, relayID, parsedRelay)
	assert.Equal(t, destID, dest)
}

func TestParseCircuitAddrRejectsMissingCircuit(t *testing.T) {
	addr := mustAddr(t, "/ip4/1.2.3.4/tcp/4001")
	_, _, _, err := parseCircuitAddr(addr)
	require.Error(t, err)
}
