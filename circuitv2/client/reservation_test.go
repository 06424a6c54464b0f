package client

import (
	"context"
	"testing"
	"time"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pb "github.com/omgolab/go-relaymesh/circuitv2/pb"
	cproto "github.com/omgolab/go-relaymesh/circuitv2/proto"
	"github.com/omgolab/go-relaymesh/circuitv2/util"
)

func TestReserveHappyPath(t *testing.T) {
	relay, err := libp2p.New()
	require.NoError(t, err)
	defer relay.Close()

	client, err := libp2p.New()
	require.NoError(t, err)
	defer client.Close()

	relay.SetStreamHandler(cproto.ProtoIDv2Hop, func(s network.Stream) {
		defer s.Close()
		rd := util.NewDelimitedReader(s, cproto.MaxMessageSize)
		var req pb.HopMessage
		if err := rd.ReadMsg(&req); err != nil {
			s.Reset()
			return
		}
		if req.GetType() != pb.HopMessage_RESERVE {
			s.Reset()
			return
		}

		wr := util.NewDelimitedWriter(s)
		statusType := pb.HopMessage_STATUS
		ok := pb.Status_OK
		expire := uint64(time.Now().Add(time.Hour).Unix())
		addrBytes, err := relay.Addrs()[0].MarshalBinary()
		require.NoError(t, err)
		resp := &pb.HopMessage{
			Type:   &statusType,
			Status: &ok,
			Reservation: &pb.Reservation{
				Expire: &expire,
				Addrs:  [][]byte{addrBytes},
			},
		}
		require.NoError(t, wr.WriteMsg(resp))
	})

	client.Peerstore().AddAddrs(relay.ID(), relay.Addrs(), time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Connect(ctx, client.Peerstore().PeerInfo(relay.ID())))

	s, err := client.NewStream(ctx, relay.ID(), cproto.ProtoIDv2Hop)
	require.NoError(t, err)
	defer s.Close()

	rsvp, err := Reserve(s, nil)
	require.NoError(t, err)
	assert.True(t, rsvp.Expiration.After(time.Now()))
	assert.Len(t, rsvp.Addrs, 1)
}

func TestReserveRefused(t *testing.T) {
	relay, err := libp2p.New()
	require.NoError(t, err)
	defer relay.Close()

	cl, err := libp2p.New()
	require.NoError(t, err)
	defer cl.Close()

	relay.SetStreamHandler(cproto.ProtoIDv2Hop, func(s network.Stream) {
		defer s.Close()
		rd := util.NewDelimitedReader(s, cproto.MaxMessageSize)
		var req pb.HopMessage
		require.NoError(t, rd.ReadMsg(&req))

		wr := util.NewDelimitedWriter(s)
		statusType := pb.HopMessage_STATUS
		refused := pb.Status_RESERVATION_REFUSED
		resp := &pb.HopMessage{Type: &statusType, Status: &refused}
		require.NoError(t, wr.WriteMsg(resp))
	})

	cl.Peerstore().AddAddrs(relay.ID(), relay.Addrs(), time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, cl.Connect(ctx, cl.Peerstore().PeerInfo(relay.ID())))

	s, err := cl.NewStream(ctx, relay.ID(), cproto.ProtoIDv2Hop)
	require.NoError(t, err)
	defer s.Close()

	_, err = Reserve(s, nil)
	require.Error(t, err)
	var rsvpErr *ReservationError
	require.ErrorAs(t, err, &rsvpErr)
	assert.Equal(t, pb.Status_RESERVATION_REFUSED, rsvpErr.Status)
}
