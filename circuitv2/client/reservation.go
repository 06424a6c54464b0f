package client

import (
	"fmt"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	ma "github.com/multiformats/go-multiaddr"
	glog "github.com/omgolab/go-commons/pkg/log"

	pb "github.com/omgolab/go-relaymesh/circuitv2/pb"
	cproto "github.com/omgolab/go-relaymesh/circuitv2/proto"
	"github.com/omgolab/go-relaymesh/circuitv2/util"
)

// ReserveTimeout is the hard deadline on the whole RESERVE exchange, set on
// the stream itself.
var ReserveTimeout = time.Minute

// Reservation is the client-side view of a relay's grant: when it expires,
// which addresses the relay advertises for us, and (optionally) the
// signed voucher and byte/time limits the relay imposed.
type Reservation struct {
	Expiration    time.Time
	Addrs         []ma.Multiaddr
	Voucher       []byte
	LimitDuration time.Duration
	LimitData     uint64
}

// Reserve performs exactly one RESERVE exchange on s, which must already be
// a stream negotiated under the HOP protocol to the relay peer. s is reset
// on any failure; it is left open (for a subsequent CONNECT) on success, so
// callers that only wanted the reservation should close it themselves.
func Reserve(s network.Stream, logger glog.Logger) (*Reservation, error) {
	if err := s.SetDeadline(time.Now().Add(ReserveTimeout)); err != nil {
		s.Reset()
		return nil, err
	}

	wr := util.NewDelimitedWriter(s)
	rd := util.NewDelimitedReader(s, cproto.MaxMessageSize)

	reserveType := pb.HopMessage_RESERVE
	req := &pb.HopMessage{Type: &reserveType}
	if err := wr.WriteMsg(req); err != nil {
		s.Reset()
		return nil, &ReservationError{Status: pb.Status_CONNECTION_FAILED, Reason: "error writing reserve message", err: err}
	}

	var resp pb.HopMessage
	if err := rd.ReadMsg(&resp); err != nil {
		s.Reset()
		return nil, &ReservationError{Status: pb.Status_CONNECTION_FAILED, Reason: "error reading reserve response", err: err}
	}

	if resp.GetType() != pb.HopMessage_STATUS {
		s.Reset()
		return nil, &ReservationError{Status: pb.Status_MALFORMED_MESSAGE, Reason: "unexpected message type"}
	}

	if status := resp.GetStatus(); status != pb.Status_OK {
		s.Reset()
		return nil, &ReservationError{Status: status, Reason: "reservation refused"}
	}

	rsvp := resp.GetReservation()
	if rsvp == nil {
		s.Reset()
		return nil, &ReservationError{Status: pb.Status_MALFORMED_MESSAGE, Reason: "missing reservation message"}
	}

	expireAt := time.Unix(int64(rsvp.GetExpire()), 0)
	if time.Until(expireAt) <= 0 {
		s.Reset()
		return nil, &ReservationError{Status: pb.Status_MALFORMED_MESSAGE, Reason: "received expired reservation"}
	}

	addrs := make([]ma.Multiaddr, 0, len(rsvp.GetAddrs()))
	for _, ab := range rsvp.GetAddrs() {
		a, err := ma.NewMultiaddrBytes(ab)
		if err != nil {
			if logger != nil {
				logger.Warn("dropping unparsable reservation address", glog.LogFields{"error": err.Error()})
			}
			continue
		}
		addrs = append(addrs, a)
	}

	result := &Reservation{
		Expiration: expireAt,
		Addrs:      addrs,
		Voucher:    append([]byte(nil), rsvp.GetVoucher()...),
	}

	if limit := resp.GetLimit(); limit != nil {
		result.LimitDuration = time.Duration(limit.GetDuration()) * time.Second
		result.LimitData = limit.GetData()
	}

	if err := s.SetDeadline(time.Time{}); err != nil {
		s.Reset()
		return nil, fmt.Errorf("clearing reservation stream deadline: %w", err)
	}

	return result, nil
}
