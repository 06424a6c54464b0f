// Package client implements the circuit relay v2 client side: the one-shot
// RESERVE exchange (reservation.go) and the HOP-dial/STOP-accept transport
// that turns a relayed stream into a virtual point-to-point connection.
package client

import (
	"bufio"
	"context"
	"io"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	pool "github.com/libp2p/go-buffer-pool"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/google/uuid"

	pb "github.com/omgolab/go-relaymesh/circuitv2/pb"
	cproto "github.com/omgolab/go-relaymesh/circuitv2/proto"
	"github.com/omgolab/go-relaymesh/circuitv2/util"
	"github.com/omgolab/go-relaymesh/relayhost"
)

// wireLog traces malformed-message and framing anomalies below the level of
// the host-injected logger, which callers may leave nil. Namespaced the way
// go-libp2p's own circuit client namespaces its wire-protocol logger.
var wireLog = logging.Logger("circuitv2")

// Deadlines fixed by the wire protocol.
const (
	hopNegotiateTimeout = 15 * time.Second
	dialToRelayTimeout  = 10 * time.Second

	dialReadBufSize = 4096
)

// Transport speaks the circuit relay v2 HOP/STOP protocols over a host.
// It does not open a listening socket: "listening" means registering a
// STOP handler, and incoming virtual connections arrive through the
// accept channel returned by Listen.
type Transport struct {
	host   relayhost.Host
	logger glog.Logger

	mu      sync.Mutex
	conns   map[peer.ID]*Conn
	acceptC chan *Conn
	closed  bool
}

// NewTransport registers no handlers by itself; call Listen to start
// accepting incoming relayed connections.
func NewTransport(h relayhost.Host, logger glog.Logger) *Transport {
	return &Transport{
		host:    h,
		logger:  logger,
		conns:   make(map[peer.ID]*Conn),
		acceptC: make(chan *Conn, 16),
	}
}

// Dial opens a virtual connection to addr's destination peer through the
// relay it names. addr must match one of the two circuit address shapes;
// anything else fails with ErrInvalidCircuitAddr.
func (t *Transport) Dial(ctx context.Context, addr ma.Multiaddr) (*Conn, error) {
	relayAddr, relayID, destID, err := parseCircuitAddr(addr)
	if err != nil {
		return nil, err
	}

	if len(relayAddr.Bytes()) > 0 {
		t.host.AddrBook().AddAddrs(relayID, []ma.Multiaddr{relayAddr}, relayhost.ConnectedAddrTTL)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialToRelayTimeout)
	defer cancel()

	s, err := t.host.NewStream(dialCtx, relayID, cproto.ProtoIDv2Hop)
	if err != nil {
		return nil, &DialError{Status: pb.Status_CONNECTION_FAILED, Reason: "failed to open HOP stream", err: err}
	}

	if err := s.SetDeadline(time.Now().Add(hopNegotiateTimeout)); err != nil {
		s.Reset()
		return nil, &DialError{Status: pb.Status_CONNECTION_FAILED, Reason: "failed to set deadline", err: err}
	}

	wr := util.NewDelimitedWriter(s)
	connectType := pb.HopMessage_CONNECT
	sessionID := uuid.NewString()
	req := &pb.HopMessage{
		Type:                &connectType,
		Peer:                &pb.Peer{Id: []byte(destID)},
		DiagnosticSessionId: &sessionID,
	}
	if err := wr.WriteMsg(req); err != nil {
		s.Reset()
		return nil, &DialError{Status: pb.Status_CONNECTION_FAILED, Reason: "error writing connect message", err: err}
	}

	var resp pb.HopMessage
	leftover, err := readDelimitedLeftover(s, cproto.MaxMessageSize, &resp)
	if err != nil {
		wireLog.Debugf("hop: error reading connect response from relay %s: %s", relayID, err)
		s.Reset()
		return nil, &DialError{Status: pb.Status_CONNECTION_FAILED, Reason: "error reading connect response", err: err}
	}

	if resp.GetType() != pb.HopMessage_STATUS || resp.GetStatus() != pb.Status_OK {
		wireLog.Debugf("hop: relay %s refused connect: status=%s", relayID, resp.GetStatus())
		s.Reset()
		return nil, &DialError{Status: resp.GetStatus(), Reason: "relay refused connect"}
	}

	if err := s.SetDeadline(time.Time{}); err != nil {
		s.Reset()
		return nil, &DialError{Status: pb.Status_CONNECTION_FAILED, Reason: "failed to clear deadline", err: err}
	}

	remoteAddr, err := circuitAddr(relayAddr, relayID, destID)
	if err != nil {
		s.Reset()
		return nil, &DialError{Status: pb.Status_CONNECTION_FAILED, Reason: "failed to build remote address", err: err}
	}

	conn := newConn(newPrependedStream(s, leftover), t.host.ID(), destID, nil, remoteAddr)
	t.track(destID, conn)
	return conn, nil
}

// Listen registers a STOP protocol handler and returns the accept channel
// incoming virtual connections arrive on. Calling Listen more than once on
// the same Transport is a no-op after the first call.
func (t *Transport) Listen() <-chan *Conn {
	t.host.SetStreamHandler(cproto.ProtoIDv2Stop, t.handleStop)
	return t.acceptC
}

// Close deregisters the STOP handler and closes the accept channel. Already
// established virtual connections are not closed.
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	t.host.RemoveStreamHandler(cproto.ProtoIDv2Stop)
	close(t.acceptC)
	return nil
}

func (t *Transport) handleStop(s network.Stream) {
	if err := s.SetDeadline(time.Now().Add(hopNegotiateTimeout)); err != nil {
		s.Reset()
		return
	}

	rd := util.NewDelimitedReader(s, cproto.MaxMessageSize)
	var msg pb.StopMessage
	if err := rd.ReadMsg(&msg); err != nil {
		wireLog.Debugf("stop: malformed message from relay %s: %s", s.Conn().RemotePeer(), err)
		s.Reset()
		return
	}

	if msg.GetType() != pb.StopMessage_CONNECT || msg.GetPeer() == nil {
		wireLog.Debugf("stop: unexpected message type from relay %s", s.Conn().RemotePeer())
		s.Reset()
		return
	}

	srcID, err := peer.IDFromBytes(msg.GetPeer().GetId())
	if err != nil {
		wireLog.Debugf("stop: invalid source peer id: %s", err)
		s.Reset()
		return
	}

	relayConn := s.Conn()
	remoteAddr, err := circuitAddr(relayConn.RemoteMultiaddr(), relayConn.RemotePeer(), srcID)
	if err != nil {
		wireLog.Debugf("stop: failed to build remote address for %s: %s", srcID, err)
		s.Reset()
		return
	}
	t.host.AddrBook().AddAddrs(srcID, []ma.Multiaddr{remoteAddr}, relayhost.ConnectedAddrTTL)

	wr := util.NewDelimitedWriter(s)
	statusType := pb.StopMessage_STATUS
	okStatus := pb.Status_OK
	resp := &pb.StopMessage{Type: &statusType, Status: &okStatus}
	if err := wr.WriteMsg(resp); err != nil {
		s.Reset()
		return
	}

	if err := s.SetDeadline(time.Time{}); err != nil {
		s.Reset()
		return
	}

	conn := newConn(s, t.host.ID(), srcID, nil, remoteAddr)
	t.track(srcID, conn)

	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		s.Reset()
		return
	}

	select {
	case t.acceptC <- conn:
	default:
		if t.logger != nil {
			t.logger.Warn("dropping incoming relayed connection: accept queue full", glog.LogFields{"peer": srcID.String()})
		}
		s.Reset()
	}
}

func (t *Transport) track(id peer.ID, c *Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[id] = c
}

// ConnToPeer returns the most recently tracked virtual connection to id, if
// any. It exists for cleanup and reporting only; it is never used to dedupe
// concurrent dials.
func (t *Transport) ConnToPeer(id peer.ID) (*Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.conns[id]
	return c, ok
}

// readDelimitedLeftover reads exactly one varint-length-delimited protobuf
// frame from s into msg, using a locally scoped bufio.Reader so that any
// bytes the peer already pushed into the same TCP segment past the frame
// boundary can be recovered instead of lost: the relay is free to start
// forwarding application bytes the instant it has sent STATUS OK, racing
// ahead of our own read loop.
func readDelimitedLeftover(s network.Stream, maxSize int, msg *pb.HopMessage) ([]byte, error) {
	br := bufio.NewReaderSize(s, dialReadBufSize)

	length, err := readUvarintFrom(br)
	if err != nil {
		return nil, err
	}
	if int(length) > maxSize {
		return nil, io.ErrShortBuffer
	}

	buf := pool.Get(int(length))
	defer pool.Put(buf)

	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, err
	}
	if err := msg.Unmarshal(buf); err != nil {
		return nil, err
	}

	n := br.Buffered()
	if n == 0 {
		return nil, nil
	}
	leftover, err := br.Peek(n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), leftover...), nil
}

func readUvarintFrom(br *bufio.Reader) (uint64, error) {
	var v uint64
	var shift uint
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		v |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return v, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, io.ErrUnexpectedEOF
		}
	}
}
