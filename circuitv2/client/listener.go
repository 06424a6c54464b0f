package client

import (
	"context"
	"io"
	"net"

	ma "github.com/multiformats/go-multiaddr"
)

var _ net.Listener = (*Listener)(nil)

// Listener bridges incoming relayed virtual connections into the standard
// net.Listener shape, the same bridge pattern used for direct stream-based
// transports on this host.
type Listener struct {
	t         *Transport
	requested []ma.Multiaddr
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewListener starts accepting circuit relay v2 connections. requestedAddrs are
// the addresses the caller wants advertised for this listener (typically
// the reservation addresses assembled by RelayFinder); if empty,
// ListenAddrs reports a generic `/p2p/<id>/circuit` advertisement.
func (t *Transport) NewListener(requestedAddrs []ma.Multiaddr) *Listener {
	t.Listen()
	ctx, cancel := context.WithCancel(context.Background())
	return &Listener{t: t, requested: requestedAddrs, ctx: ctx, cancel: cancel}
}

// Accept blocks until an incoming relayed virtual connection arrives or the
// listener is closed.
func (l *Listener) Accept() (net.Conn, error) {
	select {
	case <-l.ctx.Done():
		return nil, io.EOF
	case c, ok := <-l.t.acceptC:
		if !ok {
			return nil, io.EOF
		}
		return c, nil
	}
}

// Addr returns the first advertised address (see ListenAddrs) converted to
// a net.Addr. Circuit addresses have no net.Addr form, so they are reported
// as 0.0.0.0:0.
func (l *Listener) Addr() net.Addr {
	addrs := l.ListenAddrs()
	if len(addrs) == 0 {
		return &net.TCPAddr{IP: net.IPv4zero, Port: 0}
	}
	return netAddrOrFallback(addrs[0])
}

// ListenAddrs returns the addresses this listener is reachable on. If none
// were explicitly requested, it falls back to a generic advertisement of
// this host's own identity through any relay: `/p2p/<this-host>/circuit`.
func (l *Listener) ListenAddrs() []ma.Multiaddr {
	if len(l.requested) > 0 {
		return l.requested
	}
	p2pComp, err := ma.NewComponent("p2p", l.t.host.ID().String())
	if err != nil {
		return nil
	}
	circuitComp, err := ma.NewComponent("p2p-circuit", "")
	if err != nil {
		return nil
	}
	return []ma.Multiaddr{ma.Join(p2pComp, circuitComp)}
}

// Close stops accepting new connections and deregisters the STOP handler.
func (l *Listener) Close() error {
	l.cancel()
	return l.t.Close()
}
