package client

import (
	"github.com/libp2p/go-libp2p/core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// parseCircuitAddr recognizes the two address shapes the transport accepts:
//
//	<relay-addrs>/p2p/<relay-id>/circuit
//	<relay-addrs>/p2p/<relay-id>/circuit/p2p/<dest-id>
//
// The first dials the relay through itself; destID equals relayID. Anything
// else returns ErrInvalidCircuitAddr.
func parseCircuitAddr(addr ma.Multiaddr) (relayAddr ma.Multiaddr, relayID peer.ID, destID peer.ID, err error) {
	parts := ma.Split(addr)

	circuitIdx := -1
	for i, p := range parts {
		if protoCode(p) == ma.P_CIRCUIT {
			circuitIdx = i
			break
		}
	}
	if circuitIdx < 0 {
		return nil, "", "", &ErrInvalidCircuitAddr{Addr: addr.String()}
	}

	before := parts[:circuitIdx]
	after := parts[circuitIdx+1:]

	if len(before) == 0 {
		return nil, "", "", &ErrInvalidCircuitAddr{Addr: addr.String()}
	}
	relayComp := before[len(before)-1]
	relayVal, err := relayComp.ValueForProtocol(ma.P_P2P)
	if err != nil {
		return nil, "", "", &ErrInvalidCircuitAddr{Addr: addr.String()}
	}
	relayID, err = peer.Decode(relayVal)
	if err != nil {
		return nil, "", "", &ErrInvalidCircuitAddr{Addr: addr.String()}
	}
	relayAddr = ma.Join(before[:len(before)-1]...)

	switch len(after) {
	case 0:
		return relayAddr, relayID, relayID, nil
	case 1:
		destVal, err := after[0].ValueForProtocol(ma.P_P2P)
		if err != nil {
			return nil, "", "", &ErrInvalidCircuitAddr{Addr: addr.String()}
		}
		destID, err = peer.Decode(destVal)
		if err != nil {
			return nil, "", "", &ErrInvalidCircuitAddr{Addr: addr.String()}
		}
		return relayAddr, relayID, destID, nil
	default:
		return nil, "", "", &ErrInvalidCircuitAddr{Addr: addr.String()}
	}
}

func protoCode(m ma.Multiaddr) int {
	protos := m.Protocols()
	if len(protos) == 0 {
		return -1
	}
	return protos[0].Code
}

// circuitAddr builds the dial address for destID reached via relayID at
// relayAddr, eliding a /p2p/<relayID> component relayAddr already carries.
func circuitAddr(relayAddr ma.Multiaddr, relayID peer.ID, destID peer.ID) (ma.Multiaddr, error) {
	if _, err := relayAddr.ValueForProtocol(ma.P_P2P); err != nil {
		p2pComp, err := ma.NewComponent("p2p", relayID.String())
		if err != nil {
			return nil, err
		}
		relayAddr = relayAddr.Encapsulate(p2pComp)
	}
	circuitComp, err := ma.NewComponent("p2p-circuit", "")
	if err != nil {
		return nil, err
	}
	out := relayAddr.Encapsulate(circuitComp)
	if destID != relayID {
		destComp, err := ma.NewComponent("p2p", destID.String())
		if err != nil {
			return nil, err
		}
		out = out.Encapsulate(destComp)
	}
	return out, nil
}
