package relayfinder

import (
	"context"

	"github.com/libp2p/go-libp2p/core/event"
	"github.com/libp2p/go-libp2p/core/network"
)

// disconnectLoop keeps a subscription to peer-connectedness events open for
// RelayFinder's lifetime, dropping any relay that goes not_connected.
func (f *RelayFinder) disconnectLoop(ctx context.Context) {
	sub, err := f.host.EventBus().Subscribe(new(event.EvtPeerConnectednessChanged))
	if err != nil {
		f.logError("relayfinder: failed to subscribe to connectedness events", err)
		return
	}
	defer sub.Close()

	for {
		select {
		case <-f.stop:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Out():
			if !ok {
				return
			}
			evt := ev.(event.EvtPeerConnectednessChanged)
			if evt.Connectedness != network.NotConnected {
				continue
			}

			f.relayMx.Lock()
			_, isRelay := f.relays[evt.Peer]
			f.relayMx.Unlock()

			if isRelay {
				f.dropRelay(evt.Peer)
				f.maybeConnect.send()
				f.needCandidates.send()
			}
		}
	}
}
