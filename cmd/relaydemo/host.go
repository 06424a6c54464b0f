// Command relaydemo wires CircuitV2 client transport and the AutoRelay
// supervisor onto a real libp2p host, the way pkg/core/host.CreateLibp2pHost
// wires libp2p's built-in relay and discovery stack. Unlike that builder,
// relay support here comes from this module's own autorelay/relayfinder/
// circuitv2 packages rather than libp2p.EnableRelay.
package main

import (
	"context"
	"sync"
	"time"

	"github.com/libp2p/go-libp2p"
	dht "github.com/libp2p/go-libp2p-kad-dht"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/core/routing"
	libp2pmdns "github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	drouting "github.com/libp2p/go-libp2p/p2p/discovery/routing"
	dutil "github.com/libp2p/go-libp2p/p2p/discovery/util"
	connmgr "github.com/libp2p/go-libp2p/p2p/net/connmgr"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/omgolab/go-relaymesh/autorelay"
	"github.com/omgolab/go-relaymesh/circuitv2/client"
	"github.com/omgolab/go-relaymesh/relayfinder"
	"github.com/omgolab/go-relaymesh/relayhost"
)

const discoveryTag = "go-relaymesh-demo"

// demoHost bundles the pieces relaydemo tears down on exit.
type demoHost struct {
	host      host.Host
	transport *client.Transport
	relay     *autorelay.AutoRelay
	dht       *dht.IpfsDHT
}

func newDemoHost(ctx context.Context, log glog.Logger) (*demoHost, error) {
	var kademliaDHT *dht.IpfsDHT
	var dhtErr error
	var dhtOnce sync.Once

	h, err := libp2p.New(
		libp2p.ListenAddrStrings("/ip4/0.0.0.0/tcp/0", "/ip4/0.0.0.0/tcp/0/ws"),
		libp2p.ConnectionManager(mustConnManager()),
		libp2p.DefaultMuxers,
		libp2p.DefaultTransports,
		libp2p.DefaultSecurity,
		libp2p.EnableNATService(),
		libp2p.NATPortMap(),
		libp2p.EnableHolePunching(),
		// No libp2p.EnableRelay(): relay support is supplied below by this
		// module's own circuitv2/relayfinder/autorelay stack instead.
		libp2p.Routing(func(h host.Host) (routing.PeerRouting, error) {
			dhtOnce.Do(func() {
				kademliaDHT, dhtErr = setupDHT(ctx, h, log)
			})
			return kademliaDHT, dhtErr
		}),
	)
	if err != nil {
		return nil, err
	}

	log.Info("libp2p host created", glog.LogFields{
		"peerID": h.ID().String(),
		"addrs":  h.Addrs(),
	})

	if err := setupMDNS(h, log); err != nil {
		log.Error("mDNS discovery unavailable", err)
	}

	wrapped := relayhost.Wrap(h)
	transport := client.NewTransport(wrapped, log)
	transport.Listen()

	peerSource, err := relayfinder.NewDHTPeerSource(ctx, h, discoveryTag)
	if err != nil {
		return nil, err
	}

	relay, err := autorelay.New(wrapped, log, relayfinder.WithPeerSource(peerSource))
	if err != nil {
		return nil, err
	}
	if err := relay.Start(ctx); err != nil {
		return nil, err
	}

	return &demoHost{host: h, transport: transport, relay: relay, dht: kademliaDHT}, nil
}

func (d *demoHost) Close() error {
	d.relay.Close()
	d.transport.Close()
	return d.host.Close()
}

func mustConnManager() *connmgr.BasicConnMgr {
	cm, err := connmgr.NewConnManager(100, 400, connmgr.WithGracePeriod(time.Minute))
	if err != nil {
		panic(err)
	}
	return cm
}

func setupDHT(ctx context.Context, h host.Host, log glog.Logger) (*dht.IpfsDHT, error) {
	bootstrapPeers, _ := peer.AddrInfosFromP2pAddrs(dht.DefaultBootstrapPeers...)
	kademliaDHT, err := dht.New(ctx, h, dht.Mode(dht.ModeAuto), dht.BootstrapPeers(bootstrapPeers...))
	if err != nil {
		return nil, err
	}

	log.Debug("bootstrapping DHT", nil)
	if err := kademliaDHT.Bootstrap(ctx); err != nil {
		return nil, err
	}

	go func() {
		time.Sleep(2 * time.Second)
		rd := drouting.NewRoutingDiscovery(kademliaDHT)
		log.Info("advertising self on DHT", glog.LogFields{"tag": discoveryTag})
		dutil.Advertise(ctx, rd, discoveryTag)
	}()
	return kademliaDHT, nil
}

type discoveryNotifee struct {
	h   host.Host
	log glog.Logger
}

func (n *discoveryNotifee) HandlePeerFound(pi peer.AddrInfo) {
	if pi.ID == n.h.ID() {
		return
	}
	connCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := n.h.Connect(connCtx, pi); err != nil {
		n.log.Debug("mDNS peer connect failed", glog.LogFields{"peer": pi.ID.String(), "error": err.Error()})
	}
}

func setupMDNS(h host.Host, log glog.Logger) error {
	notifee := &discoveryNotifee{h: h, log: log}
	return libp2pmdns.NewMdnsService(h, discoveryTag, notifee).Start()
}
