package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/libp2p/go-libp2p/core/event"
	glog "github.com/omgolab/go-commons/pkg/log"

	"github.com/omgolab/go-relaymesh/autorelay"
)

func main() {
	log, err := glog.New()
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dh, err := newDemoHost(ctx, log)
	if err != nil {
		log.Error("failed to start host", err)
		os.Exit(1)
	}
	defer dh.Close()

	sub, err := dh.host.EventBus().Subscribe(new(autorelay.EvtAutoRelayAddrsUpdated))
	if err != nil {
		log.Error("failed to subscribe to address updates", err)
		os.Exit(1)
	}
	defer sub.Close()

	go logAddrUpdates(sub, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info("shutting down", nil)
}

func logAddrUpdates(sub event.Subscription, log glog.Logger) {
	for ev := range sub.Out() {
		updated := ev.(autorelay.EvtAutoRelayAddrsUpdated)
		addrs := make([]string, 0, len(updated.RelayAddrs))
		for _, a := range updated.RelayAddrs {
			addrs = append(addrs, a.String())
		}
		log.Info("advertisable addresses updated", glog.LogFields{"addrs": addrs})
	}
}
