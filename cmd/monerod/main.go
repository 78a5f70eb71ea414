// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command monerod is a development entrypoint wiring the context service
// and the syncer together against the in-memory chainiotest/p2ptest
// collaborators. Downloaded batches are logged and their permit released;
// they are not passed through the verification pipeline (consensus/verify).
// It owns process plumbing —
// flag parsing, log rotation, signal handling — and delegates everything
// consensus-shaped to the packages under consensus/ and netsync/.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.gammaspectra.live/monerod/consensus/chainio/chainiotest"
	ctxsvc "git.gammaspectra.live/monerod/consensus/consensus/context"
	"git.gammaspectra.live/monerod/consensus/consensus/pow"
	"git.gammaspectra.live/monerod/consensus/internal/config"
	"git.gammaspectra.live/monerod/consensus/internal/slogging"
	"git.gammaspectra.live/monerod/consensus/netsync"
	"git.gammaspectra.live/monerod/consensus/p2p/p2ptest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("monerod: %w", err)
	}

	if err := os.MkdirAll(cfg.LogDir, 0o700); err == nil {
		if err := slogging.InitLogRotator(cfg.LogDir + "/" + "monerod.log"); err != nil {
			return fmt.Errorf("monerod: %w", err)
		}
	}
	defer slogging.Close()
	if err := slogging.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return fmt.Errorf("monerod: %w", err)
	}

	params, err := config.NetworkParams(cfg.Network)
	if err != nil {
		return fmt.Errorf("monerod: %w", err)
	}
	slogging.MAIN.Infof("monerod starting on %s", params.Net.String())

	store := chainiotest.New()

	vmBuilder := ctxsvc.VMBuilder(pow.NoRandomXBuilder{})
	if cfg.NoRandomX {
		slogging.MAIN.Warn("RandomX VM construction disabled by --norandomx")
	}

	ctxSvc, err := ctxsvc.NewService(storeAdapter{read: store}, params, vmBuilder)
	if err != nil {
		return fmt.Errorf("monerod: starting context service: %w", err)
	}
	defer ctxSvc.Close()

	peers := p2ptest.NewPeerSet()
	chainSvc := chainServiceAdapter{ctxSvc: ctxSvc, store: storeAdapter{read: store}}

	batches := make(chan netsync.BlockBatch)
	notifier := noWakeNotifier{}
	syncer := netsync.NewSyncer(peers, chainSvc, notifier, nil, batches)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		slogging.MAIN.Info("shutting down")
		cancel()
	}()

	go func() {
		for batch := range batches {
			slogging.SYNC.Debugf("received batch at height %d (%d blocks) from peer %d", batch.StartHeight, len(batch.Blocks), batch.Peer)
			if batch.Permit != nil {
				batch.Permit()
			}
		}
	}()

	if err := syncer.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("monerod: syncer stopped: %w", err)
	}
	return nil
}

// noWakeNotifier is a PeerSyncNotifier that never wakes on its own; this
// development entrypoint has no long-running peer connections to watch,
// so Wait simply blocks until the caller's context is canceled.
type noWakeNotifier struct{}

func (noWakeNotifier) Wait(ctx context.Context) (netsync.WakeReason, error) {
	<-ctx.Done()
	return netsync.WakeRecheck, ctx.Err()
}
