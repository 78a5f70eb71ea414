// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"lukechampine.com/uint128"

	"git.gammaspectra.live/monerod/consensus/p2p"
	"git.gammaspectra.live/monerod/consensus/p2p/p2ptest"
)

// fakeNotifier closes waited the first time Wait is called, then blocks
// until ctx is done, letting a test observe the exact moment the syncer
// reaches stateSynced without guessing at timing.
type fakeNotifier struct {
	waited chan struct{}
	once   sync.Once
}

func (n *fakeNotifier) Wait(ctx context.Context) (WakeReason, error) {
	n.once.Do(func() { close(n.waited) })
	<-ctx.Done()
	return 0, ctx.Err()
}

func TestSyncerDownloadsThenParksOnceSynced(t *testing.T) {
	peers := p2ptest.NewPeerSet()
	claim := p2p.ChainClaim{CumulativeDifficulty: uint128.From64(2000), Height: 3}
	client := peers.AddPeer(1, claim, 0)
	blockIDs := [][32]byte{{1}, {2}, {3}}
	client.ChainResp = p2p.ChainResponse{BlockIDs: blockIDs, CumulativeDifficulty: claim.CumulativeDifficulty}
	client.ObjectsResp = p2p.GetObjectsResponse{Blocks: [][]byte{{0xa}, {0xb}, {0xc}}}

	// Two calls (the initial stateCheckPeers comparison, then
	// findChainToFollow's own query) see the stale low difficulty; every
	// call after the batch is downloaded and drained sees the peer's
	// claim, so stateCheckPeers settles on stateSynced instead of
	// starting another downloader.
	chain := &fakeChainService{
		low:           uint128.From64(1000),
		high:          uint128.From64(2000),
		switchAfter:   2,
		unknownIndex:  0,
		unknownHeight: 10,
		hasUnknown:    true,
	}

	notifier := &fakeNotifier{waited: make(chan struct{})}
	out := make(chan BlockBatch, 10)
	syncer := NewSyncer(peers, chain, notifier, nil, out)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- syncer.Run(ctx) }()

	select {
	case <-notifier.waited:
	case <-time.After(5 * time.Second):
		t.Fatal("syncer never reached stateSynced")
	}
	cancel()
	if err := <-errCh; err != context.Canceled {
		t.Fatalf("Run = %v, want context.Canceled", err)
	}

	close(out)
	var batches []BlockBatch
	for b := range out {
		batches = append(batches, b)
	}
	if len(batches) != 1 {
		t.Fatalf("len(batches) = %d, want 1", len(batches))
	}
	if len(batches[0].Blocks) != 3 {
		t.Errorf("len(Blocks) = %d, want 3", len(batches[0].Blocks))
	}
}

// TestSyncerWaitsForFirstPeer checks the stateNoPeers branch: with no peer
// ever claiming a chain, the syncer never leaves waitForFirstPeer's polling
// loop and Run only returns once ctx itself expires.
func TestSyncerWaitsForFirstPeer(t *testing.T) {
	peers := p2ptest.NewPeerSet()
	chain := &fakeChainService{low: uint128.From64(1000), high: uint128.From64(1000)}
	notifier := &fakeNotifier{waited: make(chan struct{})}
	out := make(chan BlockBatch, 1)
	syncer := NewSyncer(peers, chain, notifier, nil, out)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := syncer.Run(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Run = %v, want context.DeadlineExceeded", err)
	}
}
