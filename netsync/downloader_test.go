// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"context"
	"errors"
	"sync"
	"testing"

	"lukechampine.com/uint128"

	"git.gammaspectra.live/monerod/consensus/p2p"
	"git.gammaspectra.live/monerod/consensus/p2p/p2ptest"
)

// fakeChainService reports a low cumulative difficulty for its first
// switchAfter calls and a high one after, letting a test simulate the
// downloader's own chain catching up to a peer's claim across the run
// without needing a real context service behind it.
type fakeChainService struct {
	mu          sync.Mutex
	calls       int
	switchAfter int
	low, high   uint128.Uint128

	history       [][32]byte
	unknownIndex  int
	unknownHeight uint64
	hasUnknown    bool
}

func (c *fakeChainService) CompactHistory(ctx context.Context) ([][32]byte, uint128.Uint128, error) {
	return c.history, c.low, nil
}

func (c *fakeChainService) FindFirstUnknown(ctx context.Context, ids [][32]byte) (int, uint64, bool, error) {
	return c.unknownIndex, c.unknownHeight, c.hasUnknown, nil
}

func (c *fakeChainService) CumulativeDifficulty(ctx context.Context) (uint128.Uint128, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls > c.switchAfter {
		return c.high, nil
	}
	return c.low, nil
}

func TestBlockDownloaderDownloadsFullChainThenStops(t *testing.T) {
	peers := p2ptest.NewPeerSet()
	claim := p2p.ChainClaim{CumulativeDifficulty: uint128.From64(2000), Height: 3}
	client := peers.AddPeer(1, claim, 0)
	blockIDs := [][32]byte{{1}, {2}, {3}}
	client.ChainResp = p2p.ChainResponse{BlockIDs: blockIDs, CumulativeDifficulty: claim.CumulativeDifficulty}
	client.ObjectsResp = p2p.GetObjectsResponse{Blocks: [][]byte{{0xa}, {0xb}, {0xc}}}

	chain := &fakeChainService{
		low:           uint128.From64(1000),
		high:          uint128.From64(2000),
		switchAfter:   2,
		unknownIndex:  0,
		unknownHeight: 10,
		hasUnknown:    true,
	}

	out := make(chan BlockBatch, 10)
	dl := NewBlockDownloader(peers, chain, out, nil)
	if err := dl.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	close(out)
	var batches []BlockBatch
	for b := range out {
		batches = append(batches, b)
	}
	if len(batches) != 1 {
		t.Fatalf("len(batches) = %d, want 1", len(batches))
	}
	if batches[0].StartHeight != 10 {
		t.Errorf("StartHeight = %d, want 10", batches[0].StartHeight)
	}
	if len(batches[0].Blocks) != 3 {
		t.Errorf("len(Blocks) = %d, want 3", len(batches[0].Blocks))
	}
	if batches[0].Peer != 1 {
		t.Errorf("Peer = %d, want 1", batches[0].Peer)
	}
}

func TestBlockDownloaderFailsWithNoCandidatePeers(t *testing.T) {
	peers := p2ptest.NewPeerSet() // no peers registered at all
	chain := &fakeChainService{low: uint128.From64(1000), high: uint128.From64(1000)}

	out := make(chan BlockBatch, 1)
	dl := NewBlockDownloader(peers, chain, out, nil)
	err := dl.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error when no peer claims more proof of work")
	}
	var derr *DownloadError
	if !errors.As(err, &derr) {
		t.Fatalf("expected a DownloadError, got %v", err)
	}
	if derr.Kind != FailedToFindAChainToFollow {
		t.Errorf("Kind = %v, want FailedToFindAChainToFollow", derr.Kind)
	}
}

// TestBlockDownloaderBansPeerForShortResponse checks that an incomplete
// response bans its peer and re-queues the requested range rather than
// skipping it: with only one peer registered, the retry can never find a
// free peer to dispatch to and Run fails closed instead of silently
// dropping those heights or spinning forever.
func TestBlockDownloaderBansPeerForShortResponse(t *testing.T) {
	peers := p2ptest.NewPeerSet()
	claim := p2p.ChainClaim{CumulativeDifficulty: uint128.From64(2000), Height: 3}
	client := peers.AddPeer(1, claim, 0)
	blockIDs := [][32]byte{{1}, {2}, {3}}
	client.ChainResp = p2p.ChainResponse{BlockIDs: blockIDs, CumulativeDifficulty: claim.CumulativeDifficulty}
	// Only two of the three requested blocks are returned.
	client.ObjectsResp = p2p.GetObjectsResponse{Blocks: [][]byte{{0xa}, {0xb}}}

	chain := &fakeChainService{
		low:           uint128.From64(1000),
		high:          uint128.From64(1000),
		switchAfter:   1 << 30,
		unknownIndex:  0,
		unknownHeight: 10,
		hasUnknown:    true,
	}

	out := make(chan BlockBatch, 10)
	dl := NewBlockDownloader(peers, chain, out, nil)

	err := dl.Run(context.Background())
	var derr *DownloadError
	if !errors.As(err, &derr) {
		t.Fatalf("Run = %v, want a DownloadError", err)
	}
	if derr.Kind != FailedToFindAChainToFollow {
		t.Errorf("Kind = %v, want FailedToFindAChainToFollow", derr.Kind)
	}
	if _, err := peers.Borrow(context.Background(), nil); err == nil {
		t.Error("expected the sole peer to still be banned after Run returns")
	}
}

// TestBlockDownloaderBansPeerForOverlongResponse mirrors the short-response
// case for a peer that returns more blocks than it was asked for: there is
// no requested height left to call missing, but the over-supply is just as
// invalid and must still ban the peer rather than being silently accepted.
func TestBlockDownloaderBansPeerForOverlongResponse(t *testing.T) {
	peers := p2ptest.NewPeerSet()
	claim := p2p.ChainClaim{CumulativeDifficulty: uint128.From64(2000), Height: 3}
	client := peers.AddPeer(1, claim, 0)
	blockIDs := [][32]byte{{1}, {2}, {3}}
	client.ChainResp = p2p.ChainResponse{BlockIDs: blockIDs, CumulativeDifficulty: claim.CumulativeDifficulty}
	// One more block than the three requested.
	client.ObjectsResp = p2p.GetObjectsResponse{Blocks: [][]byte{{0xa}, {0xb}, {0xc}, {0xd}}}

	chain := &fakeChainService{
		low:           uint128.From64(1000),
		high:          uint128.From64(1000),
		switchAfter:   1 << 30,
		unknownIndex:  0,
		unknownHeight: 10,
		hasUnknown:    true,
	}

	out := make(chan BlockBatch, 10)
	dl := NewBlockDownloader(peers, chain, out, nil)

	err := dl.Run(context.Background())
	var derr *DownloadError
	if !errors.As(err, &derr) {
		t.Fatalf("Run = %v, want a DownloadError", err)
	}
	if derr.Kind != FailedToFindAChainToFollow {
		t.Errorf("Kind = %v, want FailedToFindAChainToFollow", derr.Kind)
	}
	if _, err := peers.Borrow(context.Background(), nil); err == nil {
		t.Error("expected the sole peer to still be banned after Run returns")
	}
}

func TestMarkSatisfiedRejectsOverSupply(t *testing.T) {
	gap, complete := markSatisfied(100, 10, 11)
	if complete {
		t.Fatal("markSatisfied reported complete = true for a response with more blocks than requested")
	}
	if gap != 110 {
		t.Errorf("gap = %d, want 110", gap)
	}
}

func TestMarkSatisfiedAcceptsExactSupply(t *testing.T) {
	gap, complete := markSatisfied(100, 10, 10)
	if !complete {
		t.Fatalf("markSatisfied reported complete = false for an exact response, gap = %d", gap)
	}
}
