// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"container/heap"

	"git.gammaspectra.live/monerod/consensus/p2p"
	"lukechampine.com/uint128"
)

// ChainTracker follows one peer's advertised chain from the point the
// downloader started at: it holds the ordered hash list the seeding peer
// returned and lets the downloader carve it into request ranges.
type ChainTracker struct {
	seed        p2p.PeerID
	firstHeight uint64
	blockIDs    [][32]byte
	claim       uint128.Uint128
}

// NewChainTracker builds a tracker from the seeding peer's chain response:
// firstHeight is the height of blockIDs[0] as resolved by ChainService's
// FindFirstUnknown.
func NewChainTracker(seed p2p.PeerID, firstHeight uint64, blockIDs [][32]byte, claim uint128.Uint128) *ChainTracker {
	return &ChainTracker{seed: seed, firstHeight: firstHeight, blockIDs: blockIDs, claim: claim}
}

// Seed returns the peer that supplied this tracker's hash list.
func (t *ChainTracker) Seed() p2p.PeerID { return t.seed }

// Claim returns the cumulative difficulty the seeding peer reported.
func (t *ChainTracker) Claim() uint128.Uint128 { return t.claim }

// Remaining reports how many block hashes have not yet been handed out in
// a request range.
func (t *ChainTracker) Remaining(nextHeight uint64) int {
	if nextHeight < t.firstHeight {
		return len(t.blockIDs)
	}
	i := int(nextHeight - t.firstHeight)
	if i >= len(t.blockIDs) {
		return 0
	}
	return len(t.blockIDs) - i
}

// NextRange returns up to n block hashes starting at nextHeight, for use in
// a GetObjectsRequest, and the height the range after it would start at.
func (t *ChainTracker) NextRange(nextHeight uint64, n int) (ids [][32]byte, rangeEnd uint64) {
	if nextHeight < t.firstHeight {
		return nil, nextHeight
	}
	i := int(nextHeight - t.firstHeight)
	if i >= len(t.blockIDs) {
		return nil, nextHeight
	}
	end := i + n
	if end > len(t.blockIDs) {
		end = len(t.blockIDs)
	}
	return t.blockIDs[i:end], nextHeight + uint64(end-i)
}

// pendingBatch is one in-flight or completed streaming request: the height
// range it covers, the peer it was sent to, and (once complete) the raw
// block payloads received, in height order.
type pendingBatch struct {
	startHeight uint64
	count       int
	peer        p2p.PeerID
	blocks      [][]byte
	done        bool
}

// batchHeap orders pendingBatches by startHeight so ReassemblyQueue can pop
// the lowest height still waiting, regardless of completion order.
type batchHeap []*pendingBatch

func (h batchHeap) Len() int            { return len(h) }
func (h batchHeap) Less(i, j int) bool  { return h[i].startHeight < h[j].startHeight }
func (h batchHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *batchHeap) Push(x interface{}) { *h = append(*h, x.(*pendingBatch)) }
func (h *batchHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ReassemblyQueue holds completed batches until they can be emitted in
// height order, since peers satisfy requests out of order.
type ReassemblyQueue struct {
	nextHeight uint64
	pending    batchHeap
}

// NewReassemblyQueue creates a queue expecting startHeight next.
func NewReassemblyQueue(startHeight uint64) *ReassemblyQueue {
	q := &ReassemblyQueue{nextHeight: startHeight}
	heap.Init(&q.pending)
	return q
}

// Insert adds a completed batch to the queue.
func (q *ReassemblyQueue) Insert(b *pendingBatch) {
	b.done = true
	heap.Push(&q.pending, b)
}

// Drain pops every batch at the front of the queue that is both complete
// and contiguous with nextHeight, in order, advancing nextHeight past each
// one. It stops at the first gap (an incomplete or not-yet-arrived batch).
func (q *ReassemblyQueue) Drain() []*pendingBatch {
	var out []*pendingBatch
	for len(q.pending) > 0 {
		top := q.pending[0]
		if !top.done || top.startHeight != q.nextHeight {
			break
		}
		heap.Pop(&q.pending)
		out = append(out, top)
		q.nextHeight += uint64(top.count)
	}
	return out
}

// NextHeight reports the height the queue is waiting to emit next.
func (q *ReassemblyQueue) NextHeight() uint64 { return q.nextHeight }

// Empty reports whether the queue holds no batches at all, complete or
// not — used to tell "caught up" from "a completed batch is still waiting
// to be drained".
func (q *ReassemblyQueue) Empty() bool { return len(q.pending) == 0 }
