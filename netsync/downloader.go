// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package netsync drives the verification pipeline from a peer network: the
// BlockDownloader streams height-ordered batches from whichever peers claim
// more proof of work than we have, and the Syncer runs the state machine
// deciding when to start, stop and restart a downloader.
package netsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrick/bitset"

	"git.gammaspectra.live/monerod/consensus/p2p"
)

// Tunables mirroring the original implementation's streaming limits.
const (
	// InitialChainRequestsToSend is how many peers the downloader queries
	// in parallel when first locating a common ancestor.
	InitialChainRequestsToSend = 3

	// MaxInProgressBytes bounds how many bytes of outstanding (sent but not
	// yet answered) requests the downloader keeps open at once.
	MaxInProgressBytes = 500 * 1024 * 1024

	// MaxBufferBytes bounds how many bytes of completed-but-not-yet-emitted
	// batches the downloader holds before pausing new requests.
	MaxBufferBytes = 1024 * 1024 * 1024

	// MaxTargetBatchBytes is the hard ceiling on a single request's size.
	MaxTargetBatchBytes = 100 * 1024 * 1024

	// RecommendedTargetBatchBytes is the byte target every request is sized
	// for, from the first request on; the downloader does not adjust it
	// from observed peer throughput.
	RecommendedTargetBatchBytes = 30 * 1024 * 1024

	// initialBatchBlocks is the smallest number of blocks a fresh request
	// asks for (the tracker may have fewer left).
	initialBatchBlocks = 1

	// MaxConcurrentBlockRequests bounds how many GetObjects requests the
	// downloader keeps outstanding across distinct peers at once, on top
	// of the byte-based backpressure counters: streaming to every free
	// peer in the pool concurrently, not just one at a time.
	MaxConcurrentBlockRequests = 8
)

// DownloadError classifies why the downloader gave up, distinguishing peer
// misbehavior (soft-recoverable) from our own store/chain-service failing
// (fatal).
type DownloadError struct {
	Kind DownloadErrorKind
	Peer p2p.PeerID
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("netsync: download error (%v) from peer %d: %v", e.Kind, e.Peer, e.Err)
}
func (e *DownloadError) Unwrap() error { return e.Err }

// DownloadErrorKind enumerates the downloader's failure modes.
type DownloadErrorKind int

const (
	// PeerDoesNotHaveData is soft: try another peer for the same range.
	PeerDoesNotHaveData DownloadErrorKind = iota
	// PeerGaveInvalidInfo bans the peer for BanMedium and re-queues the range.
	PeerGaveInvalidInfo
	// FailedToFindAChainToFollow terminates the downloader entirely.
	FailedToFindAChainToFollow
	// ChainSvcError is fatal: our own chain-service collaborator failed.
	ChainSvcError
)

var (
	// ErrNoChainFound is returned by findChainToFollow when no queried peer
	// both claims more proof of work than us and returns a usable chain.
	ErrNoChainFound = errors.New("netsync: no peer offered a chain to follow")
)

// BlockBatch is a height-ordered, contiguous run of downloaded blocks ready
// for the verification pipeline's Stage A.
type BlockBatch struct {
	StartHeight uint64
	Blocks      [][]byte
	Peer        p2p.PeerID
	// Permit is released by the consumer once the batch has been admitted
	// to (or rejected by) the verification pipeline, see Syncer's sync
	// permit.
	Permit func()
}

// BlockDownloader streams BlockBatches from the peer set onto Out until the
// peers' claimed chain is reached, a fatal error occurs, or ctx is
// canceled. Run dispatches a contiguous range to every free peer it can
// borrow concurrently (bounded by MaxConcurrentBlockRequests and the two
// byte-based backpressure counters below), not just one peer at a time.
type BlockDownloader struct {
	peers   p2p.PeerSet
	chain   p2p.ChainService
	out     chan<- BlockBatch
	permits func() (release func())

	targetBatchBytes int
	inProgressBytes  int
	bufferBytes      int
}

// NewBlockDownloader constructs a downloader that emits onto out. permit is
// called once per emitted batch to obtain its release func (see Syncer).
func NewBlockDownloader(peers p2p.PeerSet, chain p2p.ChainService, out chan<- BlockBatch, permit func() (release func())) *BlockDownloader {
	return &BlockDownloader{
		peers:            peers,
		chain:            chain,
		out:              out,
		permits:          permit,
		targetBatchBytes: RecommendedTargetBatchBytes,
	}
}

// rangeReq is one contiguous height range still waiting to be (re)requested,
// either never yet dispatched or returned to the queue after its previous
// attempt failed or was banned.
type rangeReq struct {
	start uint64
	ids   [][32]byte
}

// requestOutcome is what a dispatchRange goroutine reports back to Run.
// batch is nil if the request failed or the peer was banned for a bad
// response, in which case the range is re-queued rather than dropped.
type requestOutcome struct {
	rng      rangeReq
	reserved int
	batch    *pendingBatch
}

// Run drives the downloader until ctx is canceled, the peers' chain is
// fully caught up to, or a fatal error occurs. It keeps dispatching
// contiguous ranges to every free peer it can borrow, up to
// MaxConcurrentBlockRequests and the byte-based backpressure counters, and
// reassembles the out-of-order completions via ReassemblyQueue.
func (d *BlockDownloader) Run(ctx context.Context) error {
	tracker, err := d.findChainToFollow(ctx)
	if err != nil {
		return err
	}

	dispatchCursor := tracker.firstHeight
	queue := NewReassemblyQueue(dispatchCursor)
	var retry []rangeReq
	outstanding := 0
	results := make(chan requestOutcome)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		ourDiff, err := d.chain.CumulativeDifficulty(ctx)
		if err != nil {
			return &DownloadError{Kind: ChainSvcError, Err: err}
		}
		if tracker.Claim().Cmp(ourDiff) <= 0 && tracker.Remaining(dispatchCursor) == 0 && len(retry) == 0 && outstanding == 0 && queue.Empty() {
			return nil
		}

		dispatchedThisRound := false
		for outstanding < MaxConcurrentBlockRequests && d.inProgressBytes < MaxInProgressBytes && d.bufferBytes < MaxBufferBytes {
			rng, ok := d.nextRangeToDispatch(tracker, &dispatchCursor, &retry)
			if !ok {
				break
			}
			client, release, err := d.peers.Borrow(ctx, nil)
			if err != nil {
				// No free peer right now; leave the range queued and try
				// again once an outstanding request frees one up.
				retry = append(retry, rng)
				break
			}
			reserved := len(rng.ids) * averageBlockBytesEstimate
			d.inProgressBytes += reserved
			outstanding++
			dispatchedThisRound = true
			go d.dispatchRange(ctx, client, release, rng, reserved, results)
		}

		for _, b := range queue.Drain() {
			release := func() {}
			if d.permits != nil {
				release = d.permits()
			}
			select {
			case d.out <- BlockBatch{StartHeight: b.startHeight, Blocks: b.blocks, Peer: b.peer, Permit: release}:
				for _, blk := range b.blocks {
					d.bufferBytes -= len(blk)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !dispatchedThisRound && outstanding == 0 && (len(retry) > 0 || tracker.Remaining(dispatchCursor) > 0) {
			// Work remains, but no peer was free to take any of it and
			// nothing outstanding will ever free one up: further waiting
			// cannot make progress.
			return &DownloadError{Kind: FailedToFindAChainToFollow, Peer: tracker.Seed(), Err: ErrNoChainFound}
		}

		if outstanding > 0 {
			select {
			case outcome := <-results:
				outstanding--
				d.inProgressBytes -= outcome.reserved
				if outcome.batch != nil {
					queue.Insert(outcome.batch)
					for _, b := range outcome.batch.blocks {
						d.bufferBytes += len(b)
					}
				} else {
					retry = append(retry, outcome.rng)
				}
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// nextRangeToDispatch returns the next range to send a peer: a previously
// failed range waiting for retry, or a fresh chunk carved from the tracker
// by advancing cursor. ok is false once both are exhausted.
func (d *BlockDownloader) nextRangeToDispatch(tracker *ChainTracker, cursor *uint64, retry *[]rangeReq) (rangeReq, bool) {
	if len(*retry) > 0 {
		rng := (*retry)[0]
		*retry = (*retry)[1:]
		return rng, true
	}
	if tracker.Remaining(*cursor) == 0 {
		return rangeReq{}, false
	}
	n := d.targetBatchBytes / averageBlockBytesEstimate
	if n < initialBatchBlocks {
		n = initialBatchBlocks
	}
	ids, rangeEnd := tracker.NextRange(*cursor, n)
	if len(ids) == 0 {
		return rangeReq{}, false
	}
	start := *cursor
	*cursor = rangeEnd
	return rangeReq{start: start, ids: ids}, true
}

// dispatchRange sends one GetObjectsRequest and reports the outcome on
// results, banning the peer on a failed or invalid response. It is run on
// its own goroutine so Run can keep several ranges in flight at once.
func (d *BlockDownloader) dispatchRange(ctx context.Context, client p2p.Client, release func(), rng rangeReq, reserved int, results chan<- requestOutcome) {
	reqCtx, cancel := context.WithTimeout(ctx, p2p.BlockDownloaderRequestTimeout)
	resp, err := client.SendGetObjects(reqCtx, p2p.GetObjectsRequest{BlockIDs: rng.ids})
	cancel()
	release()

	outcome := requestOutcome{rng: rng, reserved: reserved}
	if err != nil {
		d.peers.Ban(client.ID(), p2p.BanShort, "block request failed or timed out")
	} else if gap, complete := markSatisfied(rng.start, len(rng.ids), len(resp.Blocks)); !complete {
		d.peers.Ban(client.ID(), p2p.BanMedium, fmt.Sprintf("returned wrong number of blocks (gap at height %d)", gap))
	} else {
		outcome.batch = &pendingBatch{startHeight: rng.start, count: len(rng.ids), peer: client.ID(), blocks: resp.Blocks}
	}

	select {
	case results <- outcome:
	case <-ctx.Done():
	}
}

// averageBlockBytesEstimate is a rough per-block size used to translate a
// byte-based batch target into a block count before any real throughput
// data has been observed. Refined over time per peer in a full
// implementation; fixed here since this repository does not persist
// per-peer throughput history.
const averageBlockBytesEstimate = 4096

// findChainToFollow implements the initial-chain-search step: query up to
// InitialChainRequestsToSend peers claiming more proof of work than us,
// pick the one with the highest claim, and ask the chain service to locate
// the first hash it returned that we don't already have.
func (d *BlockDownloader) findChainToFollow(ctx context.Context) (*ChainTracker, error) {
	ourDiff, err := d.chain.CumulativeDifficulty(ctx)
	if err != nil {
		return nil, &DownloadError{Kind: ChainSvcError, Err: err}
	}
	candidates := d.peers.PeersWithMorePoW(ourDiff)
	if len(candidates) > InitialChainRequestsToSend {
		candidates = candidates[:InitialChainRequestsToSend]
	}
	if len(candidates) == 0 {
		return nil, &DownloadError{Kind: FailedToFindAChainToFollow, Err: ErrNoChainFound}
	}

	history, _, err := d.chain.CompactHistory(ctx)
	if err != nil {
		return nil, &DownloadError{Kind: ChainSvcError, Err: err}
	}

	var best struct {
		peer  p2p.PeerID
		resp  p2p.ChainResponse
		valid bool
	}
	for _, id := range candidates {
		id := id
		client, release, err := d.peers.Borrow(ctx, &id)
		if err != nil {
			continue
		}
		reqCtx, cancel := context.WithTimeout(ctx, p2p.BlockDownloaderRequestTimeout)
		resp, err := client.SendChainRequest(reqCtx, p2p.ChainRequest{BlockIDs: history, Prune: false})
		cancel()
		release()
		if err != nil {
			d.peers.Ban(id, p2p.BanShort, "chain request failed or timed out")
			continue
		}
		if !best.valid || resp.CumulativeDifficulty.Cmp(best.resp.CumulativeDifficulty) > 0 {
			best = struct {
				peer  p2p.PeerID
				resp  p2p.ChainResponse
				valid bool
			}{id, resp, true}
		}
	}
	if !best.valid {
		return nil, &DownloadError{Kind: FailedToFindAChainToFollow, Err: ErrNoChainFound}
	}

	idx, height, ok, err := d.chain.FindFirstUnknown(ctx, best.resp.BlockIDs)
	if err != nil {
		return nil, &DownloadError{Kind: ChainSvcError, Err: err}
	}
	if !ok {
		return nil, &DownloadError{Kind: FailedToFindAChainToFollow, Peer: best.peer, Err: ErrNoChainFound}
	}

	return NewChainTracker(best.peer, height, best.resp.BlockIDs[idx:], best.resp.CumulativeDifficulty), nil
}

// satisfiedHeights tracks, for one in-flight multi-block request, which of
// its requested heights a peer's streamed response has actually supplied —
// a compact membership set cheaper than a map[uint64]bool for the
// contiguous, densely-populated ranges the downloader requests.
type satisfiedHeights struct {
	base uint64
	bits bitset.Bytes
}

func newSatisfiedHeights(base uint64, count int) *satisfiedHeights {
	return &satisfiedHeights{base: base, bits: bitset.NewBytes(count)}
}

func (s *satisfiedHeights) mark(height uint64) {
	s.bits.Set(int(height - s.base))
}

func (s *satisfiedHeights) has(height uint64) bool {
	return s.bits.Get(int(height - s.base))
}

// markSatisfied records which of the requested heights [base, base+requested)
// a response of got blocks actually covers, assuming a well-behaved peer
// fills the range front-to-back, and reports the first unsatisfied height
// (if any) along with whether the range is fully satisfied. A peer that
// returns more blocks than requested is rejected outright: there is no
// height left in the requested range to blame the excess on, so the first
// height past the range is reported as the gap.
func markSatisfied(base uint64, requested, got int) (gap uint64, complete bool) {
	if got > requested {
		return base + uint64(requested), false
	}
	s := newSatisfiedHeights(base, requested)
	for i := 0; i < got; i++ {
		s.mark(base + uint64(i))
	}
	for i := 0; i < requested; i++ {
		h := base + uint64(i)
		if !s.has(h) {
			return h, false
		}
	}
	return 0, true
}
