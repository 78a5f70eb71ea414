// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package netsync

import (
	"context"
	"errors"
	"time"

	"git.gammaspectra.live/monerod/consensus/p2p"
)

// syncState names the syncer's state-machine states.
type syncState int

const (
	stateNoPeers syncState = iota
	stateCheckPeers
	stateDownloading
	stateSynced
)

// WakeReason names why a parked, fully-synced syncer resumed checking
// peers.
type WakeReason int

const (
	// WakeBehindPeers fires when a peer claims more cumulative difficulty
	// than we have.
	WakeBehindPeers WakeReason = iota
	// WakeRecheck fires on a reorg or peer-set change that invalidates the
	// last comparison, without necessarily meaning we're behind.
	WakeRecheck
)

// incomingBlockDrainWait bounds how long the syncer waits, while parked, for
// an unsolicited-block burst to settle before re-checking peers.
const incomingBlockDrainWait = 1 * time.Second

// syncPermit is a single-slot semaphore: the syncer takes it while a
// downloader runs. Every emitted batch carries the permit's release func as
// its Permit; release never blocks and does nothing when the slot is
// already free. Batches do not hold a count on the permit, so stopping the
// downloader does not wait for batches already handed to the pipeline.
type syncPermit struct {
	slot chan struct{}
}

func newSyncPermit() *syncPermit {
	p := &syncPermit{slot: make(chan struct{}, 1)}
	p.slot <- struct{}{}
	return p
}

// acquire blocks until the permit is free, then takes it.
func (p *syncPermit) acquire(ctx context.Context) error {
	select {
	case <-p.slot:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release returns the permit. Safe to call from the pipeline consumer
// after admitting or rejecting a batch.
func (p *syncPermit) release() {
	select {
	case p.slot <- struct{}{}:
	default:
	}
}

// PeerSyncNotifier is the callback the syncer parks on while Synced: it
// blocks until a wake reason fires, analogous to the original's
// peer-sync-watch channel.
type PeerSyncNotifier interface {
	Wait(ctx context.Context) (WakeReason, error)
}

// IncomingBlockCounter tracks unsolicited blocks arriving from peers while
// the syncer is parked, so it can wait for a burst to settle before
// re-checking rather than thrashing on every individual block.
type IncomingBlockCounter interface {
	// Count returns the number of unsolicited blocks currently queued.
	Count() int
}

// Syncer runs the C5 state machine: it holds the sync permit, starts and
// stops BlockDownloaders as peers' claimed proof of work rises above ours,
// and parks on PeerSyncNotifier once caught up.
type Syncer struct {
	peers   p2p.PeerSet
	chain   p2p.ChainService
	notify  PeerSyncNotifier
	pending IncomingBlockCounter

	permit *syncPermit
	out    chan<- BlockBatch
}

// NewSyncer constructs a syncer that emits batches onto out.
func NewSyncer(peers p2p.PeerSet, chain p2p.ChainService, notify PeerSyncNotifier, pending IncomingBlockCounter, out chan<- BlockBatch) *Syncer {
	return &Syncer{
		peers:   peers,
		chain:   chain,
		notify:  notify,
		pending: pending,
		permit:  newSyncPermit(),
		out:     out,
	}
}

// Run drives the state machine until ctx is canceled.
func (s *Syncer) Run(ctx context.Context) error {
	state := stateNoPeers
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		switch state {
		case stateNoPeers:
			if s.peers.MostPoWSeen().Height == 0 {
				if err := s.waitForFirstPeer(ctx); err != nil {
					return err
				}
			}
			state = stateCheckPeers

		case stateCheckPeers:
			ourDiff, err := s.chain.CumulativeDifficulty(ctx)
			if err != nil {
				return err
			}
			best := s.peers.MostPoWSeen()
			if best.CumulativeDifficulty.Cmp(ourDiff) > 0 {
				state = stateDownloading
			} else {
				state = stateSynced
			}

		case stateDownloading:
			if err := s.permit.acquire(ctx); err != nil {
				return err
			}
			dl := NewBlockDownloader(s.peers, s.chain, s.out, func() func() {
				return s.permit.release
			})
			err := dl.Run(ctx)
			s.stopCurrentDownloader()
			if err != nil {
				var derr *DownloadError
				if errors.As(err, &derr) && derr.Kind == FailedToFindAChainToFollow {
					state = stateCheckPeers
					continue
				}
				return err
			}
			state = stateCheckPeers

		case stateSynced:
			reason, err := s.parkUntilWoken(ctx)
			if err != nil {
				return err
			}
			_ = reason
			state = stateCheckPeers
		}
	}
}

// stopCurrentDownloader releases the sync permit, takes it again and
// releases it, leaving the slot free. It does not wait for batches already
// handed to the pipeline — see syncPermit's doc comment.
func (s *Syncer) stopCurrentDownloader() {
	s.permit.release()
	_ = s.permit.acquire(context.Background())
	s.permit.release()
}

// waitForFirstPeer blocks until the peer set reports at least one peer's
// chain claim.
func (s *Syncer) waitForFirstPeer(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if s.peers.MostPoWSeen().Height > 0 {
			return nil
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parkUntilWoken waits on the peer-sync callback; if unsolicited blocks are
// piling up it first waits for the burst to drain before considering the
// wake reason, per the original's "incoming-block tight loop" rule.
func (s *Syncer) parkUntilWoken(ctx context.Context) (WakeReason, error) {
	reason, err := s.notify.Wait(ctx)
	if err != nil {
		return 0, err
	}
	if s.pending != nil {
		for s.pending.Count() > 0 {
			select {
			case <-time.After(incomingBlockDrainWait):
			case <-ctx.Done():
				return 0, ctx.Err()
			}
			if s.pending.Count() > 0 {
				continue
			}
			break
		}
	}
	return reason, nil
}
