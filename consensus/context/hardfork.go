// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package context

import (
	"git.gammaspectra.live/monerod/consensus/chaincfg"
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
)

// voteWindowSize is how many of the most recent blocks' votes are tallied
// when deciding whether a not-yet-activated hard fork should be considered
// active. The reference table this repository's chaincfg package carries
// only ever activates forks by height (every historical fork's threshold
// was already crossed by the time it triggered), so no fabricated vote
// threshold is applied here — see DESIGN.md. The counter is kept so a
// future, explicitly-configured threshold can be wired in without changing
// this type's shape.
const voteWindowSize = 10080

// HardForkState tracks which hard fork is active at the chain's current
// height, and records the last voteWindowSize blocks' votes for
// diagnostics.
//
// Not safe for concurrent use; callers serialize access through the
// context service's single-writer actor.
type HardForkState struct {
	params *chaincfg.Params
	height uint64
	votes  []hardfork.HardFork
}

// NewHardForkState initializes a HardForkState at chainHeight (one past the
// current tip) for the given network parameters.
func NewHardForkState(chainHeight uint64, params *chaincfg.Params) *HardForkState {
	return &HardForkState{
		params: params,
		height: saturatingSub(chainHeight, 1),
	}
}

// CurrentHardFork returns the hard fork active at the cache's current tip.
func (hs *HardForkState) CurrentHardFork() hardfork.HardFork {
	return hs.params.HardForkAt(hs.height)
}

// NewBlock records a newly accepted block's vote and advances the tip
// height. blockHeight must be exactly one more than the state's current
// tip height.
func (hs *HardForkState) NewBlock(blockHeight uint64, vote hardfork.HardFork) {
	if hs.height+1 != blockHeight {
		panic("context: out-of-order block added to hard-fork state")
	}
	hs.height = blockHeight

	hs.votes = append(hs.votes, vote)
	if len(hs.votes) > voteWindowSize {
		hs.votes = hs.votes[1:]
	}
}

// ExpectedVersionAtNextHeight returns the hard fork a block extending the
// current tip must declare as its major version.
func (hs *HardForkState) ExpectedVersionAtNextHeight() hardfork.HardFork {
	return hs.params.HardForkAt(hs.height + 1)
}
