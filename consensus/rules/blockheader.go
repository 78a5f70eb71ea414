// Copyright (c) 2018 The ExchangeCoin team
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rules

import (
	"git.gammaspectra.live/monerod/consensus/consensus/hardfork"
	"git.gammaspectra.live/monerod/consensus/consensus/txtypes"
)

// BlockHeader is the subset of a block header the rule checks below need.
// Decoding the full wire header (RandomX nonce placement, varint major/
// minor version fields, etc.) happens in the external P2P/store
// collaborators; by the time a header reaches this package it has already
// been reduced to these fields.
type BlockHeader struct {
	MajorVersion uint8 // the block's declared hard-fork version
	MinorVersion uint8 // the block's hard-fork vote
	Timestamp    uint64
	PrevID       txtypes.Hash
	Height       uint64
}

// CheckBlockHeaderVersion decodes and validates the header's major/minor
// version fields against the contextually expected hard fork, returning
// the decoded (version, vote) pair.
//
// ref: HardFork::from_block_header, hard_fork.rs
func CheckBlockHeaderVersion(h *BlockHeader, expected hardfork.HardFork) (version, vote hardfork.HardFork, err error) {
	version, verr := hardfork.FromVersion(h.MajorVersion)
	if verr != nil {
		return 0, 0, ruleError(ErrBlockHeaderInvalid, "block has an unknown hard-fork version")
	}
	if version != expected {
		return 0, 0, ruleError(ErrBlockHeaderInvalid, "block is on an incorrect hard fork")
	}
	vote = hardfork.FromVote(h.MinorVersion)
	if vote < version {
		return 0, 0, ruleError(ErrBlockHeaderInvalid, "block's vote is for a previous hard fork")
	}
	return version, vote, nil
}

// CheckBlockHeaderPrevID enforces that the block extends the chain tip.
func CheckBlockHeaderPrevID(h *BlockHeader, tip txtypes.Hash) error {
	if h.PrevID != tip {
		return ruleError(ErrBlockHeaderInvalid, "block does not extend the current chain tip")
	}
	return nil
}

// CheckBlockHeaderTimestamp enforces that a block's timestamp isn't so far
// in the future that accepting it would let a miner manipulate difficulty
// or time locks, and isn't below the median of recent blocks (which would
// let a miner rewrite history's apparent pace).
func CheckBlockHeaderTimestamp(timestamp, medianTimestamp uint64, maxFutureTimeSeconds uint64, now uint64) error {
	if timestamp < medianTimestamp {
		return ruleError(ErrBlockHeaderInvalid, "block timestamp is below the median of recent blocks")
	}
	if timestamp > now+maxFutureTimeSeconds {
		return ruleError(ErrBlockHeaderInvalid, "block timestamp is too far in the future")
	}
	return nil
}
